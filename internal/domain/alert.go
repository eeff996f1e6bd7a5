package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// AlertEvent is an alert enriched for relay to downstream consumers.
type AlertEvent struct {
	ID          string      `json:"id"`
	Alert       Alert       `json:"alert"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Granularity Granularity `json:"granularity"`
	RelayedAt   time.Time   `json:"relayed_at"`
}

// AlertID derives a stable identifier so the same alert polled twice keeps
// the same ID.
func AlertID(a Alert) string {
	key := strings.Join([]string{a.Type, a.Location, a.District, a.Time}, "|")
	sum := sha256.Sum256([]byte(key))
	return "alert-" + hex.EncodeToString(sum[:8])
}

// EnrichAlert attaches an ID, a coordinate, and a relay timestamp. Alerts
// that arrive without coordinates are placed through r, reading the alert's
// location as a reserve name and its district as a district name.
func EnrichAlert(a Alert, r *Resolver) AlertEvent {
	ev := AlertEvent{
		ID:        AlertID(a),
		Alert:     a,
		RelayedAt: clock.Now().UTC(),
	}

	if a.Coordinates != nil && (a.Coordinates.Lat != 0 || a.Coordinates.Lng != 0) {
		ev.Latitude = a.Coordinates.Lat
		ev.Longitude = a.Coordinates.Lng
		ev.Granularity = GranularityReported
		return ev
	}

	c, g := r.Resolve("", a.District, a.Location)
	ev.Latitude = c.Lat
	ev.Longitude = c.Lon
	ev.Granularity = g
	ev.Alert.Coordinates = &AlertCoordinates{Lat: c.Lat, Lng: c.Lon}
	return ev
}

// PredictionEvent records one completed assessment for downstream consumers.
type PredictionEvent struct {
	ID          string            `json:"id"`
	Request     PredictionRequest `json:"request"`
	Assessment  RiskAssessment    `json:"assessment"`
	PredictedAt time.Time         `json:"predicted_at"`
}

// NewPredictionEvent stamps an assessment with the package clock. The ID is
// unique per selection and instant.
func NewPredictionEvent(in PredictionInput, a RiskAssessment) PredictionEvent {
	at := clock.Now().UTC()
	key := strings.Join([]string{in.State, in.District, in.ReserveName(), at.Format(time.RFC3339Nano)}, "|")
	sum := sha256.Sum256([]byte(key))
	return PredictionEvent{
		ID:          "prediction-" + hex.EncodeToString(sum[:8]),
		Request:     NewPredictionRequest(in),
		Assessment:  a,
		PredictedAt: at,
	}
}
