package domain

// NoReserve is the sentinel reserve name listed for districts without a
// tracked protected area.
const NoReserve = "None"

// DefaultState is the state the prediction form opens on.
const DefaultState = "Karnataka"

const (
	fallbackLat = 22.0
	fallbackLon = 78.0
)

// FallbackCentroid returns the coordinate used when no table matches a
// selection.
func FallbackCentroid() Coordinate {
	return Coordinate{Lat: fallbackLat, Lon: fallbackLon}
}

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Granularity names the table a resolved coordinate came from.
type Granularity string

const (
	GranularityReserve  Granularity = "reserve"
	GranularityDistrict Granularity = "district"
	GranularityState    Granularity = "state"
	GranularityFallback Granularity = "fallback"

	// GranularityReported marks a coordinate supplied by the backend itself.
	GranularityReported Granularity = "reported"
)

// Selection is the prediction form's location tuple. It is derived by the
// cascade operations on [Resolver] and is not authoritative on its own.
type Selection struct {
	State     string  `json:"state"`
	District  string  `json:"district"`
	Reserve   string  `json:"reserve"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate returns the selection's latitude/longitude pair.
func (s Selection) Coordinate() Coordinate {
	return Coordinate{Lat: s.Latitude, Lon: s.Longitude}
}

// ReserveName returns the reserve as the backend names it, with an empty
// reserve reported as [NoReserve].
func (s Selection) ReserveName() string {
	if s.Reserve == "" {
		return NoReserve
	}
	return s.Reserve
}
