package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Endpoint names a read-only inference backend resource.
type Endpoint string

const (
	EndpointAnalytics   Endpoint = "analytics"
	EndpointHotspots    Endpoint = "hotspots"
	EndpointModelInfo   Endpoint = "model-info"
	EndpointStates      Endpoint = "states"
	EndpointReserves    Endpoint = "reserves"
	EndpointSpeciesRisk Endpoint = "species-risk"
	EndpointTrends      Endpoint = "trends"
	EndpointAlerts      Endpoint = "alerts"
	EndpointArticles    Endpoint = "articles"
	EndpointHealth      Endpoint = "health"
)

// Fetcher returns the raw JSON body of a backend endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, ep Endpoint) ([]byte, error)
}

// feed is implemented by responses that carry a success flag.
type feed interface {
	Err() error
}

// Status is the success envelope some backend endpoints wrap their payload in.
type Status struct {
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Err returns the backend's reported failure, or nil when the response did
// not report one. A missing success flag counts as success.
func (s Status) Err() error {
	if s.Success == nil || *s.Success {
		return nil
	}
	if s.Error == "" {
		return errors.New("backend reported failure")
	}
	return errors.New(s.Error)
}

// Decode unmarshals a backend body into T and surfaces a reported failure.
func Decode[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode backend response: %w", err)
	}
	if f, ok := any(v).(feed); ok {
		if err := f.Err(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Load fetches and decodes one endpoint.
func Load[T any](ctx context.Context, f Fetcher, ep Endpoint) (T, error) {
	body, err := f.Fetch(ctx, ep)
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := Decode[T](body)
	if err != nil {
		return v, fmt.Errorf("%s: %w", ep, err)
	}
	return v, nil
}

// AnalyticsStats summarises the model's coverage.
type AnalyticsStats struct {
	TotalPredictions int     `json:"total_predictions"`
	HighRiskAreas    int     `json:"high_risk_areas"`
	MediumRiskAreas  int     `json:"medium_risk_areas"`
	LowRiskAreas     int     `json:"low_risk_areas"`
	ModelAccuracy    float64 `json:"model_accuracy"`
	TrainingSamples  int     `json:"training_samples"`
	AverageRiskScore float64 `json:"average_risk_score"`
}

// FeatureImportance is one classifier feature's importance in [0, 1].
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// StateScore ranks a state by aggregate risk.
type StateScore struct {
	State string  `json:"state"`
	Score float64 `json:"score"`
}

// Analytics is the analytics endpoint's response.
type Analytics struct {
	Status
	Stats             *AnalyticsStats     `json:"stats,omitempty"`
	FeatureImportance []FeatureImportance `json:"feature_importance"`
	TopRiskStates     []StateScore        `json:"top_risk_states"`
}

// Hotspot is one mapped high-, medium-, or low-risk zone.
type Hotspot struct {
	Name         string  `json:"name"`
	State        string  `json:"state"`
	District     string  `json:"district"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Risk         float64 `json:"risk"`
	RiskLevel    string  `json:"risk_level"`
	Incidents3yr int     `json:"incidents_3yr"`
}

// RiskCounts tallies hotspots by level.
type RiskCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Hotspots is the hotspots endpoint's response.
type Hotspots struct {
	Status
	Hotspots   []Hotspot  `json:"hotspots"`
	TotalCount int        `json:"total_count"`
	RiskCounts RiskCounts `json:"risk_counts"`
}

// SpeciesRisk aggregates incidents for one species.
type SpeciesRisk struct {
	Species       string  `json:"species"`
	HighRiskCount int     `json:"high_risk_count"`
	AvgCrimes     float64 `json:"avg_crimes"`
	LocationCount int     `json:"location_count"`
}

// SpeciesRiskReport is the species-risk endpoint's response.
type SpeciesRiskReport struct {
	Status
	SpeciesRisk []SpeciesRisk `json:"species_risk"`
}

// AlertCoordinates is an alert's position as the backend encodes it.
type AlertCoordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Alert is a backend-raised warning about a high-risk zone.
type Alert struct {
	Type            string            `json:"type"`
	Message         string            `json:"message"`
	Location        string            `json:"location"`
	District        string            `json:"district,omitempty"`
	Species         string            `json:"species,omitempty"`
	PatrolFrequency string            `json:"patrol_frequency,omitempty"`
	RiskScore       float64           `json:"risk_score"`
	Time            string            `json:"time"`
	Coordinates     *AlertCoordinates `json:"coordinates,omitempty"`
}

// AlertFeed is the alerts endpoint's response.
type AlertFeed struct {
	Status
	Alerts []Alert `json:"alerts"`
}

// Article is a news item gathered by the backend.
type Article struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Summary         string  `json:"summary"`
	URL             string  `json:"url"`
	Source          string  `json:"source"`
	PublishedAt     string  `json:"published_at"`
	FetchedAt       string  `json:"fetched_at"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ArticleFeed is the articles endpoint's response.
type ArticleFeed struct {
	Status
	Articles []Article `json:"articles"`
}
