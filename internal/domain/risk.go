package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// ErrInvalidInput marks a request rejected before it reaches the backend.
var ErrInvalidInput = errors.New("invalid input")

// Categorical feature values the classifier was trained on.
var (
	areaTypes         = []string{"Core", "Buffer", "Eco-sensitive", "Reserve"}
	speciesNames      = []string{"Tiger", "Elephant", "Leopard", "Rhino", "Pangolin", "Sloth Bear", "Spotted Deer", "Wild Dog"}
	seasons           = []string{"Summer", "Winter", "Dry", "Wet"}
	patrolFrequencies = []string{"High", "Medium", "Low"}
)

// Risk levels and factor impacts.
const (
	LevelHigh   = "High"
	LevelMedium = "Medium"
	LevelLow    = "Low"
)

// PredictionInput is a prediction form submission. Location fields are
// normalized through a [Resolver] before use; submitted coordinates are
// ignored.
type PredictionInput struct {
	Selection

	AreaType              string  `json:"area_type"`
	Species               string  `json:"species"`
	Season                string  `json:"season"`
	PatrolFrequency       string  `json:"patrol_frequency"`
	PastCrimes1yr10km     float64 `json:"past_crimes_1yr_10km"`
	PastCrimes3yr10km     float64 `json:"past_crimes_3yr_10km"`
	DistanceToRoadKm      float64 `json:"distance_to_road_km"`
	DistanceToWaterKm     float64 `json:"distance_to_water_km"`
	ForestCoverPct        float64 `json:"forest_cover_pct"`
	NightLightIndex       float64 `json:"night_light_index"`
	PopulationDensitySqkm float64 `json:"population_density_sqkm"`
}

// Validate rejects categorical values outside the training vocabulary,
// negative measurements, and states missing from r.
func (in PredictionInput) Validate(r *Resolver) error {
	var problems []string
	if !r.HasState(in.State) {
		problems = append(problems, fmt.Sprintf("unknown state %q", in.State))
	}
	checkOneOf := func(field, v string, allowed []string) {
		if !slices.Contains(allowed, v) {
			problems = append(problems, fmt.Sprintf("%s %q not one of %s", field, v, strings.Join(allowed, ", ")))
		}
	}
	checkOneOf("area_type", in.AreaType, areaTypes)
	checkOneOf("species", in.Species, speciesNames)
	checkOneOf("season", in.Season, seasons)
	checkOneOf("patrol_frequency", in.PatrolFrequency, patrolFrequencies)

	numeric := []struct {
		field string
		v     float64
	}{
		{"past_crimes_1yr_10km", in.PastCrimes1yr10km},
		{"past_crimes_3yr_10km", in.PastCrimes3yr10km},
		{"distance_to_road_km", in.DistanceToRoadKm},
		{"distance_to_water_km", in.DistanceToWaterKm},
		{"forest_cover_pct", in.ForestCoverPct},
		{"night_light_index", in.NightLightIndex},
		{"population_density_sqkm", in.PopulationDensitySqkm},
	}
	for _, n := range numeric {
		if n.v < 0 || math.IsNaN(n.v) || math.IsInf(n.v, 0) {
			problems = append(problems, fmt.Sprintf("%s must be a non-negative number", n.field))
		}
	}
	if in.ForestCoverPct > 100 {
		problems = append(problems, "forest_cover_pct must be at most 100")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// PredictionRequest is the payload the inference backend expects.
type PredictionRequest struct {
	State                 string  `json:"state"`
	District              string  `json:"district"`
	ReserveName           string  `json:"reserve_name"`
	AreaType              string  `json:"area_type"`
	Species               string  `json:"species"`
	Season                string  `json:"season"`
	PatrolFrequency       string  `json:"patrol_frequency"`
	PastCrimes1yr10km     float64 `json:"past_crimes_1yr_10km"`
	PastCrimes3yr10km     float64 `json:"past_crimes_3yr_10km"`
	DistanceToRoadKm      float64 `json:"distance_to_road_km"`
	DistanceToWaterKm     float64 `json:"distance_to_water_km"`
	ForestCoverPct        float64 `json:"forest_cover_pct"`
	NightLightIndex       float64 `json:"night_light_index"`
	PopulationDensitySqkm float64 `json:"population_density_sqkm"`
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
}

// NewPredictionRequest builds the backend payload from a normalized input.
func NewPredictionRequest(in PredictionInput) PredictionRequest {
	return PredictionRequest{
		State:                 in.State,
		District:              in.District,
		ReserveName:           in.ReserveName(),
		AreaType:              in.AreaType,
		Species:               in.Species,
		Season:                in.Season,
		PatrolFrequency:       in.PatrolFrequency,
		PastCrimes1yr10km:     in.PastCrimes1yr10km,
		PastCrimes3yr10km:     in.PastCrimes3yr10km,
		DistanceToRoadKm:      in.DistanceToRoadKm,
		DistanceToWaterKm:     in.DistanceToWaterKm,
		ForestCoverPct:        in.ForestCoverPct,
		NightLightIndex:       in.NightLightIndex,
		PopulationDensitySqkm: in.PopulationDensitySqkm,
		Latitude:              in.Latitude,
		Longitude:             in.Longitude,
	}
}

// Probabilities holds per-class probabilities in [0, 1].
type Probabilities struct {
	Low    float64 `json:"Low"`
	Medium float64 `json:"Medium"`
	High   float64 `json:"High"`
}

// PredictionResult is the backend's classification.
type PredictionResult struct {
	RiskLevel     string        `json:"risk_level"`
	Probabilities Probabilities `json:"probabilities"`
}

// Predictor classifies a location and its features.
type Predictor interface {
	Predict(ctx context.Context, req PredictionRequest) (PredictionResult, error)
}

// Percentages holds per-class probabilities as rounded whole percentages.
type Percentages struct {
	Low    int `json:"Low"`
	Medium int `json:"Medium"`
	High   int `json:"High"`
}

// RiskFactor is a human-readable contributor to a prediction.
type RiskFactor struct {
	Text   string `json:"text"`
	Impact string `json:"impact"`
	Value  int    `json:"value"`
}

// RiskAssessment is what the dashboard shows for a prediction.
type RiskAssessment struct {
	RiskLevel     string       `json:"risk_level"`
	RiskScore     int          `json:"risk_score"`
	Probabilities Percentages  `json:"probabilities"`
	Factors       []RiskFactor `json:"factors"`
	Selection     Selection    `json:"selection"`
}

// Assess combines a backend result with the input that produced it.
func Assess(result PredictionResult, in PredictionInput) RiskAssessment {
	return RiskAssessment{
		RiskLevel: result.RiskLevel,
		RiskScore: RiskScore(result.Probabilities),
		Probabilities: Percentages{
			Low:    roundInt(result.Probabilities.Low * 100),
			Medium: roundInt(result.Probabilities.Medium * 100),
			High:   roundInt(result.Probabilities.High * 100),
		},
		Factors:   Factors(in),
		Selection: in.Selection,
	}
}

// RiskScore weights class probabilities into a single 20–100 score.
func RiskScore(p Probabilities) int {
	return roundInt(p.Low*20 + p.Medium*60 + p.High*100)
}

// Factors lists the input conditions known to raise poaching risk, most
// severe first.
func Factors(in PredictionInput) []RiskFactor {
	factors := []RiskFactor{}

	if in.PastCrimes3yr10km >= 12 {
		factors = append(factors, RiskFactor{
			Text:   "High historical poaching incidents",
			Impact: LevelHigh,
			Value:  min(95, roundInt(in.PastCrimes3yr10km*5)),
		})
	}
	if in.DistanceToRoadKm <= 5 {
		factors = append(factors, RiskFactor{Text: "Close proximity to road access", Impact: LevelHigh, Value: 85})
	}
	if in.PatrolFrequency == LevelLow {
		factors = append(factors, RiskFactor{Text: "Low patrol frequency", Impact: LevelHigh, Value: 80})
	}
	if in.PopulationDensitySqkm > 250 {
		factors = append(factors, RiskFactor{Text: "High population density nearby", Impact: LevelMedium, Value: 65})
	}
	if in.ForestCoverPct < 60 {
		factors = append(factors, RiskFactor{Text: "Lower forest cover increases accessibility", Impact: LevelMedium, Value: 60})
	}
	if in.DistanceToWaterKm <= 3 {
		factors = append(factors, RiskFactor{Text: "Close to water sources (animal gathering points)", Impact: LevelMedium, Value: 55})
	}
	if in.NightLightIndex > 10 {
		factors = append(factors, RiskFactor{Text: "High night light activity", Impact: LevelMedium, Value: 50})
	}

	return factors
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
