package model

import "encoding/json"

// Prediction is the delay predictor's answer for a single trip.
type Prediction struct {
	DelayCategory   string   `json:"Predicted Delay Category"`
	DelayMinutes    float64  `json:"Predicted Delay Minutes"`
	ServicePattern  string   `json:"Predicted Service Pattern"`
	DayType         string   `json:"Predicted Day Type"`
	Confidence      *float64 `json:"Confidence,omitempty"`
	Recommendations []string `json:"Recommendations,omitempty"`
}

// PredictInput holds the operator supplied trip characteristics.
type PredictInput struct {
	DwellTime  float64 `json:"dwell_time" validate:"gt=0"`
	Distance   float64 `json:"distance" validate:"gt=0"`
	LoadFactor float64 `json:"load_factor" validate:"gte=0,lte=2"`
}

// WithDefaults replaces zero fields by the dashboard's form defaults.
func (p PredictInput) WithDefaults() PredictInput {
	if p.DwellTime == 0 {
		p.DwellTime = 60
	}
	if p.Distance == 0 {
		p.Distance = 8.5
	}
	if p.LoadFactor == 0 {
		p.LoadFactor = 0.7
	}
	return p
}

// Scenario describes a what-if disruption.
type Scenario struct {
	Type           string   `json:"type" validate:"required"`
	AffectedTrains []string `json:"affected_trains"`
}

// ScenarioResults is kept opaque; it is only pretty printed.
type ScenarioResults = json.RawMessage
