package api

import (
	"encoding/json"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// Endpoint paths.
const (
	PathSystemStatus      = "/api/system-status"
	PathSystemStatusAlias = "/api/system_status"
	PathCurrentSchedule   = "/api/current-schedule"
	PathGenerateData      = "/api/generate-data"
	PathOptimizeSchedule  = "/api/optimize-schedule"
	PathPredictDelays     = "/api/predict-delays"
	PathWhatIf            = "/api/whatif-analysis"
	PathDownloadSchedule  = "/api/download-schedule"
)

// StatusSuccess is the only success value of the response discriminator.
const StatusSuccess = "success"

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GenerateRequest asks the backend to synthesise fleet data.
type GenerateRequest struct {
	NumTrains     int  `json:"num_trains" validate:"gt=0"`
	IncludeDelays bool `json:"include_delays"`
}

// Constraints bound the optimizer.
type Constraints struct {
	ServiceQuota   int `json:"service_quota" validate:"gte=0"`
	MaxMaintenance int `json:"max_maintenance" validate:"gte=0"`
}

// OptimizeRequest runs a named optimization algorithm.
type OptimizeRequest struct {
	Algorithm   string      `json:"algorithm" validate:"required"`
	Constraints Constraints `json:"constraints"`
}

// OptimizeResult is the optimizer's answer.
type OptimizeResult struct {
	// SchedulePreview is nil when the response carried no preview.
	SchedulePreview *[]model.ScheduleRow
	Message         string
}

// WhatIfRequest wraps a scenario.
type WhatIfRequest struct {
	Scenario model.Scenario `json:"scenario"`
}

type statusResponse struct {
	envelope
	SystemStatus *model.StatusPatch `json:"system_status"`
}

type scheduleResponse struct {
	envelope
	Schedule *[]model.ScheduleRow `json:"schedule"`
}

type optimizeResponse struct {
	envelope
	SchedulePreview *[]model.ScheduleRow `json:"schedule_preview"`
}

type predictResponse struct {
	envelope
	Prediction model.Prediction `json:"prediction"`
}

type whatIfResponse struct {
	envelope
	ScenarioResults json.RawMessage `json:"scenario_results"`
}

func (e *envelope) env() *envelope { return e }

type enveloped interface{ env() *envelope }
