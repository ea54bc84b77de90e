package model

// ScheduleRow is one train entry of an induction schedule. Field names follow
// the backend's column names.
type ScheduleRow struct {
	TrainID                   string   `json:"TrainID"`
	OperationalStatus         string   `json:"OperationalStatus"`
	Score                     float64  `json:"Score"`
	RollingStockFitnessStatus bool     `json:"RollingStockFitnessStatus"`
	OpenJobCards              int      `json:"OpenJobCards"`
	BrandingActive            bool     `json:"BrandingActive"`
	PredictedDelayMinutes     float64  `json:"PredictedDelayMinutes"`
	TotalMileageKM            *float64 `json:"TotalMileageKM,omitempty"`
	BrakepadWearPct           *float64 `json:"BrakepadWear%,omitempty"`
	HVACWearPct               *float64 `json:"HVACWear%,omitempty"`
}

// FindTrain returns the row with the given identifier.
func FindTrain(rows []ScheduleRow, id string) (ScheduleRow, bool) {
	for _, r := range rows {
		if r.TrainID == id {
			return r, true
		}
	}
	return ScheduleRow{}, false
}
