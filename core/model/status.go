package model

import "strings"

// Health is the backend's overall system health indicator.
type Health int

const (
	HealthGood Health = iota
	HealthWarning
	HealthCritical
)

// ParseHealth maps the backend string to a Health value. Anything other than
// "Good" or "Warning" is treated as critical.
func ParseHealth(s string) Health {
	switch strings.TrimSpace(s) {
	case "Good":
		return HealthGood
	case "Warning":
		return HealthWarning
	default:
		return HealthCritical
	}
}

func (h Health) String() string {
	switch h {
	case HealthGood:
		return "Good"
	case HealthWarning:
		return "Warning"
	default:
		return "Critical"
	}
}

// Indicator returns the CSS-style state name of the health badge.
func (h Health) Indicator() string {
	switch h {
	case HealthGood:
		return "good"
	case HealthWarning:
		return "warning"
	default:
		return "danger"
	}
}

// Label returns the human readable text shown next to the health badge.
func (h Health) Label() string {
	switch h {
	case HealthGood:
		return "System Operational"
	case HealthWarning:
		return "Attention Required"
	default:
		return "System Issues"
	}
}

// MarshalText encodes the health as the backend string.
func (h Health) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText decodes the backend string.
func (h *Health) UnmarshalText(b []byte) error {
	*h = ParseHealth(string(b))
	return nil
}

// SystemStatus is the dashboard's view of fleet state. LastUpdate is kept as
// the backend formatted it.
type SystemStatus struct {
	LastUpdate        string  `json:"last_update"`
	ActiveTrains      int     `json:"active_trains"`
	MaintenanceTrains int     `json:"maintenance_trains"`
	StandbyTrains     int     `json:"standby_trains"`
	AvgDelay          float64 `json:"avg_delay"`
	SystemHealth      Health  `json:"system_health"`
}

// StatusPatch is a partially populated status payload. Nil fields were absent
// from the payload and leave the current value untouched.
type StatusPatch struct {
	LastUpdate        *string  `json:"last_update,omitempty"`
	ActiveTrains      *int     `json:"active_trains,omitempty"`
	MaintenanceTrains *int     `json:"maintenance_trains,omitempty"`
	StandbyTrains     *int     `json:"standby_trains,omitempty"`
	AvgDelay          *float64 `json:"avg_delay,omitempty"`
	SystemHealth      *Health  `json:"system_health,omitempty"`
}

// Apply returns s with every present field of p overwritten.
func (s SystemStatus) Apply(p StatusPatch) SystemStatus {
	if p.LastUpdate != nil {
		s.LastUpdate = *p.LastUpdate
	}
	if p.ActiveTrains != nil {
		s.ActiveTrains = *p.ActiveTrains
	}
	if p.MaintenanceTrains != nil {
		s.MaintenanceTrains = *p.MaintenanceTrains
	}
	if p.StandbyTrains != nil {
		s.StandbyTrains = *p.StandbyTrains
	}
	if p.AvgDelay != nil {
		s.AvgDelay = *p.AvgDelay
	}
	if p.SystemHealth != nil {
		s.SystemHealth = *p.SystemHealth
	}
	return s
}

// Distribution returns the active, standby and maintenance counts in chart order.
func (s SystemStatus) Distribution() [3]float64 {
	return [3]float64{float64(s.ActiveTrains), float64(s.StandbyTrains), float64(s.MaintenanceTrains)}
}

// DistributionLabels are the category names matching Distribution.
var DistributionLabels = [3]string{"Active", "Standby", "Maintenance"}
