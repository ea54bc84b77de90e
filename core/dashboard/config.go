package dashboard

import (
	"fmt"
	"time"
)

// Config holds the controller settings.
type Config struct {
	// StatusIntervalSeconds is the system status polling period.
	StatusIntervalSeconds int `json:"status_interval_seconds"`
	// ChartIntervalSeconds is the metrics chart push period.
	ChartIntervalSeconds int `json:"chart_interval_seconds"`
	// ClockIntervalSeconds is the header clock refresh period.
	ClockIntervalSeconds int `json:"clock_interval_seconds"`
	// ActionTimeoutSeconds bounds a single backend request of an action.
	ActionTimeoutSeconds int `json:"action_timeout_seconds"`

	NumTrains      int   `json:"num_trains"`
	IncludeDelays  *bool `json:"include_delays"`
	ServiceQuota   int   `json:"service_quota"`
	MaxMaintenance int   `json:"max_maintenance"`

	// ExportDir receives downloaded schedule files.
	ExportDir string `json:"export_dir"`
	// Timezone names the location of the header clock. Empty means IST.
	Timezone string `json:"timezone"`
}

// SetDefaults fills unset fields with the dashboard defaults.
func (c *Config) SetDefaults() {
	if c.StatusIntervalSeconds == 0 {
		c.StatusIntervalSeconds = 10
	}
	if c.ChartIntervalSeconds == 0 {
		c.ChartIntervalSeconds = 30
	}
	if c.ClockIntervalSeconds == 0 {
		c.ClockIntervalSeconds = 1
	}
	if c.ActionTimeoutSeconds == 0 {
		c.ActionTimeoutSeconds = 30
	}
	if c.NumTrains == 0 {
		c.NumTrains = 25
	}
	if c.IncludeDelays == nil {
		v := true
		c.IncludeDelays = &v
	}
	if c.ServiceQuota == 0 {
		c.ServiceQuota = 13
	}
	if c.MaxMaintenance == 0 {
		c.MaxMaintenance = 8
	}
	if c.ExportDir == "" {
		c.ExportDir = "."
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.StatusIntervalSeconds < 0 || c.ChartIntervalSeconds < 0 || c.ClockIntervalSeconds < 0 {
		return fmt.Errorf("dashboard: intervals must not be negative")
	}
	if c.ActionTimeoutSeconds < 0 {
		return fmt.Errorf("dashboard: action_timeout_seconds must not be negative")
	}
	if c.NumTrains < 0 {
		return fmt.Errorf("dashboard: num_trains must not be negative")
	}
	if c.ServiceQuota < 0 || c.MaxMaintenance < 0 {
		return fmt.Errorf("dashboard: constraints must not be negative")
	}
	return nil
}

func (c Config) statusInterval() time.Duration { return seconds(c.StatusIntervalSeconds) }
func (c Config) chartInterval() time.Duration  { return seconds(c.ChartIntervalSeconds) }
func (c Config) clockInterval() time.Duration  { return seconds(c.ClockIntervalSeconds) }
func (c Config) actionTimeout() time.Duration  { return seconds(c.ActionTimeoutSeconds) }

func (c Config) includeDelays() bool { return c.IncludeDelays == nil || *c.IncludeDelays }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
