package config

import (
	"fmt"
	"path/filepath"
)

// ViewConfig configures the optional rendering targets.
type ViewConfig struct {
	// Address is the listen address of the local view server. Empty
	// disables it.
	Address string `json:"address"`
	// ChartPath receives the HTML chart page on every chart draw. Empty
	// keeps the page in memory.
	ChartPath string `json:"chart_path"`
	// Terminal enables the live terminal frame.
	Terminal *bool `json:"terminal"`
	// Token, when set, is required as a bearer token on /api/journal.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *ViewConfig) SetDefaults() {
	if c.Terminal == nil {
		v := true
		c.Terminal = &v
	}
}

// Validate checks the chart path.
func (c ViewConfig) Validate() error {
	if c.ChartPath != "" && filepath.Ext(c.ChartPath) != ".html" {
		return fmt.Errorf("view: chart_path must end in .html")
	}
	return nil
}

// TerminalEnabled reports whether the terminal frame is drawn.
func (c ViewConfig) TerminalEnabled() bool { return c.Terminal == nil || *c.Terminal }
