package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/kmrl-dash/core/dashboard"
	"github.com/kilianp07/kmrl-dash/core/journal"
	"github.com/kilianp07/kmrl-dash/core/metrics"
	"github.com/kilianp07/kmrl-dash/infra/monitoring"
)

type Config struct {
	API       APIConfig         `json:"api"`
	Realtime  RealtimeConfig    `json:"realtime"`
	Dashboard dashboard.Config  `json:"dashboard"`
	Metrics   metrics.Config    `json:"metrics"`
	Journal   journal.Config    `json:"journal"`
	Sentry    monitoring.Config `json:"sentry"`
	View      ViewConfig        `json:"view"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_API__BASE_URL sets api.base_url), then defaults and validation. An empty
// path loads from the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.API.SetDefaults()
	c.Realtime.SetDefaults(c.API.BaseURL)
	c.Dashboard.SetDefaults()
	c.Journal.SetDefaults()
	c.View.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Dashboard.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	return c.View.Validate()
}
