package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kilianp07/kmrl-dash/auth"
)

// DefaultBaseURL is the backend address of a local deployment.
const DefaultBaseURL = "http://localhost:5000"

// APIConfig defines how the backend is reached.
type APIConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// Auth enables OAuth2 client credentials when a token URL is set.
	Auth auth.Conf `json:"auth"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api: invalid base_url %q", c.BaseURL)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("api: timeout_seconds must not be negative")
	}
	return c.Auth.Validate()
}

// Timeout returns the HTTP client timeout, 15s when unset.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
