package auth

import (
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

// Conf represents the OAuth2 client credentials used to reach the backend.
// An empty TokenURL disables authentication.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether a token endpoint is configured.
func (c Conf) Enabled() bool { return c.TokenURL != "" }

// Validate checks that an enabled configuration carries a client id.
func (c Conf) Validate() error {
	if c.Enabled() && c.ClientID == "" {
		return fmt.Errorf("auth: client_id is required with token_url")
	}
	return nil
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
