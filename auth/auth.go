// Package auth attaches OAuth2 client-credentials tokens to backend requests.
package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// HTTPClient returns a client that sends a bearer token with every request.
// The token is fetched on first use and refreshed once it expires; token
// requests share the client timeout.
func HTTPClient(ctx context.Context, conf Conf, timeout time.Duration) *http.Client {
	cc := conf.toOauth2Config()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	c := cc.Client(ctx)
	c.Timeout = timeout
	return c
}
