// Package api is the typed HTTP client for the scheduling backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/core/logger"
)

const maxBodyBytes = 16 << 20

// Client calls the backend REST API.
type Client struct {
	base     *url.URL
	http     *http.Client
	validate *validator.Validate
	log      logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) { cl.log = logger.OrNop(l) }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:     u,
		http:     &http.Client{Timeout: 30 * time.Second},
		validate: validator.New(),
		log:      logger.NopLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.base.String() }

// SystemStatus fetches the current status. The legacy underscore route is
// tried when the primary route does not exist.
func (c *Client) SystemStatus(ctx context.Context) (model.StatusPatch, error) {
	var resp statusResponse
	err := c.do(ctx, http.MethodGet, PathSystemStatus, nil, &resp, true)
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
		c.log.Debugf("%s not found, trying %s", PathSystemStatus, PathSystemStatusAlias)
		resp = statusResponse{}
		err = c.do(ctx, http.MethodGet, PathSystemStatusAlias, nil, &resp, true)
	}
	if err != nil {
		return model.StatusPatch{}, err
	}
	if resp.SystemStatus == nil {
		return model.StatusPatch{}, nil
	}
	return *resp.SystemStatus, nil
}

// CurrentSchedule fetches the latest schedule. ErrNoSchedule is returned
// when the response carries no schedule field.
func (c *Client) CurrentSchedule(ctx context.Context) ([]model.ScheduleRow, error) {
	var resp scheduleResponse
	if err := c.do(ctx, http.MethodGet, PathCurrentSchedule, nil, &resp, false); err != nil {
		return nil, err
	}
	if resp.Schedule == nil {
		return nil, ErrNoSchedule
	}
	return *resp.Schedule, nil
}

// GenerateData asks the backend to generate synthetic data and returns the
// server message.
func (c *Client) GenerateData(ctx context.Context, req GenerateRequest) (string, error) {
	var resp envelope
	if err := c.do(ctx, http.MethodPost, PathGenerateData, req, &resp, true); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// OptimizeSchedule runs the optimizer.
func (c *Client) OptimizeSchedule(ctx context.Context, req OptimizeRequest) (OptimizeResult, error) {
	var resp optimizeResponse
	if err := c.do(ctx, http.MethodPost, PathOptimizeSchedule, req, &resp, true); err != nil {
		return OptimizeResult{}, err
	}
	return OptimizeResult{SchedulePreview: resp.SchedulePreview, Message: resp.Message}, nil
}

// PredictDelays asks the delay model for a prediction.
func (c *Client) PredictDelays(ctx context.Context, in model.PredictInput) (model.Prediction, error) {
	var resp predictResponse
	if err := c.do(ctx, http.MethodPost, PathPredictDelays, in, &resp, true); err != nil {
		return model.Prediction{}, err
	}
	return resp.Prediction, nil
}

// WhatIf runs a scenario analysis and returns the raw results.
func (c *Client) WhatIf(ctx context.Context, sc model.Scenario) (json.RawMessage, error) {
	var resp whatIfResponse
	if err := c.do(ctx, http.MethodPost, PathWhatIf, WhatIfRequest{Scenario: sc}, &resp, true); err != nil {
		return nil, err
	}
	return resp.ScenarioResults, nil
}

// DownloadSchedule streams the schedule CSV. The caller closes the body.
func (c *Client) DownloadSchedule(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.send(ctx, http.MethodGet, PathDownloadSchedule, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, httpError(http.MethodGet, PathDownloadSchedule, resp)
	}
	return resp.Body, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		if err := c.validate.Struct(body); err != nil {
			return nil, fmt.Errorf("%s %s: %w: %v", method, path, ErrInvalidRequest, err)
		}
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debugw("api call", map[string]any{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	})
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out enveloped, requireStatus bool) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpError(method, path, resp)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	env := out.env()
	switch {
	case env.Status == StatusSuccess:
		return nil
	case env.Status == "" && !requireStatus:
		return nil
	default:
		return &AppError{Path: path, Status: env.Status, Message: env.Message}
	}
}

func httpError(method, path string, resp *http.Response) error {
	he := &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env envelope
	if json.Unmarshal(data, &env) == nil {
		he.Message = env.Message
	}
	return he
}
