package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoSchedule is returned when the backend has no schedule yet.
	ErrNoSchedule = errors.New("no schedule available")
)

// HTTPError is a transport level failure: the backend answered with a non-2xx
// status.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// AppError is an application level failure: the response status was not
// "success".
type AppError struct {
	Path    string
	Status  string
	Message string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: status %q", e.Path, e.Status)
}

// UserMessage returns the server supplied message carried by err, or fallback
// when there is none.
func UserMessage(err error, fallback string) string {
	var app *AppError
	if errors.As(err, &app) && app.Message != "" {
		return app.Message
	}
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return fallback
}
