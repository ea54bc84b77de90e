// Package monitoring reports failed dashboard actions and panics to an error
// tracker. The process-wide monitor defaults to NopMonitor.
package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the global monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	Current().CaptureException(err, tags)
}

// Recover captures panics in goroutines. It must be deferred directly.
func Recover() {
	Current().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Current().Flush(d)
}

// WatchActions captures every failed action published on bus with m until
// ctx is cancelled or the bus closes.
func WatchActions(ctx context.Context, bus *eventbus.TypedBus[events.Event], m Monitor) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || m == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				a, isAction := ev.(events.ActionCompleted)
				if !isAction || a.Success || a.Err == nil {
					continue
				}
				m.CaptureException(a.Err, map[string]string{"action": a.Action})
			}
		}
	}()
	return done
}
