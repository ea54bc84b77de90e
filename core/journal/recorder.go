package journal

import (
	"context"
	"time"

	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/logger"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"
)

// FromEvent converts a bus event into a journal record. Only realtime
// traffic, link transitions and action outcomes are journaled.
func FromEvent(ev events.Event) (Record, bool) {
	switch e := ev.(type) {
	case events.RealtimeReceived:
		return Record{Timestamp: e.Time, Kind: KindEvent, Name: e.Name}, true
	case events.ConnectionChanged:
		name := "disconnect"
		if e.Connected {
			name = "connect"
		}
		return Record{Timestamp: e.Time, Kind: KindEvent, Name: name, Message: e.Reason}, true
	case events.ActionCompleted:
		r := Record{
			Timestamp:  e.Time,
			Kind:       KindAction,
			Name:       e.Action,
			Outcome:    OutcomeSuccess,
			Message:    e.Message,
			DurationMS: e.Duration.Milliseconds(),
		}
		if !e.Success {
			r.Outcome = OutcomeFailure
			if e.Err != nil {
				r.Message = e.Err.Error()
			}
		}
		return r, true
	}
	return Record{}, false
}

// StartRecorder subscribes to bus and appends journaled events to store
// until ctx is cancelled or the bus is closed. The returned channel is
// closed on exit.
func StartRecorder(ctx context.Context, bus *eventbus.TypedBus[events.Event], store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
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
				rec, ok := FromEvent(ev)
				if !ok {
					continue
				}
				if rec.Timestamp.IsZero() {
					rec.Timestamp = time.Now()
				}
				wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := store.Append(wctx, rec); err != nil {
					log.Errorf("journal append %s: %v", rec.Name, err)
				}
				cancel()
			}
		}
	}()
	return done
}
