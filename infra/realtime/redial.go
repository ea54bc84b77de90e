package realtime

import (
	"context"
	"time"

	corerealtime "github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/infra/logger"
)

// DefaultReconnectDelay is the pause between two websocket dials.
const DefaultReconnectDelay = 2 * time.Second

// session runs a single connection until it drops. It reports whether the
// link had been established so a Disconnected event is only emitted after a
// Connected one.
type session func(ctx context.Context, out chan<- corerealtime.Event) (bool, error)

// redial runs s until ctx is cancelled, waiting delay between attempts.
func redial(ctx context.Context, out chan<- corerealtime.Event, delay time.Duration, log logger.Logger, s session) error {
	for {
		established, err := s(ctx, out)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			reason := "connection closed"
			if err != nil {
				reason = err.Error()
			}
			if !corerealtime.Emit(ctx, out, corerealtime.Disconnected{Reason: reason}) {
				return nil
			}
		}
		log.Warnf("realtime link down (%v), redialing in %s", err, delay)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}
