package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/realtime"
)

// eventBuffer is the capacity of the channel between the realtime transport
// and the controller.
const eventBuffer = 16

// Run bootstraps the dashboard, then drives the notification sweep, the
// realtime channel and the polling timers until ctx is done. It returns once
// every task it started has exited.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	spawn(func() { c.notes.Run(ctx) })

	var chanErr error
	if c.channel != nil {
		in := make(chan realtime.Event, eventBuffer)
		spawn(func() {
			if err := c.channel.Run(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Errorf("dashboard: realtime channel stopped: %v", err)
				chanErr = err
			}
		})
		spawn(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-in:
					c.handle(ev)
				}
			}
		})
	}

	if err := c.Bootstrap(ctx); err != nil {
		c.log.Warnf("dashboard: bootstrap: %v", err)
	}

	spawn(func() { every(ctx, c.cfg.clockInterval(), c.tick) })
	spawn(func() { every(ctx, c.cfg.chartInterval(), c.redrawCharts) })
	spawn(func() {
		every(ctx, c.cfg.statusInterval(), func() { c.refreshStatus(ctx, events.SourcePoll) })
	})

	<-ctx.Done()
	wg.Wait()
	return chanErr
}

// every calls fn each period until ctx is done. A non-positive period
// disables the task.
func every(ctx context.Context, period time.Duration, fn func()) {
	if period <= 0 {
		return
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}
