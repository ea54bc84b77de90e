package metrics

import (
	"context"

	"github.com/kilianp07/kmrl-dash/core/events"
	coremetrics "github.com/kilianp07/kmrl-dash/core/metrics"
	"github.com/kilianp07/kmrl-dash/infra/logger"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled or the bus is closed; the
// returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
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
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics: record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.StatusChanged:
		return sink.RecordStatus(coremetrics.StatusSample{Status: e.Status, Source: e.Source, Time: e.Time})
	case events.ActionCompleted:
		if r, ok := sink.(coremetrics.ActionRecorder); ok {
			errStr := ""
			if e.Err != nil {
				errStr = e.Err.Error()
			}
			return r.RecordAction(coremetrics.ActionOutcome{
				Action:   e.Action,
				Success:  e.Success,
				Duration: e.Duration,
				Error:    errStr,
				Time:     e.Time,
			})
		}
	case events.RealtimeReceived:
		if r, ok := sink.(coremetrics.RealtimeRecorder); ok {
			return r.RecordRealtimeEvent(coremetrics.RealtimeEvent{Name: e.Name, Time: e.Time})
		}
	case events.ConnectionChanged:
		if r, ok := sink.(coremetrics.ConnectionRecorder); ok {
			return r.RecordConnection(coremetrics.ConnectionEvent{Connected: e.Connected, Reason: e.Reason, Time: e.Time})
		}
	case events.ScheduleReplaced:
		if r, ok := sink.(coremetrics.ScheduleRecorder); ok {
			return r.RecordSchedule(coremetrics.ScheduleSample{Rows: e.Rows, Source: e.Source, Time: e.Time})
		}
	}
	return nil
}
