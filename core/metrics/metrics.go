package metrics

import (
	"time"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// StatusSample is the status cell after a write.
type StatusSample struct {
	Status model.SystemStatus
	Source string
	Time   time.Time
}

// MetricsSink records status samples.
type MetricsSink interface {
	RecordStatus(s StatusSample) error
}

// ActionOutcome describes a finished dashboard action.
type ActionOutcome struct {
	Action   string
	Success  bool
	Duration time.Duration
	Error    string
	Time     time.Time
}

// ActionRecorder records action outcomes.
type ActionRecorder interface {
	RecordAction(ev ActionOutcome) error
}

// RealtimeEvent is one inbound realtime message.
type RealtimeEvent struct {
	Name string
	Time time.Time
}

// RealtimeRecorder records inbound realtime traffic.
type RealtimeRecorder interface {
	RecordRealtimeEvent(ev RealtimeEvent) error
}

// ConnectionEvent is a realtime link transition.
type ConnectionEvent struct {
	Connected bool
	Reason    string
	Time      time.Time
}

// ConnectionRecorder records link transitions.
type ConnectionRecorder interface {
	RecordConnection(ev ConnectionEvent) error
}

// ScheduleSample describes a schedule replacement.
type ScheduleSample struct {
	Rows   int
	Source string
	Time   time.Time
}

// ScheduleRecorder records schedule replacements.
type ScheduleRecorder interface {
	RecordSchedule(s ScheduleSample) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordStatus(StatusSample) error         { return nil }
func (NopSink) RecordAction(ActionOutcome) error        { return nil }
func (NopSink) RecordRealtimeEvent(RealtimeEvent) error { return nil }
func (NopSink) RecordConnection(ConnectionEvent) error  { return nil }
func (NopSink) RecordSchedule(ScheduleSample) error     { return nil }
