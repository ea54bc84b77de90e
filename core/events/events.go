package events

import (
	"time"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// Event is implemented by every event published by the dashboard.
type Event interface {
	isEvent()
	// At returns the time the event happened.
	At() time.Time
}

// Sources of a state write.
const (
	SourceBootstrap = "bootstrap"
	SourceRealtime  = "realtime"
	SourcePoll      = "poll"
	SourceAction    = "action"
)

// StatusChanged is published after the status cell was written.
type StatusChanged struct {
	Status model.SystemStatus
	Source string
	Time   time.Time
}

// ScheduleReplaced is published after the schedule table was replaced.
type ScheduleReplaced struct {
	Rows   int
	Source string
	Time   time.Time
}

// ConnectionChanged is published when the realtime link changes state.
type ConnectionChanged struct {
	Connected bool
	Reason    string
	Time      time.Time
}

// RealtimeReceived is published for every inbound realtime event.
type RealtimeReceived struct {
	Name string
	Time time.Time
}

// ActionCompleted is published when a dashboard action finishes.
type ActionCompleted struct {
	Action   string
	Success  bool
	Message  string
	Err      error
	Duration time.Duration
	Time     time.Time
}

func (StatusChanged) isEvent()     {}
func (ScheduleReplaced) isEvent()  {}
func (ConnectionChanged) isEvent() {}
func (RealtimeReceived) isEvent()  {}
func (ActionCompleted) isEvent()   {}

func (e StatusChanged) At() time.Time     { return e.Time }
func (e ScheduleReplaced) At() time.Time  { return e.Time }
func (e ConnectionChanged) At() time.Time { return e.Time }
func (e RealtimeReceived) At() time.Time  { return e.Time }
func (e ActionCompleted) At() time.Time   { return e.Time }
