package metrics

import "errors"

// MultiSink fans observations out to multiple sinks. Optional recorder
// interfaces are forwarded to the sinks implementing them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordStatus forwards the sample to all sinks. Every sink is tried; the
// errors are joined.
func (m *MultiSink) RecordStatus(s StatusSample) error {
	var errs []error
	for _, sink := range m.Sinks {
		errs = append(errs, sink.RecordStatus(s))
	}
	return errors.Join(errs...)
}

// RecordAction forwards action outcomes.
func (m *MultiSink) RecordAction(ev ActionOutcome) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ActionRecorder); ok {
			errs = append(errs, rec.RecordAction(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordRealtimeEvent forwards realtime traffic.
func (m *MultiSink) RecordRealtimeEvent(ev RealtimeEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(RealtimeRecorder); ok {
			errs = append(errs, rec.RecordRealtimeEvent(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordConnection forwards link transitions.
func (m *MultiSink) RecordConnection(ev ConnectionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ConnectionRecorder); ok {
			errs = append(errs, rec.RecordConnection(ev))
		}
	}
	return errors.Join(errs...)
}

// RecordSchedule forwards schedule replacements.
func (m *MultiSink) RecordSchedule(ev ScheduleSample) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(ScheduleRecorder); ok {
			errs = append(errs, rec.RecordSchedule(ev))
		}
	}
	return errors.Join(errs...)
}
