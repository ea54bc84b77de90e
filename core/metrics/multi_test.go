package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordSink struct {
	status, actions int
	err             error
}

func (r *recordSink) RecordStatus(StatusSample) error {
	r.status++
	return r.err
}

func (r *recordSink) RecordAction(ActionOutcome) error {
	r.actions++
	return r.err
}

type statusOnly struct{ n int }

func (s *statusOnly) RecordStatus(StatusSample) error {
	s.n++
	return nil
}

// TestMultiSink ensures observations reach every sink supporting them.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &statusOnly{}
	m := NewMultiSink(s1, s2)

	assert.NoError(t, m.RecordStatus(StatusSample{}))
	assert.NoError(t, m.RecordAction(ActionOutcome{Action: "generate"}))
	assert.NoError(t, m.RecordRealtimeEvent(RealtimeEvent{Name: "live_update"}))

	assert.Equal(t, 1, s1.status)
	assert.Equal(t, 1, s1.actions)
	assert.Equal(t, 1, s2.n)
}

/*
TestMultiSink_ContinuesAfterError checks a failing sink does not starve the
others.

	Cases:
	- first sink fails, second still records
	- the returned error wraps the failure
*/
func TestMultiSink_ContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	bad := &recordSink{err: boom}
	good := &recordSink{}
	m := NewMultiSink(bad, good)

	err := m.RecordStatus(StatusSample{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, good.status)
}
