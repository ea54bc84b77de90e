package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingToaster struct {
	mu       sync.Mutex
	attached map[string]bool
	max      int
	shown    []string
	removed  []string
}

func newRecordingToaster() *recordingToaster {
	return &recordingToaster{attached: map[string]bool{}}
}

func (r *recordingToaster) ShowToast(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attached[n.ID] = true
	r.shown = append(r.shown, n.Message)
	if len(r.attached) > r.max {
		r.max = len(r.attached)
	}
}

func (r *recordingToaster) HideToast(Notification) {}

func (r *recordingToaster) RemoveToast(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attached, n.ID)
	r.removed = append(r.removed, n.Message)
}

func TestQueueNeverExceedsCapacity(t *testing.T) {
	clk := newFakeClock()
	toaster := newRecordingToaster()
	q := New(WithClock(clk.Now), WithToaster(toaster))

	for i := 0; i < 10; i++ {
		q.Enqueue(fmt.Sprintf("msg-%d", i), KindInfo, time.Second)
		assert.LessOrEqual(t, len(q.Displayed()), DefaultCapacity)
	}
	assert.Equal(t, 7, q.Pending())

	for step := 0; step < 200; step++ {
		clk.Advance(SweepInterval)
		q.Process()
		require.LessOrEqual(t, len(q.Displayed()), DefaultCapacity)
	}
	assert.Equal(t, DefaultCapacity, toaster.max)
	assert.Empty(t, q.Displayed())
	assert.Zero(t, q.Pending())
	assert.Len(t, toaster.removed, 10)
}

func TestQueueFIFOOrder(t *testing.T) {
	clk := newFakeClock()
	toaster := newRecordingToaster()
	q := New(WithClock(clk.Now), WithToaster(toaster), WithCapacity(1), WithTransition(0))

	q.Enqueue("first", KindInfo, time.Second)
	q.Enqueue("second", KindInfo, time.Second)
	q.Enqueue("third", KindInfo, time.Second)
	for i := 0; i < 40; i++ {
		clk.Advance(SweepInterval)
		q.Process()
	}
	assert.Equal(t, []string{"first", "second", "third"}, toaster.shown)
}

func TestNotificationNotRemovedBeforeDuration(t *testing.T) {
	clk := newFakeClock()
	q := New(WithClock(clk.Now), WithCapacity(1))

	q.Enqueue("a", KindSuccess, time.Second)
	q.Enqueue("b", KindSuccess, time.Second)

	// b waits in the queue; its display time starts when a leaves.
	clk.Advance(time.Second)
	q.Process()
	require.Len(t, q.Displayed(), 1)
	assert.Equal(t, "a", q.Displayed()[0].Message)

	clk.Advance(time.Millisecond)
	q.Process()
	clk.Advance(ExitTransition)
	q.Process()
	disp := q.Displayed()
	require.Len(t, disp, 1)
	assert.Equal(t, "b", disp[0].Message)
	shownAt := disp[0].DisplayedAt

	clk.Advance(time.Second)
	q.Process()
	require.Len(t, q.Displayed(), 1, "b must stay for its full duration")
	assert.Equal(t, shownAt, q.Displayed()[0].DisplayedAt)
}

func TestQueuedToastGetsFullDurationAfterDisplay(t *testing.T) {
	clk := newFakeClock()
	q := New(WithClock(clk.Now), WithTransition(0))

	for i := 0; i < DefaultCapacity; i++ {
		q.Enqueue(fmt.Sprintf("front-%d", i), KindInfo, time.Second)
	}
	q.Enqueue("late", KindWarning, time.Second)
	require.Equal(t, 1, q.Pending())

	// Longer than late's duration since it was created.
	clk.Advance(time.Second + time.Millisecond)
	q.Process()
	q.Process()
	disp := q.Displayed()
	require.Len(t, disp, 1)
	assert.Equal(t, "late", disp[0].Message)
	assert.Equal(t, clk.Now(), disp[0].DisplayedAt)

	clk.Advance(time.Second)
	q.Process()
	require.Len(t, q.Displayed(), 1, "late stays visible for its whole duration")

	clk.Advance(time.Millisecond)
	q.Process()
	assert.Empty(t, q.Displayed())
}

func TestLeavingToastCountsTowardCapacity(t *testing.T) {
	clk := newFakeClock()
	q := New(WithClock(clk.Now), WithCapacity(1))
	q.Enqueue("a", KindInfo, 100*time.Millisecond)
	q.Enqueue("b", KindInfo, 100*time.Millisecond)

	clk.Advance(150 * time.Millisecond)
	q.Process()
	disp := q.Displayed()
	require.Len(t, disp, 1)
	assert.Equal(t, "a", disp[0].Message, "a is sliding out and still attached")

	clk.Advance(ExitTransition)
	q.Process()
	assert.Equal(t, "b", q.Displayed()[0].Message)
}

func TestDismiss(t *testing.T) {
	clk := newFakeClock()
	q := New(WithClock(clk.Now), WithTransition(0))
	n := q.Enqueue("closable", KindWarning, time.Hour)
	assert.True(t, q.Dismiss(n.ID))
	assert.Empty(t, q.Displayed())
	assert.False(t, q.Dismiss(n.ID))
	assert.False(t, q.Dismiss("unknown"))
}

func TestDurationIsFixedAtCreation(t *testing.T) {
	clk := newFakeClock()
	q := New(WithClock(clk.Now), WithTransition(0))
	q.Enqueue("same", KindInfo, time.Second)
	clk.Advance(900 * time.Millisecond)
	q.Enqueue("same", KindInfo, time.Second)
	clk.Advance(200 * time.Millisecond)
	q.Process()
	disp := q.Displayed()
	require.Len(t, disp, 1, "identical messages are neither merged nor extended")
	assert.Equal(t, "same", disp[0].Message)
}

func TestEnqueueDefaults(t *testing.T) {
	q := New()
	n := q.Enqueue("x", Kind("bogus"), 0)
	assert.Equal(t, DefaultDuration, n.Duration)
	assert.Equal(t, KindInfo, n.Kind)
	assert.NotEmpty(t, n.ID)
}

func TestRunExpiresNotifications(t *testing.T) {
	q := New(WithTransition(0))
	q.Enqueue("short", KindInfo, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return len(q.Displayed()) == 0 }, 2*time.Second, 20*time.Millisecond)
	cancel()
	<-done
}
