package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCapacity is the number of toasts displayed simultaneously.
	DefaultCapacity = 3
	// DefaultDuration is how long a toast stays visible.
	DefaultDuration = 5 * time.Second
	// SweepInterval is the period of the expiry/promotion pass.
	SweepInterval = 100 * time.Millisecond
	// ExitTransition is the slide-out time before a toast is detached.
	ExitTransition = 300 * time.Millisecond
)

// Kind is the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// ParseKind returns the Kind for s, defaulting to info.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSuccess, KindWarning, KindError:
		return Kind(s)
	default:
		return KindInfo
	}
}

// Notification is a single toast message.
type Notification struct {
	ID          string        `json:"id"`
	Message     string        `json:"message"`
	Kind        Kind          `json:"kind"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
	DisplayedAt time.Time     `json:"displayed_at,omitempty"`
}

// Toaster is the display surface for notifications.
type Toaster interface {
	// ShowToast attaches the toast and starts its entry transition.
	ShowToast(n Notification)
	// HideToast starts the exit transition.
	HideToast(n Notification)
	// RemoveToast detaches the toast once the exit transition is over.
	RemoveToast(n Notification)
}

type entry struct {
	n       Notification
	leaving bool
	leaveAt time.Time
}

// Queue holds pending and displayed notifications.
type Queue struct {
	mu         sync.Mutex
	pending    []Notification
	shown      []*entry
	capacity   int
	transition time.Duration
	now        func() time.Time
	toaster    Toaster
}

// Option configures a Queue.
type Option func(*Queue)

// WithCapacity overrides the number of simultaneously displayed toasts.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// WithClock sets the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithToaster sets the display surface.
func WithToaster(t Toaster) Option {
	return func(q *Queue) { q.toaster = t }
}

// WithTransition overrides the exit transition length.
func WithTransition(d time.Duration) Option {
	return func(q *Queue) {
		if d >= 0 {
			q.transition = d
		}
	}
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		capacity:   DefaultCapacity,
		transition: ExitTransition,
		now:        time.Now,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// SetToaster replaces the display surface.
func (q *Queue) SetToaster(t Toaster) {
	q.mu.Lock()
	q.toaster = t
	q.mu.Unlock()
}

// Enqueue appends a notification and runs a display pass. A non-positive
// duration selects DefaultDuration.
func (q *Queue) Enqueue(message string, kind Kind, duration time.Duration) Notification {
	if duration <= 0 {
		duration = DefaultDuration
	}
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      ParseKind(string(kind)),
		Duration:  duration,
		CreatedAt: q.now(),
	}
	q.mu.Lock()
	q.pending = append(q.pending, n)
	q.mu.Unlock()
	q.Process()
	return n
}

func (q *Queue) Info(msg string)    { q.Enqueue(msg, KindInfo, 0) }
func (q *Queue) Success(msg string) { q.Enqueue(msg, KindSuccess, 0) }
func (q *Queue) Warning(msg string) { q.Enqueue(msg, KindWarning, 0) }
func (q *Queue) Error(msg string)   { q.Enqueue(msg, KindError, 0) }

type toastCall struct {
	n    Notification
	kind int
}

const (
	callShow = iota
	callHide
	callRemove
)

// Process expires displayed notifications and promotes pending ones while
// below capacity. Toasts in their exit transition still count as displayed.
func (q *Queue) Process() {
	q.mu.Lock()
	now := q.now()
	var calls []toastCall
	kept := q.shown[:0]
	for _, e := range q.shown {
		if !e.leaving && now.Sub(e.n.DisplayedAt) > e.n.Duration {
			e.leaving = true
			e.leaveAt = now.Add(q.transition)
			calls = append(calls, toastCall{e.n, callHide})
		}
		if e.leaving && !now.Before(e.leaveAt) {
			calls = append(calls, toastCall{e.n, callRemove})
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(q.shown); i++ {
		q.shown[i] = nil
	}
	q.shown = kept
	for len(q.shown) < q.capacity && len(q.pending) > 0 {
		n := q.pending[0]
		q.pending[0] = Notification{}
		q.pending = q.pending[1:]
		n.DisplayedAt = now
		q.shown = append(q.shown, &entry{n: n})
		calls = append(calls, toastCall{n, callShow})
	}
	t := q.toaster
	q.mu.Unlock()

	if t == nil {
		return
	}
	for _, c := range calls {
		switch c.kind {
		case callShow:
			t.ShowToast(c.n)
		case callHide:
			t.HideToast(c.n)
		case callRemove:
			t.RemoveToast(c.n)
		}
	}
}

// Dismiss starts the exit transition of a displayed notification, as the
// toast close button does. It reports whether the id was displayed.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	var hit *entry
	for _, e := range q.shown {
		if e.n.ID == id && !e.leaving {
			hit = e
			break
		}
	}
	if hit != nil {
		hit.leaving = true
		hit.leaveAt = q.now().Add(q.transition)
	}
	t := q.toaster
	q.mu.Unlock()
	if hit == nil {
		return false
	}
	if t != nil {
		t.HideToast(hit.n)
	}
	q.Process()
	return true
}

// Displayed returns the notifications currently attached, oldest first.
func (q *Queue) Displayed() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.shown))
	for i, e := range q.shown {
		out[i] = e.n
	}
	return out
}

// Pending returns the number of notifications waiting for a display slot.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run sweeps the queue every SweepInterval until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Process()
		}
	}
}
