package chart

// Window is a fixed-capacity FIFO. Pushing past capacity evicts the oldest
// element.
type Window[T any] struct {
	items []T
	cap   int
}

// NewWindow returns an empty window holding at most capacity items.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window[T]{items: make([]T, 0, capacity), cap: capacity}
}

// Push appends v, evicting the oldest item when full. It reports whether an
// item was evicted.
func (w *Window[T]) Push(v T) bool {
	evicted := false
	if len(w.items) >= w.cap {
		var zero T
		copy(w.items, w.items[1:])
		w.items[len(w.items)-1] = zero
		w.items = w.items[:len(w.items)-1]
		evicted = true
	}
	w.items = append(w.items, v)
	return evicted
}

// Items returns a copy of the window contents, oldest first.
func (w *Window[T]) Items() []T {
	return append([]T(nil), w.items...)
}

func (w *Window[T]) Len() int { return len(w.items) }
func (w *Window[T]) Cap() int { return w.cap }
