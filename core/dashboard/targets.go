package dashboard

import (
	"sync"

	"github.com/kilianp07/kmrl-dash/core/chart"
	"github.com/kilianp07/kmrl-dash/core/modal"
	"github.com/kilianp07/kmrl-dash/core/notify"
)

// fan holds the targets attached for one surface kind.
type fan[T any] struct {
	mu    sync.RWMutex
	items []T
}

// add attaches v and reports whether it is the first target.
func (f *fan[T]) add(v T) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, v)
	return len(f.items) == 1
}

func (f *fan[T]) each(fn func(T)) {
	f.mu.RLock()
	items := f.items
	f.mu.RUnlock()
	for _, v := range items {
		fn(v)
	}
}

type toasters struct{ fan[notify.Toaster] }

func (t *toasters) ShowToast(n notify.Notification) {
	t.each(func(x notify.Toaster) { x.ShowToast(n) })
}

func (t *toasters) HideToast(n notify.Notification) {
	t.each(func(x notify.Toaster) { x.HideToast(n) })
}

func (t *toasters) RemoveToast(n notify.Notification) {
	t.each(func(x notify.Toaster) { x.RemoveToast(n) })
}

type modalSurfaces struct{ fan[modal.Surface] }

func (s *modalSurfaces) ShowModal(m modal.Modal) { s.each(func(x modal.Surface) { x.ShowModal(m) }) }
func (s *modalSurfaces) HideModal(m modal.Modal) { s.each(func(x modal.Surface) { x.HideModal(m) }) }

type distributionSurfaces struct{ fan[chart.DistributionSurface] }

func (s *distributionSurfaces) DrawDistribution(d chart.Distribution) {
	s.each(func(x chart.DistributionSurface) { x.DrawDistribution(d) })
}

type metricsSurfaces struct{ fan[chart.MetricsSurface] }

func (s *metricsSurfaces) DrawMetrics(points []chart.MetricPoint) {
	s.each(func(x chart.MetricsSurface) { x.DrawMetrics(points) })
}
