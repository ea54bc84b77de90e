package chart

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// MaxPoints is the capacity of the metrics series.
const MaxPoints = 20

// Series names of the metrics chart.
const (
	SeriesAvgDelay     = "Average Delay (min)"
	SeriesActiveTrains = "Active Trains"
)

// MetricPoint is one sample of the metrics chart.
type MetricPoint struct {
	Label        string
	Time         time.Time
	AvgDelay     float64
	ActiveTrains float64
}

// Distribution is the data of the fleet distribution chart.
type Distribution struct {
	Labels [3]string
	Values [3]float64
}

// DistributionSurface draws the distribution chart.
type DistributionSurface interface {
	DrawDistribution(d Distribution)
}

// MetricsSurface draws the metrics chart.
type MetricsSurface interface {
	DrawMetrics(points []MetricPoint)
}

// Summary holds descriptive statistics of a metrics series.
type Summary struct {
	Points       int
	MeanDelay    float64
	StdDevDelay  float64
	MeanActive   float64
	LatestDelay  float64
	LatestActive float64
}

// Renderer owns both charts.
type Renderer struct {
	mu           sync.Mutex
	distribution Distribution
	metrics      *Window[MetricPoint]
	distSurface  DistributionSurface
	metSurface   MetricsSurface
	now          func() time.Time
	loc          *time.Location
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithDistributionSurface attaches the distribution target.
func WithDistributionSurface(s DistributionSurface) RendererOption {
	return func(r *Renderer) { r.distSurface = s }
}

// WithMetricsSurface attaches the metrics target.
func WithMetricsSurface(s MetricsSurface) RendererOption {
	return func(r *Renderer) { r.metSurface = s }
}

// WithClock overrides the time source used for point labels.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the time zone of point labels.
func WithLocation(loc *time.Location) RendererOption {
	return func(r *Renderer) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// NewRenderer creates a renderer. Surfaces are optional.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		distribution: Distribution{Labels: model.DistributionLabels},
		metrics:      NewWindow[MetricPoint](MaxPoints),
		now:          time.Now,
		loc:          time.Local,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// AddSurface attaches s to every chart it can draw. Surfaces set earlier are
// replaced.
func (r *Renderer) AddSurface(s any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := s.(DistributionSurface); ok {
		r.distSurface = d
	}
	if m, ok := s.(MetricsSurface); ok {
		r.metSurface = m
	}
}

// UpdateDistribution overwrites the distribution with the status counts and
// redraws it. It returns false without touching state when no surface exists.
func (r *Renderer) UpdateDistribution(s model.SystemStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.distSurface == nil {
		return false
	}
	r.distribution.Values = s.Distribution()
	r.distSurface.DrawDistribution(r.distribution)
	return true
}

// PushMetrics samples the status into the metrics series and redraws it. It
// returns false without sampling when no surface exists.
func (r *Renderer) PushMetrics(s model.SystemStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.metSurface == nil {
		return false
	}
	now := r.now().In(r.loc)
	r.metrics.Push(MetricPoint{
		Label:        now.Format("15:04"),
		Time:         now,
		AvgDelay:     s.AvgDelay,
		ActiveTrains: float64(s.ActiveTrains),
	})
	r.metSurface.DrawMetrics(r.metrics.Items())
	return true
}

// Update redraws both charts from s.
func (r *Renderer) Update(s model.SystemStatus) (distribution, metrics bool) {
	return r.UpdateDistribution(s), r.PushMetrics(s)
}

// Distribution returns the current distribution data.
func (r *Renderer) Distribution() Distribution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.distribution
}

// Points returns the metrics series, oldest first.
func (r *Renderer) Points() []MetricPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics.Items()
}

// Summary computes statistics over the metrics series.
func (r *Renderer) Summary() Summary { return Summarize(r.Points()) }

// Summarize computes statistics over pts.
func Summarize(pts []MetricPoint) Summary {
	if len(pts) == 0 {
		return Summary{}
	}
	delays := make([]float64, len(pts))
	active := make([]float64, len(pts))
	for i, p := range pts {
		delays[i] = p.AvgDelay
		active[i] = p.ActiveTrains
	}
	sum := Summary{
		Points:       len(pts),
		MeanDelay:    stat.Mean(delays, nil),
		MeanActive:   stat.Mean(active, nil),
		LatestDelay:  delays[len(delays)-1],
		LatestActive: active[len(active)-1],
	}
	if len(pts) > 1 {
		sum.StdDevDelay = stat.StdDev(delays, nil)
	}
	return sum
}
