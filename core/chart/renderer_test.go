package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/kmrl-dash/core/model"
)

type surfaceSpy struct {
	dist    []Distribution
	metrics [][]MetricPoint
}

func (s *surfaceSpy) DrawDistribution(d Distribution) { s.dist = append(s.dist, d) }
func (s *surfaceSpy) DrawMetrics(p []MetricPoint)     { s.metrics = append(s.metrics, p) }

func TestDistributionFromStatus(t *testing.T) {
	spy := &surfaceSpy{}
	r := NewRenderer(WithDistributionSurface(spy))
	status := model.SystemStatus{ActiveTrains: 10, StandbyTrains: 5, MaintenanceTrains: 3, AvgDelay: 2.4, SystemHealth: model.HealthWarning}

	require.True(t, r.UpdateDistribution(status))
	require.Len(t, spy.dist, 1)
	assert.Equal(t, [3]float64{10, 5, 3}, spy.dist[0].Values)
	assert.Equal(t, [3]string{"Active", "Standby", "Maintenance"}, spy.dist[0].Labels)

	require.True(t, r.UpdateDistribution(model.SystemStatus{ActiveTrains: 1}))
	assert.Equal(t, [3]float64{1, 0, 0}, r.Distribution().Values, "distribution is overwritten, not accumulated")
}

func TestRenderSkippedWithoutSurface(t *testing.T) {
	r := NewRenderer()
	status := model.SystemStatus{ActiveTrains: 10}
	dist, met := r.Update(status)
	assert.False(t, dist)
	assert.False(t, met)
	assert.Empty(t, r.Points())
	assert.Equal(t, [3]float64{}, r.Distribution().Values)
}

func TestMetricsCappedAndLabelled(t *testing.T) {
	spy := &surfaceSpy{}
	now := time.Date(2025, 5, 1, 3, 0, 0, 0, time.UTC)
	ist := time.FixedZone("IST", 5*3600+1800)
	r := NewRenderer(WithMetricsSurface(spy), WithLocation(ist), WithClock(func() time.Time { return now }))

	for i := 0; i < 30; i++ {
		require.True(t, r.PushMetrics(model.SystemStatus{AvgDelay: float64(i), ActiveTrains: i}))
		now = now.Add(time.Minute)
	}
	pts := r.Points()
	require.Len(t, pts, MaxPoints)
	assert.Equal(t, 10.0, pts[0].AvgDelay, "oldest points are evicted first")
	assert.Equal(t, 29.0, pts[len(pts)-1].ActiveTrains)
	assert.Equal(t, "08:40", pts[0].Label)
	assert.Len(t, spy.metrics[len(spy.metrics)-1], MaxPoints)
}

func TestAddSurface(t *testing.T) {
	r := NewRenderer()
	r.AddSurface(&surfaceSpy{})
	d, m := r.Update(model.SystemStatus{})
	assert.True(t, d)
	assert.True(t, m)
}

func TestSummary(t *testing.T) {
	r := NewRenderer(WithMetricsSurface(&surfaceSpy{}))
	assert.Equal(t, Summary{}, r.Summary())
	r.PushMetrics(model.SystemStatus{AvgDelay: 2, ActiveTrains: 10})
	r.PushMetrics(model.SystemStatus{AvgDelay: 4, ActiveTrains: 12})
	s := r.Summary()
	assert.Equal(t, 2, s.Points)
	assert.InDelta(t, 3.0, s.MeanDelay, 1e-9)
	assert.InDelta(t, 11.0, s.MeanActive, 1e-9)
	assert.InDelta(t, 1.41421356, s.StdDevDelay, 1e-6)
	assert.Equal(t, 4.0, s.LatestDelay)
}
