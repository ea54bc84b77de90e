package htmlchart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/kmrl-dash/core/chart"
	"github.com/kilianp07/kmrl-dash/core/model"
)

func TestHTMLContainsSeries(t *testing.T) {
	c := New("", nil)
	c.DrawDistribution(chart.Distribution{Labels: model.DistributionLabels, Values: [3]float64{10, 5, 3}})
	c.DrawMetrics([]chart.MetricPoint{
		{Label: "08:30", Time: time.Now(), AvgDelay: 2.5, ActiveTrains: 10},
		{Label: "08:31", Time: time.Now(), AvgDelay: 3, ActiveTrains: 11},
	})

	html, err := c.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, PageTitle)
	assert.Contains(t, html, "Fleet Distribution")
	assert.Contains(t, html, "Maintenance")
	assert.Contains(t, html, chart.SeriesAvgDelay)
	assert.Contains(t, html, "08:31")
}

func TestPersistsPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "charts.html")
	c := New(path, nil, WithWriteDelay(10*time.Millisecond))
	c.DrawDistribution(chart.Distribution{Labels: model.DistributionLabels, Values: [3]float64{1, 2, 3}})

	require.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(b), "Fleet Distribution")
	}, 2*time.Second, 10*time.Millisecond)
}

/*
Cases:
- draws return before anything is written
- the distribution and metrics draws of one update land in one write
- Flush writes the pending page immediately
*/
func TestDrawsAreCoalescedOffTheCaller(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.html")
	c := New(path, nil, WithWriteDelay(time.Hour))

	c.DrawDistribution(chart.Distribution{Labels: model.DistributionLabels, Values: [3]float64{4, 5, 6}})
	c.DrawMetrics([]chart.MetricPoint{{Label: "09:15", AvgDelay: 1.5, ActiveTrains: 12}})
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	c.Flush()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Fleet Distribution")
	assert.Contains(t, string(b), "09:15")

	require.NoError(t, os.Remove(path))
	c.Flush()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing pending after a flush")
}

func TestRendersWithoutData(t *testing.T) {
	html, err := New("", nil).HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "Performance Metrics")
}

func TestImplementsChartSurfaces(t *testing.T) {
	var c any = New("", nil)
	_, ok := c.(chart.DistributionSurface)
	assert.True(t, ok)
	_, ok = c.(chart.MetricsSurface)
	assert.True(t, ok)
}
