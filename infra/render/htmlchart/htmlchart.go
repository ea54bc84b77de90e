// Package htmlchart draws the dashboard charts as an HTML page with
// go-echarts: a fleet distribution pie and the rolling metrics line chart.
package htmlchart

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/kmrl-dash/core/chart"
	"github.com/kilianp07/kmrl-dash/core/logger"
	"github.com/kilianp07/kmrl-dash/pkg/export"
)

// PageTitle is the HTML page title.
const PageTitle = "KMRL Fleet Charts"

// DefaultWriteDelay groups the draws of one status update into one write.
const DefaultWriteDelay = 100 * time.Millisecond

// Charts keeps the last drawn chart data. It implements
// chart.DistributionSurface and chart.MetricsSurface. When a path is set the
// page is rewritten in the background once the draws of an update settle;
// draws never touch the disk.
type Charts struct {
	mu      sync.Mutex
	dist    chart.Distribution
	points  []chart.MetricPoint
	timer   *time.Timer
	writeMu sync.Mutex

	path  string
	delay time.Duration
	log   logger.Logger
}

// Option configures Charts.
type Option func(*Charts)

// WithWriteDelay overrides DefaultWriteDelay.
func WithWriteDelay(d time.Duration) Option {
	return func(c *Charts) { c.delay = d }
}

// New returns a chart target. path may be empty to keep the page in memory
// only.
func New(path string, log logger.Logger, opts ...Option) *Charts {
	c := &Charts{path: path, delay: DefaultWriteDelay, log: logger.OrNop(log)}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DrawDistribution records d.
func (c *Charts) DrawDistribution(d chart.Distribution) {
	c.mu.Lock()
	c.dist = d
	c.scheduleLocked()
	c.mu.Unlock()
}

// DrawMetrics records the series.
func (c *Charts) DrawMetrics(points []chart.MetricPoint) {
	c.mu.Lock()
	c.points = append([]chart.MetricPoint(nil), points...)
	c.scheduleLocked()
	c.mu.Unlock()
}

// Flush writes a pending page now.
func (c *Charts) Flush() {
	c.mu.Lock()
	pending := c.timer != nil && c.timer.Stop()
	c.timer = nil
	c.mu.Unlock()
	if pending {
		c.persist()
	}
}

func (c *Charts) scheduleLocked() {
	if c.path == "" || c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.timer = nil
		c.mu.Unlock()
		c.persist()
	})
}

// Render writes the chart page to w.
func (c *Charts) Render(w io.Writer) error {
	c.mu.Lock()
	dist := c.dist
	points := append([]chart.MetricPoint(nil), c.points...)
	c.mu.Unlock()

	page := components.NewPage()
	page.PageTitle = PageTitle
	page.AddCharts(distributionPie(dist), metricsLine(points))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return nil
}

// HTML returns the rendered page.
func (c *Charts) HTML() (string, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Charts) persist() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		c.log.Errorf("htmlchart: %v", err)
		return
	}
	if _, err := export.SaveFile(filepath.Dir(c.path), filepath.Base(c.path), &buf); err != nil {
		c.log.Errorf("htmlchart: write %s: %v", c.path, err)
	}
}

func distributionPie(d chart.Distribution) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Fleet Distribution"}),
	)
	data := make([]opts.PieData, 0, len(d.Labels))
	for i, label := range d.Labels {
		data = append(data, opts.PieData{Name: label, Value: d.Values[i]})
	}
	pie.AddSeries("Trains", data)
	return pie
}

func metricsLine(points []chart.MetricPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Performance Metrics"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
	)
	labels := make([]string, 0, len(points))
	delays := make([]opts.LineData, 0, len(points))
	active := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Label)
		delays = append(delays, opts.LineData{Value: p.AvgDelay})
		active = append(active, opts.LineData{Value: p.ActiveTrains})
	}
	line.SetXAxis(labels).
		AddSeries(chart.SeriesAvgDelay, delays).
		AddSeries(chart.SeriesActiveTrains, active)
	return line
}
