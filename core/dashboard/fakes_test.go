package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/kilianp07/kmrl-dash/core/api"
	"github.com/kilianp07/kmrl-dash/core/chart"
	"github.com/kilianp07/kmrl-dash/core/modal"
	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/core/notify"
	"github.com/kilianp07/kmrl-dash/core/view"
)

var testNow = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

type fakeAPI struct {
	mu sync.Mutex

	status      model.StatusPatch
	statusErr   error
	statusCalls int
	schedule    []model.ScheduleRow
	scheduleErr error

	generated   []api.GenerateRequest
	generateErr error

	optimized   []api.OptimizeRequest
	optimizeRes api.OptimizeResult
	optimizeErr error

	predicted  []model.PredictInput
	prediction model.Prediction
	predictErr error

	scenarios []model.Scenario
	whatIf    json.RawMessage
	whatIfErr error

	csv         string
	downloadErr error
}

func (f *fakeAPI) SystemStatus(context.Context) (model.StatusPatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeAPI) CurrentSchedule(context.Context) ([]model.ScheduleRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedule, f.scheduleErr
}

func (f *fakeAPI) GenerateData(_ context.Context, req api.GenerateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated = append(f.generated, req)
	return "ok", f.generateErr
}

func (f *fakeAPI) OptimizeSchedule(_ context.Context, req api.OptimizeRequest) (api.OptimizeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optimized = append(f.optimized, req)
	return f.optimizeRes, f.optimizeErr
}

func (f *fakeAPI) PredictDelays(_ context.Context, in model.PredictInput) (model.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predicted = append(f.predicted, in)
	return f.prediction, f.predictErr
}

func (f *fakeAPI) WhatIf(_ context.Context, sc model.Scenario) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scenarios = append(f.scenarios, sc)
	return f.whatIf, f.whatIfErr
}

func (f *fakeAPI) DownloadSchedule(context.Context) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return io.NopCloser(bytes.NewBufferString(f.csv)), nil
}

// recorder implements every surface the controller renders to.
type recorder struct {
	mu          sync.Mutex
	cards       []view.StatCard
	health      view.HealthBadge
	tables      [][]view.TableRow
	connection  []bool
	busy        []bool
	clock       string
	prediction  string
	whatIf      string
	toasts      []notify.Notification
	modals      []string
	dist        []chart.Distribution
	metricDraws int
	lastPoints  []chart.MetricPoint
}

func (r *recorder) RenderStatus(cards []view.StatCard, h view.HealthBadge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards, r.health = cards, h
}

func (r *recorder) RenderSchedule(rows []view.TableRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = append(r.tables, rows)
}

func (r *recorder) RenderConnection(c view.ConnectionBadge) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connection = append(r.connection, c.Connected)
}

func (r *recorder) SetBusy(b bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = append(r.busy, b)
}

func (r *recorder) RenderClock(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = label
}

func (r *recorder) RenderPrediction(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prediction = text
}

func (r *recorder) RenderWhatIf(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whatIf = text
}

func (r *recorder) ShowToast(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, n)
}

func (r *recorder) HideToast(notify.Notification)   {}
func (r *recorder) RemoveToast(notify.Notification) {}

func (r *recorder) ShowModal(m modal.Modal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modals = append(r.modals, m.ID+":"+m.Content)
}

func (r *recorder) HideModal(modal.Modal) {}

func (r *recorder) DrawDistribution(d chart.Distribution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dist = append(r.dist, d)
}

func (r *recorder) DrawMetrics(points []chart.MetricPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metricDraws++
	r.lastPoints = points
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.toasts))
	for i, n := range r.toasts {
		out[i] = string(n.Kind) + ":" + n.Message
	}
	return out
}

func (r *recorder) lastTable() []view.TableRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tables) == 0 {
		return nil
	}
	return r.tables[len(r.tables)-1]
}

func (r *recorder) busyTrail() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.busy...)
}

// newTestController returns a controller with a roomy notification queue
// and rec attached as its only target.
func newTestController(f *fakeAPI, opts ...Option) (*Controller, *recorder) {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithQueue(notify.New(notify.WithCapacity(64), notify.WithClock(func() time.Time { return testNow }))),
	}
	c := New(f, append(base, opts...)...)
	rec := &recorder{}
	c.AddTarget(rec)
	return c, rec
}

func ptr[T any](v T) *T { return &v }
