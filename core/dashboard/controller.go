package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kilianp07/kmrl-dash/core/api"
	"github.com/kilianp07/kmrl-dash/core/chart"
	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/logger"
	"github.com/kilianp07/kmrl-dash/core/modal"
	"github.com/kilianp07/kmrl-dash/core/model"
	"github.com/kilianp07/kmrl-dash/core/notify"
	"github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/core/view"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"
)

// DetailsModalID identifies the train details dialog.
const DetailsModalID = "trainDetailsModal"

// ErrTrainNotFound is returned by ShowTrainDetails for an unknown train.
var ErrTrainNotFound = errors.New("train not found")

// API is the backend surface used by the controller. *api.Client implements
// it.
type API interface {
	SystemStatus(ctx context.Context) (model.StatusPatch, error)
	CurrentSchedule(ctx context.Context) ([]model.ScheduleRow, error)
	GenerateData(ctx context.Context, req api.GenerateRequest) (string, error)
	OptimizeSchedule(ctx context.Context, req api.OptimizeRequest) (api.OptimizeResult, error)
	PredictDelays(ctx context.Context, in model.PredictInput) (model.Prediction, error)
	WhatIf(ctx context.Context, sc model.Scenario) (json.RawMessage, error)
	DownloadSchedule(ctx context.Context) (io.ReadCloser, error)
}

// Controller orchestrates the dashboard. Every write to the state cell and
// the matching render happen under one mutex, so the rendered state is the
// last write.
type Controller struct {
	api     API
	cfg     Config
	notes   *notify.Queue
	modals  *modal.Controller
	charts  *chart.Renderer
	channel realtime.Channel
	bus     *eventbus.TypedBus[events.Event]
	log     logger.Logger
	now     func() time.Time
	loc     *time.Location

	toasts  toasters
	dialogs modalSurfaces
	dists   distributionSurfaces
	metrics metricsSurfaces

	mu          sync.Mutex
	status      model.SystemStatus
	schedule    []model.ScheduleRow
	connected   bool
	busy        int
	clock       string
	prediction  *model.Prediction
	whatIf      json.RawMessage
	statusViews []view.StatusSurface
	tables      []view.TableSurface
	links       []view.ConnectionSurface
	overlays    []view.BusySurface
	clocks      []view.ClockSurface
	results     []view.ResultSurface
}

// Option configures a Controller.
type Option func(*Controller)

// WithConfig sets the controller settings. Defaults are applied to cfg.
func WithConfig(cfg Config) Option {
	return func(c *Controller) {
		cfg.SetDefaults()
		c.cfg = cfg
	}
}

// WithQueue uses q for notifications.
func WithQueue(q *notify.Queue) Option {
	return func(c *Controller) {
		if q != nil {
			c.notes = q
		}
	}
}

// WithModals uses m for dialogs.
func WithModals(m *modal.Controller) Option {
	return func(c *Controller) {
		if m != nil {
			c.modals = m
		}
	}
}

// WithCharts uses r for the charts.
func WithCharts(r *chart.Renderer) Option {
	return func(c *Controller) {
		if r != nil {
			c.charts = r
		}
	}
}

// WithChannel sets the realtime channel driven by Run.
func WithChannel(ch realtime.Channel) Option {
	return func(c *Controller) { c.channel = ch }
}

// WithBus publishes dashboard events to b.
func WithBus(b *eventbus.TypedBus[events.Event]) Option {
	return func(c *Controller) { c.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.log = logger.OrNop(l) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the time zone of the header clock.
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// New creates a controller talking to backend.
func New(backend API, opts ...Option) *Controller {
	c := &Controller{
		api: backend,
		log: logger.NopLogger{},
		now: time.Now,
	}
	c.cfg.SetDefaults()
	for _, o := range opts {
		o(c)
	}
	if c.loc == nil {
		loc, err := view.LoadLocation(c.cfg.Timezone)
		if err != nil {
			c.log.Warnf("dashboard: unknown timezone %q, using IST: %v", c.cfg.Timezone, err)
			loc = view.IST()
		}
		c.loc = loc
	}
	if c.notes == nil {
		c.notes = notify.New(notify.WithClock(c.now))
	}
	if c.modals == nil {
		c.modals = modal.NewController(nil)
	}
	if c.charts == nil {
		c.charts = chart.NewRenderer(chart.WithClock(c.now), chart.WithLocation(c.loc))
	}
	c.modals.Register(DetailsModalID, view.TrainDetailsTitle, "", "close")
	c.clock = view.ClockLabel(c.now(), c.loc)
	return c
}

// Notifications returns the notification queue.
func (c *Controller) Notifications() *notify.Queue { return c.notes }

// Modals returns the modal controller.
func (c *Controller) Modals() *modal.Controller { return c.modals }

// Charts returns the chart renderer.
func (c *Controller) Charts() *chart.Renderer { return c.charts }

// AddTarget attaches a rendering target. t may implement any of the view
// surfaces, notify.Toaster, modal.Surface and the chart surfaces; it is
// attached to each one it implements and immediately receives the current
// state.
func (c *Controller) AddTarget(t any) {
	if s, ok := t.(notify.Toaster); ok && c.toasts.add(s) {
		c.notes.SetToaster(&c.toasts)
	}
	if s, ok := t.(modal.Surface); ok && c.dialogs.add(s) {
		c.modals.SetSurface(&c.dialogs)
	}
	if s, ok := t.(chart.DistributionSurface); ok && c.dists.add(s) {
		c.charts.AddSurface(&c.dists)
	}
	if s, ok := t.(chart.MetricsSurface); ok && c.metrics.add(s) {
		c.charts.AddSurface(&c.metrics)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := t.(view.StatusSurface); ok {
		c.statusViews = append(c.statusViews, s)
		s.RenderStatus(view.StatCards(c.status), view.Health(c.status.SystemHealth))
	}
	if s, ok := t.(view.TableSurface); ok {
		c.tables = append(c.tables, s)
		s.RenderSchedule(view.ScheduleTable(c.schedule))
	}
	if s, ok := t.(view.ConnectionSurface); ok {
		c.links = append(c.links, s)
		s.RenderConnection(view.Connection(c.connected))
	}
	if s, ok := t.(view.BusySurface); ok {
		c.overlays = append(c.overlays, s)
		s.SetBusy(c.busy > 0)
	}
	if s, ok := t.(view.ClockSurface); ok {
		c.clocks = append(c.clocks, s)
		s.RenderClock(c.clock)
	}
	if s, ok := t.(view.ResultSurface); ok {
		c.results = append(c.results, s)
	}
}

// State is a point in time copy of everything the dashboard displays.
type State struct {
	Status        model.SystemStatus    `json:"status"`
	Health        view.HealthBadge      `json:"health"`
	Cards         []view.StatCard       `json:"cards"`
	Schedule      []model.ScheduleRow   `json:"schedule"`
	Table         []view.TableRow       `json:"table"`
	Connection    view.ConnectionBadge  `json:"connection"`
	Busy          bool                  `json:"busy"`
	Clock         string                `json:"clock"`
	Notifications []notify.Notification `json:"notifications"`
	Pending       int                   `json:"pending_notifications"`
	Modals        []string              `json:"modals"`
	Distribution  chart.Distribution    `json:"distribution"`
	Points        []chart.MetricPoint   `json:"points"`
	Summary       chart.Summary         `json:"summary"`
	Prediction    *model.Prediction     `json:"prediction,omitempty"`
	WhatIf        json.RawMessage       `json:"whatif,omitempty"`
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	st := State{
		Status:     c.status,
		Health:     view.Health(c.status.SystemHealth),
		Cards:      view.StatCards(c.status),
		Schedule:   append([]model.ScheduleRow(nil), c.schedule...),
		Table:      view.ScheduleTable(c.schedule),
		Connection: view.Connection(c.connected),
		Busy:       c.busy > 0,
		Clock:      c.clock,
		Prediction: c.prediction,
		WhatIf:     c.whatIf,
	}
	c.mu.Unlock()
	st.Notifications = c.notes.Displayed()
	st.Pending = c.notes.Pending()
	st.Modals = c.modals.Visible()
	st.Distribution = c.charts.Distribution()
	st.Points = c.charts.Points()
	st.Summary = c.charts.Summary()
	return st
}

// Status returns the merged system status.
func (c *Controller) Status() model.SystemStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Schedule returns a copy of the schedule.
func (c *Controller) Schedule() []model.ScheduleRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ScheduleRow(nil), c.schedule...)
}

// Connected reports the realtime link state.
func (c *Controller) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Busy reports whether an action or bootstrap is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy > 0
}

// applyStatus merges p into the status cell, then redraws the stat cards and
// both charts from the merged value.
func (c *Controller) applyStatus(p model.StatusPatch, source string) model.SystemStatus {
	c.mu.Lock()
	c.status = c.status.Apply(p)
	st := c.status
	cards, health := view.StatCards(st), view.Health(st.SystemHealth)
	for _, s := range c.statusViews {
		s.RenderStatus(cards, health)
	}
	c.charts.Update(st)
	c.mu.Unlock()
	c.publish(events.StatusChanged{Status: st, Source: source, Time: c.now()})
	return st
}

// replaceSchedule swaps the whole schedule and redraws the table.
func (c *Controller) replaceSchedule(rows []model.ScheduleRow, source string) {
	c.mu.Lock()
	c.schedule = append([]model.ScheduleRow(nil), rows...)
	table := view.ScheduleTable(c.schedule)
	for _, s := range c.tables {
		s.RenderSchedule(table)
	}
	c.mu.Unlock()
	c.publish(events.ScheduleReplaced{Rows: len(rows), Source: source, Time: c.now()})
}

// setConnected records the link state and reports whether it changed.
func (c *Controller) setConnected(up bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.connected != up
	c.connected = up
	badge := view.Connection(up)
	for _, s := range c.links {
		s.RenderConnection(badge)
	}
	return changed
}

// setBusy counts overlapping operations; the overlay shows while any runs.
func (c *Controller) setBusy(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	before := c.busy > 0
	if on {
		c.busy++
	} else if c.busy > 0 {
		c.busy--
	}
	after := c.busy > 0
	if before == after {
		return
	}
	for _, s := range c.overlays {
		s.SetBusy(after)
	}
}

func (c *Controller) tick() {
	label := view.ClockLabel(c.now(), c.loc)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = label
	for _, s := range c.clocks {
		s.RenderClock(label)
	}
}

// redrawCharts pushes the current status to both charts.
func (c *Controller) redrawCharts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.charts.Update(c.status)
}

func (c *Controller) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}
