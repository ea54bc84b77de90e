package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/kmrl-dash/api/server"
	"github.com/kilianp07/kmrl-dash/auth"
	"github.com/kilianp07/kmrl-dash/config"
	"github.com/kilianp07/kmrl-dash/core/api"
	"github.com/kilianp07/kmrl-dash/core/dashboard"
	"github.com/kilianp07/kmrl-dash/core/events"
	"github.com/kilianp07/kmrl-dash/core/journal"
	coremetrics "github.com/kilianp07/kmrl-dash/core/metrics"
	coremon "github.com/kilianp07/kmrl-dash/core/monitoring"
	"github.com/kilianp07/kmrl-dash/core/realtime"
	"github.com/kilianp07/kmrl-dash/infra/logger"
	"github.com/kilianp07/kmrl-dash/infra/metrics"
	"github.com/kilianp07/kmrl-dash/infra/monitoring"
	"github.com/kilianp07/kmrl-dash/infra/render/htmlchart"
	"github.com/kilianp07/kmrl-dash/infra/render/terminal"
	"github.com/kilianp07/kmrl-dash/internal/eventbus"

	_ "github.com/kilianp07/kmrl-dash/infra/realtime"
)

const flushTimeout = 2 * time.Second

// Service wires the dashboard controller to its backend, transports and
// observers.
type Service struct {
	Controller *dashboard.Controller
	Charts     *htmlchart.Charts

	cfg     *config.Config
	bus     *eventbus.TypedBus[events.Event]
	sink    coremetrics.MetricsSink
	store   journal.Store
	monitor coremon.Monitor
	view    *server.Server
	log     logger.Logger
}

// Option configures a Service.
type Option func(*options)

type options struct {
	out     io.Writer
	offline bool
}

// WithTerminal draws the terminal frame to w when the view config enables it.
func WithTerminal(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithoutRealtime skips building the realtime channel.
func WithoutRealtime() Option {
	return func(o *options) { o.offline = true }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logg := logger.New("service")

	httpClient := &http.Client{Timeout: cfg.API.Timeout()}
	if cfg.API.Auth.Enabled() {
		httpClient = auth.HTTPClient(context.Background(), cfg.API.Auth, cfg.API.Timeout())
	}
	backend, err := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(httpClient),
		api.WithLogger(logger.New("api")),
	)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		closeStore(store, logg)
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	bus := eventbus.NewTyped[events.Event]()
	dopts := []dashboard.Option{
		dashboard.WithConfig(cfg.Dashboard),
		dashboard.WithBus(bus),
		dashboard.WithLogger(logger.New("dashboard")),
	}
	if cfg.Realtime.Enabled() && !o.offline {
		ch, err := realtime.NewChannel(cfg.Realtime.ModuleConfig)
		if err != nil {
			closeStore(store, logg)
			bus.Close()
			return nil, fmt.Errorf("realtime channel: %w", err)
		}
		dopts = append(dopts, dashboard.WithChannel(ch))
	}
	ctrl := dashboard.New(backend, dopts...)

	charts := htmlchart.New(cfg.View.ChartPath, logger.New("htmlchart"))
	ctrl.AddTarget(charts)
	if cfg.View.TerminalEnabled() && o.out != nil {
		ctrl.AddTarget(terminal.New(o.out, terminal.WithClearScreen(true)))
	}

	svc := &Service{
		Controller: ctrl,
		Charts:     charts,
		cfg:        cfg,
		bus:        bus,
		sink:       sink,
		store:      store,
		monitor:    monitor,
		log:        logg,
	}
	if cfg.View.Address != "" {
		svc.view = server.New(server.Options{
			State:   ctrl,
			Charts:  charts,
			Journal: store,
			Token:   cfg.View.Token,
			Log:     logger.New("view_server"),
		})
	}
	return svc, nil
}

// Run starts the observers, the servers and the dashboard, and blocks until
// ctx is cancelled and every task has stopped.
func (s *Service) Run(ctx context.Context) error {
	wait := s.startObservers(ctx)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.view != nil {
		go func() {
			if err := s.view.ListenAndServe(ctx, s.cfg.View.Address); err != nil {
				s.log.Errorf("view server: %v", err)
			}
		}()
	}
	err := s.Controller.Run(ctx)
	wait()
	return err
}

// Do runs fn against the controller with the observers attached, so one-shot
// actions are journaled, counted and monitored like interactive ones. The
// event bus is closed when fn returns; a Service runs at most one Do.
func (s *Service) Do(ctx context.Context, fn func(context.Context, *dashboard.Controller) error) error {
	wait := s.startObservers(ctx)
	err := fn(ctx, s.Controller)
	s.bus.Close()
	wait()
	return err
}

// startObservers subscribes the metrics collector, the journal recorder and
// the failure watcher. The returned func blocks until all of them exited,
// which happens once ctx is done or the bus is closed.
func (s *Service) startObservers(ctx context.Context) func() {
	done := []<-chan struct{}{
		metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("collector")),
		coremon.WatchActions(ctx, s.bus, s.monitor),
	}
	if s.store != nil {
		done = append(done, journal.StartRecorder(ctx, s.bus, s.store, logger.New("journal")))
	}
	return func() {
		for _, d := range done {
			<-d
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Charts.Flush()
	s.bus.Close()
	coremon.Flush(flushTimeout)
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func closeStore(st journal.Store, log logger.Logger) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		log.Errorf("journal close: %v", err)
	}
}
