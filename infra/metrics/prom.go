package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/kmrl-dash/core/metrics"
	"github.com/kilianp07/kmrl-dash/core/model"
)

// PromSink exposes dashboard observations as Prometheus metrics.
type PromSink struct {
	trains    *prometheus.GaugeVec
	avgDelay  prometheus.Gauge
	health    prometheus.Gauge
	connected prometheus.Gauge
	rows      prometheus.Gauge
	events    *prometheus.CounterVec
	actions   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewPromSink registers the dashboard metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics that
// are already registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.trains, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kmrl_fleet_trains",
		Help: "Number of trains per operational state",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	if s.avgDelay, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kmrl_avg_delay_minutes",
		Help: "Fleet average delay in minutes",
	})); err != nil {
		return nil, err
	}
	if s.health, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kmrl_system_health",
		Help: "System health: 0 good, 1 warning, 2 critical",
	})); err != nil {
		return nil, err
	}
	if s.connected, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kmrl_realtime_connected",
		Help: "1 while the realtime channel is connected",
	})); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kmrl_schedule_rows",
		Help: "Rows in the current schedule",
	})); err != nil {
		return nil, err
	}
	if s.events, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kmrl_realtime_events_total",
		Help: "Inbound realtime events by name",
	}, []string{"event"})); err != nil {
		return nil, err
	}
	if s.actions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kmrl_dashboard_actions_total",
		Help: "Dashboard actions by outcome",
	}, []string{"action", "success"})); err != nil {
		return nil, err
	}
	if s.durations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kmrl_dashboard_action_duration_seconds",
		Help:    "Time spent in a dashboard action, request included",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStatus sets the fleet gauges.
func (s *PromSink) RecordStatus(ev coremetrics.StatusSample) error {
	st := ev.Status
	s.trains.WithLabelValues("active").Set(float64(st.ActiveTrains))
	s.trains.WithLabelValues("standby").Set(float64(st.StandbyTrains))
	s.trains.WithLabelValues("maintenance").Set(float64(st.MaintenanceTrains))
	s.avgDelay.Set(st.AvgDelay)
	s.health.Set(healthValue(st.SystemHealth))
	return nil
}

// RecordAction counts the action and observes its duration.
func (s *PromSink) RecordAction(ev coremetrics.ActionOutcome) error {
	s.actions.WithLabelValues(ev.Action, strconv.FormatBool(ev.Success)).Inc()
	s.durations.WithLabelValues(ev.Action).Observe(ev.Duration.Seconds())
	return nil
}

// RecordRealtimeEvent counts inbound events.
func (s *PromSink) RecordRealtimeEvent(ev coremetrics.RealtimeEvent) error {
	s.events.WithLabelValues(ev.Name).Inc()
	return nil
}

// RecordConnection sets the link gauge.
func (s *PromSink) RecordConnection(ev coremetrics.ConnectionEvent) error {
	if ev.Connected {
		s.connected.Set(1)
	} else {
		s.connected.Set(0)
	}
	return nil
}

// RecordSchedule sets the schedule size gauge.
func (s *PromSink) RecordSchedule(ev coremetrics.ScheduleSample) error {
	s.rows.Set(float64(ev.Rows))
	return nil
}

func healthValue(h model.Health) float64 {
	switch h {
	case model.HealthGood:
		return 0
	case model.HealthWarning:
		return 1
	default:
		return 2
	}
}
