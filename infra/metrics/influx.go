package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/kmrl-dash/core/metrics"
	"github.com/kilianp07/kmrl-dash/infra/logger"
)

const writeTimeout = 5 * time.Second

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes dashboard observations to InfluxDB using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink configured for the given endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: writeTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStatus writes a fleet_status point.
func (s *InfluxSink) RecordStatus(ev coremetrics.StatusSample) error {
	st := ev.Status
	p := write.NewPointWithMeasurement("fleet_status").
		AddTag("source", ev.Source).
		AddTag("system_health", st.SystemHealth.String()).
		AddField("active_trains", st.ActiveTrains).
		AddField("standby_trains", st.StandbyTrains).
		AddField("maintenance_trains", st.MaintenanceTrains).
		AddField("avg_delay", round3(st.AvgDelay)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAction writes a dashboard_action point.
func (s *InfluxSink) RecordAction(ev coremetrics.ActionOutcome) error {
	p := write.NewPointWithMeasurement("dashboard_action").
		AddTag("action", ev.Action).
		AddTag("success", strconv.FormatBool(ev.Success)).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordRealtimeEvent writes a realtime_event point.
func (s *InfluxSink) RecordRealtimeEvent(ev coremetrics.RealtimeEvent) error {
	p := write.NewPointWithMeasurement("realtime_event").
		AddTag("event", ev.Name).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordConnection writes a realtime_connection point.
func (s *InfluxSink) RecordConnection(ev coremetrics.ConnectionEvent) error {
	p := write.NewPointWithMeasurement("realtime_connection").
		AddField("connected", ev.Connected).
		AddField("reason", ev.Reason).
		SetTime(ev.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
