// Package metrics defines the sinks that record dashboard observations:
// status samples, action outcomes and realtime traffic. Sinks like PromSink
// and InfluxSink live in infra/metrics and register themselves with the
// factory; NewMetricsSink returns a MultiSink when several are configured.
package metrics
