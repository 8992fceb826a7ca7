// Package metrics defines the telemetry contract of the scheduling service.
// Sinks such as PromSink and InfluxSink record optimization and generation
// runs and can be combined with NewMultiSink. NewMetricsSink returns a
// MultiSink automatically when several sinks are configured.
package metrics
