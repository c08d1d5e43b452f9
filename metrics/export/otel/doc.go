// Package otel bridges authcore's in-process counters into an
// OpenTelemetry meter via observable instruments.
//
// The exporter registers one callback that reads a metrics snapshot on
// every collection cycle. Histogram buckets are exposed as cumulative
// gauges because the core tracks fixed buckets rather than raw samples.
package otel
