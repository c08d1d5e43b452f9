// Package prometheus renders authcore metrics in Prometheus text
// exposition format.
//
// [NewExporter] accepts an [authcore.Engine] and exposes an [net/http.Handler]
// that renders every counter and histogram. Counter names are prefixed
// authcore_*_total; the single histogram is
// authcore_authenticate_latency_seconds.
//
// The package never registers anything in a global Prometheus registry;
// callers mount the Handler themselves.
package prometheus
