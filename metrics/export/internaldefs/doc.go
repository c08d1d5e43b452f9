// Package internaldefs holds the stable metric name and bucket definitions
// shared by the exporter implementations.
//
// Counter and histogram definitions live here so the Prometheus and OTel
// exporters always agree on names and boundaries. A rename here renames the
// metric in every exporter at once.
package internaldefs
