// Package metrics exports controller polling and entity values in the
// Prometheus text format.
//
// Metrics are registered on a private registry rather than the global
// default, so tests can create as many instances as they like. The
// collector is fed by registering HandleUpdate as a coordinator listener
// and by wrapping the entity source with InstrumentSource to count writes.
package metrics
