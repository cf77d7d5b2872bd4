// Package otel publishes flow metrics through OpenTelemetry observable
// instruments.
//
// One Int64ObservableCounter is created per flow counter and one
// Int64ObservableGauge per histogram bucket. A single callback reads the
// metrics snapshot on each collection. Callers own the MeterProvider.
package otel
