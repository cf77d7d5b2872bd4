// Package prometheus exposes flow metrics as a prometheus.Collector.
//
// The collector reads a metrics snapshot on every scrape; nothing is
// registered globally. [Exporter.Handler] serves a private registry holding
// only the flow metrics.
package prometheus
