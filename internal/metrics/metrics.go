// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActasIngested counts records successfully ingested into the store.
	ActasIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actas_ingested_total",
		Help: "Number of acta records ingested into the store.",
	})

	// IngestFailures counts bundles that could not be ingested.
	IngestFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actas_ingest_failures_total",
		Help: "Number of raw bundles that failed to ingest.",
	})

	// AnomaliesDetected reports the anomaly count from the last quality sweep.
	AnomaliesDetected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "actas_anomalies_detected",
		Help: "Incomplete records flagged by the most recent quality sweep.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
