package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChartsRendered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sts_charts",
		Name:      "charts_rendered_total",
		Help:      "Total charts rendered, by output type.",
	}, []string{"output"})
	ChartFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sts_charts",
		Name:      "chart_failures_total",
		Help:      "Total failed generate requests, by pipeline stage.",
	}, []string{"stage"})
	RenderSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sts_charts",
		Name:      "chart_render_seconds",
		Help:      "Time spent in the chart engine, by output type.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"output"})
	ArtifactsStored = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sts_charts",
		Name:      "artifacts_stored_total",
		Help:      "Total chart images uploaded to the object store.",
	})
	ArtifactBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sts_charts",
		Name:      "artifact_bytes_total",
		Help:      "Total bytes uploaded to the object store.",
	})
)

// Pipeline stages used as the ChartFailures label.
const (
	StageValidate = "validate"
	StageRender   = "render"
	StageStore    = "store"
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(ChartsRendered, ChartFailures, RenderSeconds, ArtifactsStored, ArtifactBytes)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// AddrFromEnv returns listen address from METRICS_ADDR or default ":9090".
func AddrFromEnv() string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return ":9090"
}
