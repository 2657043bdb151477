package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wmutunga/zephyr/pkg/util/logger"
)

// PrometheusRecorder is the Prometheus implementation of Recorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	providerRequests *prometheus.CounterVec
	pagesFetched     prometheus.Counter
	quotaWaits       prometheus.Counter
	quotaWaitSeconds prometheus.Counter
	stageDuration    *prometheus.HistogramVec
	stageRows        *prometheus.CounterVec

	server *http.Server
}

// NewPrometheusRecorder creates a recorder with its own registry, including
// the Go and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zephyr_provider_requests_total",
			Help: "Total requests issued to upstream providers.",
		}, []string{"provider"}),
		pagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zephyr_openaq_pages_fetched_total",
			Help: "Total OpenAQ time-series pages retrieved.",
		}),
		quotaWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zephyr_openaq_quota_waits_total",
			Help: "Total quota-exhaustion waits.",
		}),
		quotaWaitSeconds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zephyr_openaq_quota_wait_seconds_total",
			Help: "Total seconds spent waiting on quota resets.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zephyr_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		stageRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zephyr_stage_rows_total",
			Help: "Rows produced per pipeline stage.",
		}, []string{"stage"}),
	}
	registry.MustRegister(r.providerRequests, r.pagesFetched, r.quotaWaits, r.quotaWaitSeconds, r.stageDuration, r.stageRows)
	return r
}

func (r *PrometheusRecorder) IncProviderRequest(provider string) {
	r.providerRequests.WithLabelValues(provider).Inc()
}

func (r *PrometheusRecorder) IncPageFetched() {
	r.pagesFetched.Inc()
}

func (r *PrometheusRecorder) IncQuotaWait(d time.Duration) {
	r.quotaWaits.Inc()
	r.quotaWaitSeconds.Add(d.Seconds())
}

func (r *PrometheusRecorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *PrometheusRecorder) AddRows(stage string, n int) {
	r.stageRows.WithLabelValues(stage).Add(float64(n))
}

// Serve exposes the registry on addr until the context is cancelled. It
// returns immediately; the listener runs in the background for the duration
// of the run.
func (r *PrometheusRecorder) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	r.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Infof("metrics: listening on %s", addr)
		if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics: listener failed: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.server.Shutdown(shutdownCtx)
	}()
}

var _ Recorder = (*PrometheusRecorder)(nil)
