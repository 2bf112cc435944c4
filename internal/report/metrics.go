package report

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foldersort/internal/logging"
	"foldersort/internal/multiplex"
)

// MetricsServer exposes a Multiplexer's per-worker snapshot as
// Prometheus gauges on an optional /metrics endpoint.
type MetricsServer struct {
	mp *multiplex.Multiplexer

	registry   *prometheus.Registry
	requests   *prometheus.GaugeVec
	successes  *prometheus.GaugeVec
	failures   *prometheus.GaugeVec
	avgLatency *prometheus.GaugeVec

	srv *http.Server
}

// NewMetricsServer builds a MetricsServer reading from mp. Callers call
// Refresh periodically (or just before Start serves a scrape) to push
// the latest snapshot into the gauges.
func NewMetricsServer(mp *multiplex.Multiplexer) *MetricsServer {
	reg := prometheus.NewRegistry()
	labels := []string{"worker"}

	s := &MetricsServer{
		mp:       mp,
		registry: reg,
		requests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "foldersort_classifier_requests_total",
			Help: "Lifetime classification requests handled by this worker.",
		}, labels),
		successes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "foldersort_classifier_successes_total",
			Help: "Lifetime successful classification requests for this worker.",
		}, labels),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "foldersort_classifier_failures_total",
			Help: "Lifetime failed classification requests for this worker.",
		}, labels),
		avgLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "foldersort_classifier_avg_latency_milliseconds",
			Help: "Average successful-call latency for this worker.",
		}, labels),
	}
	reg.MustRegister(s.requests, s.successes, s.failures, s.avgLatency)
	return s
}

// Refresh pushes the multiplexer's current per-worker snapshot into the
// gauges.
func (s *MetricsServer) Refresh() {
	for _, w := range s.mp.Snapshot() {
		s.requests.WithLabelValues(w.DisplayName).Set(float64(w.Requests))
		s.successes.WithLabelValues(w.DisplayName).Set(float64(w.Successes))
		s.failures.WithLabelValues(w.DisplayName).Set(float64(w.Failures))
		s.avgLatency.WithLabelValues(w.DisplayName).Set(float64(w.AvgLatency.Milliseconds()))
	}
}

// Start serves /metrics on addr in a background goroutine, refreshing
// the snapshot once per scrape interval until Shutdown is called.
func (s *MetricsServer) Start(addr string, refreshInterval time.Duration) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.srv = &http.Server{Addr: addr, Handler: mux}

	if refreshInterval <= 0 {
		refreshInterval = 10 * time.Second
	}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Refresh()
			case <-stop:
				return
			}
		}
	}()

	go func() {
		logging.Get(logging.CategoryReport).Info("metrics endpoint listening on %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Get(logging.CategoryReport).Warn("metrics server stopped: %v", err)
		}
		close(stop)
	}()
}

// Shutdown gracefully stops the metrics HTTP server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down metrics server: %w", err)
	}
	return nil
}
