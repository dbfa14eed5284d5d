package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics counts forecast requests and their outcomes on its own registry.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastPrice *prometheus.GaugeVec
}

// New creates a metrics set registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_oracle_requests_total",
				Help: "Forecast requests by outcome",
			},
			[]string{"status"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "price_oracle_failures_total",
				Help: "Failed forecast requests by failure kind and reason",
			},
			[]string{"kind", "reason"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "price_oracle_pipeline_duration_seconds",
				Help:    "Duration of forecast pipeline runs in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "price_oracle_last_request_price",
				Help: "Last normalized price of the most recently forecast item of each app",
			},
			[]string{"app_id"},
		),
	}
}

// RecordSuccess records a completed forecast. The price gauge is keyed by
// app only, so it holds the item of the latest request for that app.
func (m *Metrics) RecordSuccess(appID string, lastPrice float64, d time.Duration) {
	m.requests.WithLabelValues("ok").Inc()
	m.duration.WithLabelValues("ok").Observe(d.Seconds())
	m.lastPrice.WithLabelValues(appID).Set(lastPrice)
}

// RecordFailure records a failed forecast.
func (m *Metrics) RecordFailure(kind, reason string, d time.Duration) {
	m.requests.WithLabelValues("error").Inc()
	m.failures.WithLabelValues(kind, reason).Inc()
	m.duration.WithLabelValues("error").Observe(d.Seconds())
}

// RecordBusy counts a request rejected because the chat already has one in flight.
func (m *Metrics) RecordBusy() {
	m.requests.WithLabelValues("busy").Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
