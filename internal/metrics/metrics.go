// Package metrics exposes Prometheus counters for poll cycles, fetches and deliveries.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shanehull/racealert/internal/types"
)

const namespace = "racealert"

type Metrics struct {
	registry *prometheus.Registry

	alerts          *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	pagesFetched    *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	persistFailures prometheus.Counter
	seenKeys        prometheus.Gauge
	lastCycle       prometheus.Gauge
	cycleDuration   prometheus.Histogram
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Alerts produced, by kind.",
		}, []string{"kind"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Page fetches that failed and were skipped, by source.",
		}, []string{"source"}),
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Pages fetched and scanned, by source.",
		}, []string{"source"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Delivery attempts, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Matches that could not be written to the seen set.",
		}),
		seenKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "seen_keys",
			Help:      "Keys in the seen set.",
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last poll cycle finished.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one poll cycle.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120},
		}),
	}

	reg.MustRegister(
		m.alerts,
		m.fetchFailures,
		m.pagesFetched,
		m.notifications,
		m.persistFailures,
		m.seenKeys,
		m.lastCycle,
		m.cycleDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordAlert(kind types.AlertKind) {
	m.alerts.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordFetch(src types.Source, err error) {
	if err != nil {
		m.fetchFailures.WithLabelValues(string(src)).Inc()
		return
	}
	m.pagesFetched.WithLabelValues(string(src)).Inc()
}

// RecordNotification satisfies notify.Recorder.
func (m *Metrics) RecordNotification(channel string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *Metrics) RecordPersistFailures(n int) {
	m.persistFailures.Add(float64(n))
}

func (m *Metrics) SetSeenKeys(n int) {
	m.seenKeys.Set(float64(n))
}

func (m *Metrics) RecordCycle(started, finished time.Time) {
	m.lastCycle.Set(float64(finished.Unix()))
	m.cycleDuration.Observe(finished.Sub(started).Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown failed", "error", err)
		}
	}()

	slog.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
