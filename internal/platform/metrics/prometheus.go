package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the purchase and recharge counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

// MetricsCollector owns a private registry with the marketplace counters.
type MetricsCollector struct {
	registry         *prometheus.Registry
	purchases        *prometheus.CounterVec
	purchaseDuration prometheus.Histogram
	recharges        *prometheus.CounterVec
	outboxPublished  *prometheus.CounterVec
	logger           *slog.Logger
}

// NewMetricsCollector registers every collector. A nil logger falls back to
// slog.Default.
func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		purchases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_purchases_total",
			Help: "Lead purchase attempts by outcome",
		}, []string{"outcome"}),
		purchaseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketplace_purchase_duration_seconds",
			Help:    "Time taken by the purchase transaction",
			Buckets: prometheus.DefBuckets,
		}),
		recharges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_recharges_total",
			Help: "Settled wallet recharge requests by outcome",
		}, []string{"outcome"}),
		outboxPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_outbox_published_total",
			Help: "Outbox messages mirrored to the audit store by result",
		}, []string{"result"}),
		logger: logger.With("component", "metrics"),
	}
}

// RecordPurchase counts one purchase attempt. Failed attempts are labelled
// with their error kind, so sold out leads and empty wallets can be told apart.
func (m *MetricsCollector) RecordPurchase(duration time.Duration, err error) {
	m.purchaseDuration.Observe(duration.Seconds())
	m.purchases.WithLabelValues(outcomeOf(err)).Inc()
}

// RecordRecharge counts a settled recharge message by outcome.
func (m *MetricsCollector) RecordRecharge(outcome string) {
	m.recharges.WithLabelValues(outcome).Inc()
}

// RecordOutboxPublish counts one relay attempt of an outbox message.
func (m *MetricsCollector) RecordOutboxPublish(err error) {
	result := OutcomeSuccess
	if err != nil {
		result = OutcomeError
	}
	m.outboxPublished.WithLabelValues(result).Inc()
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var de *shared.Error
	if errors.As(err, &de) {
		return strings.ToLower(string(de.Kind))
	}
	return OutcomeError
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// GetHandler serves the registry in the Prometheus text format.
func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on its own port for binaries without
// an HTTP API.
func (m *MetricsCollector) StartMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info("Starting metrics server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("Metrics server failed", "error", err)
		}
	}()

	return server
}
