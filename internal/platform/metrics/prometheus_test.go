package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_RecordPurchase(t *testing.T) {
	m := NewMetricsCollector(nil)

	m.RecordPurchase(20*time.Millisecond, nil)
	m.RecordPurchase(5*time.Millisecond, shared.CapacityExceeded("lead sold out"))
	m.RecordPurchase(5*time.Millisecond, shared.CapacityExceeded("lead sold out"))
	m.RecordPurchase(time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchases.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.purchases.WithLabelValues("capacity_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchases.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.purchaseDuration))
}

func TestMetricsCollector_RechargesAndOutbox(t *testing.T) {
	m := NewMetricsCollector(nil)

	m.RecordRecharge(OutcomeSuccess)
	m.RecordRecharge(OutcomeFailed)
	m.RecordOutboxPublish(nil)
	m.RecordOutboxPublish(errors.New("mongo down"))
	m.RecordOutboxPublish(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recharges.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.outboxPublished.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxPublished.WithLabelValues(OutcomeError)))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(nil)
	m.RecordPurchase(time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.GetHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `marketplace_purchases_total{outcome="success"} 1`))
	assert.Contains(t, body, "marketplace_purchase_duration_seconds_bucket")
}
