package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fulfillment records payment-pipeline counters. A nil *Fulfillment or one
// built with a nil registerer is a no-op.
type Fulfillment struct {
	webhookEvents   *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	retries         *prometheus.CounterVec
}

// NewFulfillment registers the fulfillment metrics on the provided registerer.
func NewFulfillment(reg prometheus.Registerer) *Fulfillment {
	if reg == nil {
		return &Fulfillment{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Payment webhook notifications by transaction status and result.",
	}, []string{"status", "result"})
	gatewayRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Payment gateway transaction requests by result.",
	}, []string{"result"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of payment gateway transaction requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datastore_retries_total",
		Help: "Retried data-store operations by operation name.",
	}, []string{"operation"})
	reg.MustRegister(webhookEvents, gatewayRequests, gatewayDuration, retries)
	return &Fulfillment{
		webhookEvents:   webhookEvents,
		gatewayRequests: gatewayRequests,
		gatewayDuration: gatewayDuration,
		retries:         retries,
	}
}

func (m *Fulfillment) IncWebhook(status, result string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(status), normalizeLabel(result)).Inc()
}

func (m *Fulfillment) ObserveGateway(result string, d time.Duration) {
	if m == nil || m.gatewayRequests == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(normalizeLabel(result)).Inc()
	m.gatewayDuration.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

func (m *Fulfillment) IncRetry(operation string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
