package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome labels recorded for every inbound webhook delivery.
const (
	OutcomeProcessed = "processed"
	OutcomeUnhandled = "unhandled"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	registry      *prometheus.Registry
	webhookEvents *prometheus.CounterVec
	sinkFailures  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpay_webhook_events_total",
		Help: "Inbound processor webhook deliveries by event type and outcome.",
	}, []string{"event_type", "outcome"})
	sinkFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketpay_sink_failures_total",
		Help: "Best-effort sink deliveries that did not complete.",
	}, []string{"sink"})
	registry.MustRegister(webhookEvents, sinkFailures)

	return &Metrics{
		registry:      registry,
		webhookEvents: webhookEvents,
		sinkFailures:  sinkFailures,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) RecordSinkFailure(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}
