// Package metrics exposes the bot's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

var (
	// WebhookEvents counts inbound webhook requests by event name and terminal status.
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greywaterbot_webhook_events_total",
			Help: "Webhook events handled, by event and outcome status",
		},
		[]string{"event", "status"},
	)

	// WebhookErrors counts requests answered with an error status.
	WebhookErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greywaterbot_webhook_errors_total",
			Help: "Webhook requests rejected or failed",
		},
		[]string{"reason"},
	)

	// Dispatches counts outbound Chatwoot calls by kind and result.
	Dispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greywaterbot_dispatches_total",
			Help: "Outbound chat platform calls, by kind and result",
		},
		[]string{"kind", "result"},
	)

	// LLMRequests counts completion calls by result (ok | fallback).
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greywaterbot_llm_requests_total",
			Help: "LLM completion requests",
		},
		[]string{"result"},
	)

	LLMLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "greywaterbot_llm_latency_seconds",
		Help:    "LLM request latency in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	// Handoffs counts conversations moved to a human, by trigger.
	Handoffs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "greywaterbot_handoffs_total",
			Help: "Conversations handed to a human agent",
		},
		[]string{"trigger"},
	)

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "greywaterbot_uptime_seconds",
		Help: "Time since start in seconds",
	}, func() float64 { return time.Since(startTime).Seconds() })
)

// Handler renders the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
