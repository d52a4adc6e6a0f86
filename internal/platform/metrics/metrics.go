// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

var (
	WebhookDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardly_webhook_dispatches_total",
			Help: "Dispatch calls that matched at least one subscription",
		},
		[]string{"event"},
	)

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardly_webhook_deliveries_total",
			Help: "Outbound webhook delivery attempts by outcome",
		},
		[]string{"event", "outcome"},
	)

	WebhookDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardly_webhook_delivery_duration_seconds",
			Help:    "Duration of a single outbound webhook POST",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardly_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	EmbedBootstraps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardly_embed_bootstraps_total",
			Help: "Embed state resolutions by widget kind and resulting state",
		},
		[]string{"kind", "state"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "boardly_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
