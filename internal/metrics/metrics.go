// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impulse_notifications_total",
			Help: "Notification sends by kind and result.",
		},
		[]string{"kind", "result"},
	)

	SlugCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "impulse_slug_collisions_total",
			Help: "Event inserts rejected because the generated slug was taken.",
		})

	EventsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "impulse_events_created_total",
			Help: "Events created.",
		})

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "impulse_orders_created_total",
			Help: "Orders created.",
		})

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "impulse_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)
)

// Result labels for Notifications.
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)
