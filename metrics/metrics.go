// Package metrics exposes prometheus collectors for the HTTP surface and the post lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topicbbs_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "topicbbs_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	Engagements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topicbbs_engagements_total",
		Help: "Engagement attempts by action (like, dislike, comment) and outcome.",
	}, []string{"action", "outcome"})

	PostsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topicbbs_posts_expired_total",
		Help: "Posts moved from Live to Expired by access-time recomputation.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
