// Package metrics holds the Prometheus collectors of the decrypt service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AttemptsTotal counts decrypt attempts by mode and outcome.
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backupdecrypt_attempts_total",
			Help: "Total number of decrypt attempts",
		},
		[]string{"mode", "outcome"},
	)
	// AttemptDuration is the latency of decrypt attempts.
	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backupdecrypt_attempt_duration_seconds",
			Help:    "Decrypt attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
	ItemsDecrypted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backupdecrypt_items_decrypted_total",
			Help: "Total number of items decrypted",
		},
	)
	ItemsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "backupdecrypt_items_failed_total",
			Help: "Total number of items that could not be decrypted",
		},
	)
	// RequestTotal counts HTTP requests by method, path and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backupdecrypt_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backupdecrypt_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
