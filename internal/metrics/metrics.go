// Package metrics declares the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthlab_analysis_total",
			Help: "Face analyses by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	AnalysisLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "truthlab_analysis_latency_seconds",
			Help:    "Latency of the remote analysis call",
			Buckets: []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider"},
	)

	CertificatesRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "truthlab_certificates_rendered_total",
			Help: "Certificates rendered",
		},
	)

	CertificateRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthlab_certificate_rejected_total",
			Help: "Certificate requests rejected by validation",
		},
		[]string{"reason"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthlab_session_transitions_total",
			Help: "Session state transitions by target state",
		},
		[]string{"state"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truthlab_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
)
