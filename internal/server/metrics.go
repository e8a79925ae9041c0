package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf2xlsx_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	conversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf2xlsx_conversions_total",
			Help: "Conversions by extraction mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	conversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdf2xlsx_conversion_duration_seconds",
			Help:    "Conversion duration distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	tablesExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdf2xlsx_tables_extracted",
			Help:    "Tables found per successful conversion",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	rateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf2xlsx_rate_limited_total",
			Help: "Conversion requests rejected by the rate limiter",
		},
	)
)
