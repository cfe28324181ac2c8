package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potsim_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "potsim_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// StoreOperationsTotal counts slot intents by outcome: ok, rejected, error.
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potsim_store_operations_total",
			Help: "Total number of slot state operations",
		},
		[]string{"operation", "result"},
	)

	// PresetOperationsTotal counts preset saves and loads by outcome: applied, declined, missing, error.
	PresetOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potsim_preset_operations_total",
			Help: "Total number of preset save/load operations",
		},
		[]string{"operation", "result"},
	)

	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potsim_storage_operations_total",
			Help: "Total number of key-value storage operations",
		},
		[]string{"driver", "operation", "status"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "potsim_storage_operation_duration_seconds",
			Help:    "Key-value storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "operation"},
	)

	CatalogReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "potsim_catalog_reloads_total",
			Help: "Total number of catalog load attempts",
		},
		[]string{"status"},
	)

	CatalogCharacters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "potsim_catalog_characters",
			Help: "Number of characters in the loaded catalog",
		},
	)
)
