package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ServantsActive tracks the number of servants bound in each adapter
	ServantsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orb_servants_active",
			Help: "Number of servants currently active in an adapter",
		},
		[]string{"adapter"},
	)

	// ActivationsTotal tracks servant activations per adapter
	ActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orb_activations_total",
			Help: "Total number of servant activations",
		},
		[]string{"adapter", "lifespan"},
	)

	// DeactivationsTotal tracks servant deactivations per adapter
	DeactivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orb_deactivations_total",
			Help: "Total number of servant deactivations",
		},
		[]string{"adapter"},
	)

	// DispatchTotal tracks requests dispatched to servants
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orb_dispatch_total",
			Help: "Total number of requests dispatched to servants",
		},
		[]string{"adapter", "operation", "outcome"},
	)

	// DispatchLatency tracks servant dispatch latency
	DispatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orb_dispatch_latency_seconds",
			Help:    "Servant dispatch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"adapter", "operation"},
	)

	// InvocationsTotal tracks outbound remote calls by result
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orb_invocations_total",
			Help: "Total number of outbound remote invocations",
		},
		[]string{"operation", "result"},
	)

	// InvocationRetriesTotal tracks automatic retries of transient faults
	InvocationRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orb_invocation_retries_total",
			Help: "Total number of retries after transient faults",
		},
		[]string{"operation"},
	)

	// NamingOperationsTotal tracks naming service operations per backend
	NamingOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orb_naming_operations_total",
			Help: "Total number of naming service operations",
		},
		[]string{"backend", "operation", "outcome"},
	)
)
