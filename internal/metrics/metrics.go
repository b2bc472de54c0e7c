package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FulfillmentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbridge_fulfillments_created_total",
		Help: "Total number of fulfillments successfully created.",
	},
		[]string{"kind"},
	)

	FulfillmentsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbridge_fulfillments_completed_total",
		Help: "Total number of fulfillments that reached the completed state.",
	},
		[]string{"kind"},
	)

	DeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodbridge_delivery_failures_total",
		Help: "Total number of delivery failure reports.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbridge_operation_errors_total",
		Help: "Total number of errors encountered during fulfillment operations.",
	},
		[]string{"operation"},
	)

	NotificationsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodbridge_notifications_dropped_total",
		Help: "Total number of notification events that failed to dispatch.",
	})
)
