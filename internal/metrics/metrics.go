// Package metrics holds the prometheus collectors shared by the LFG components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fireteam"

var (
	// StoreSaves counts snapshot writes by result ("ok" or "error").
	StoreSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "saves_total",
		Help:      "Snapshot saves by result.",
	}, []string{"result"})

	// EventChanges counts committed changes by kind.
	EventChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "changes_total",
		Help:      "Committed event changes by kind.",
	}, []string{"kind"})

	// SchedulerActions counts due actions by kind and outcome (performed, stale, failed).
	SchedulerActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "actions_total",
		Help:      "Scheduled actions by kind and outcome.",
	}, []string{"kind", "outcome"})

	SchedulerPending = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "pending_actions",
		Help:      "Actions waiting to fire.",
	}, []string{"guild"})

	// ViewOperations counts sink calls by operation and result.
	ViewOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "views",
		Name:      "operations_total",
		Help:      "Message sink operations by op and result.",
	}, []string{"op", "result"})

	ViewReconciles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "views",
		Name:      "reconciles_total",
		Help:      "Channel reconciliations by reason.",
	}, []string{"reason"})

	ViewBackpressure = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "views",
		Name:      "backpressure_total",
		Help:      "Times a producer found a channel queue full.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "sent_total",
		Help:      "Alert notifications by result.",
	}, []string{"result"})
)

// Result maps an error to the "ok"/"error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
