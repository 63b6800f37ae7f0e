package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PolicyDecisionsTotal tracks the number of policy decisions
	PolicyDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegisgate_policy_decisions_total",
			Help: "Total number of policy decisions",
		},
		[]string{"decision"},
	)

	// ApprovalRequestsTotal tracks approval requests by lifecycle status
	ApprovalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegisgate_approval_requests_total",
			Help: "Total number of approval request state transitions",
		},
		[]string{"status"},
	)

	// ApprovalSweepsTotal tracks expiry sweep runs
	ApprovalSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aegisgate_approval_sweeps_total",
			Help: "Total number of approval expiry sweeps",
		},
	)

	// ScopeClassificationsTotal tracks path classifications by result
	ScopeClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegisgate_scope_classifications_total",
			Help: "Total number of path scope classifications",
		},
		[]string{"scope"},
	)
)
