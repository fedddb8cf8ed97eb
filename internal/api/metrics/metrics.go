// Package metrics defines all custom Prometheus metrics for the identity
// platform. It is the single source of truth for metric names, labels, and
// help strings; metrics register themselves with the default registry at
// import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Session metrics ───────────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts by outcome.
// Label:
//   - outcome: "created" (fresh session), "reused" (device-bound idempotent
//     replay), "invalid_credentials", "account_gone", "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of platform user sign-in attempts, by outcome.",
	},
	[]string{"outcome"},
)

// SessionsCreatedTotal counts freshly minted sessions.
var SessionsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions created.",
	},
)

// SessionsExpiredTotal counts sessions observed expired and lazily deleted.
var SessionsExpiredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_expired_total",
		Help:      "Total number of sessions removed by the lazy expiry sweep.",
	},
)

// SessionsTerminatedTotal counts explicit sign-out terminations.
var SessionsTerminatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_terminated_total",
		Help:      "Total number of sessions terminated by explicit sign-out.",
	},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// RollbacksTotal counts compensating deletes after a failed dependent-entity
// creation.
// Labels:
//   - entity: "user" or "app"
//   - outcome: "ok" (primary removed, creation reported as failed) or
//     "failed" (rollback itself failed, store is inconsistent)
var RollbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rollbacks_total",
		Help:      "Total number of registration rollbacks, by entity and outcome.",
	},
	[]string{"entity", "outcome"},
)

// CascadeFailuresTotal counts best-effort cleanup steps that left records
// behind during deactivation fan-out.
// Label:
//   - step: "sessions" or "projections"
var CascadeFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cascade_failures_total",
		Help:      "Total number of records left behind by best-effort deactivation cleanup.",
	},
	[]string{"step"},
)

// ZombieDetectionsTotal counts credentials found pointing at principals that
// no longer exist or are deactivated.
// Labels:
//   - principal: "user" or "app"
//   - state: "missing" (hard-deleted) or "inactive" (soft-deleted)
var ZombieDetectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "zombie_detections_total",
		Help:      "Total number of zombie/orphan credential detections.",
	},
	[]string{"principal", "state"},
)

// AccessKeyResetsTotal counts application access-key reset attempts.
// Label:
//   - outcome: "ok", "invalid_credentials", "error"
var AccessKeyResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_key_resets_total",
		Help:      "Total number of application access-key reset attempts, by outcome.",
	},
	[]string{"outcome"},
)

// AuditEventsTotal counts audit events processed by the async audit trail.
// Label:
//   - action: the audit action name (e.g. "user.created")
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events processed, by action.",
	},
	[]string{"action"},
)

// AuditQueueDepth tracks the current number of audit events waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
