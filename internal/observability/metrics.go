// Package observability exposes the Prometheus metrics of the share engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TradesExecuted counts trade rows by kind (primary or secondary).
var TradesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coopshares",
	Subsystem: "marketplace",
	Name:      "trades_total",
	Help:      "Total executed trades by kind.",
}, []string{"kind"})

// SharesTraded counts shares moved by trades.
var SharesTraded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coopshares",
	Subsystem: "marketplace",
	Name:      "shares_traded_total",
	Help:      "Total shares transferred by kind.",
}, []string{"kind"})

// MarketplaceRejections counts failed purchases by reason.
var MarketplaceRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coopshares",
	Subsystem: "marketplace",
	Name:      "rejections_total",
	Help:      "Total rejected marketplace operations by reason.",
}, []string{"reason"})

// ListingTransitions counts listing lifecycle events.
var ListingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coopshares",
	Subsystem: "marketplace",
	Name:      "listing_events_total",
	Help:      "Total listing events by type.",
}, []string{"event"})

// ProjectsFinalized counts finalizations that changed state, split by payout path.
var ProjectsFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "coopshares",
	Subsystem: "allocation",
	Name:      "projects_finalized_total",
	Help:      "Total projects finalized by path.",
}, []string{"path"})

// SharesAllocated counts shares credited by finalization.
var SharesAllocated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "coopshares",
	Subsystem: "allocation",
	Name:      "shares_allocated_total",
	Help:      "Total shares credited to contributors.",
})

// LockWait tracks time spent acquiring coordination locks.
var LockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "coopshares",
	Subsystem: "coordination",
	Name:      "lock_wait_seconds",
	Help:      "Time spent waiting for an operation lock.",
	Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
}, []string{"scope", "outcome"})

// HTTPRequests tracks request latency by route template and status.
var HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "coopshares",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
