// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Identity resolution
	ResolverLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cheatreport_resolver_lookups_total",
		Help: "Identity lookups by source and outcome (success, failure)",
	}, []string{"source", "outcome"})
	ResolverRacesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cheatreport_resolver_races_total",
		Help: "Completed identity resolution races by outcome (resolved, all_failed)",
	}, []string{"outcome"})
	ResolverLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cheatreport_resolver_latency_seconds",
		Help:    "Time until an identity resolution race reaches a decision",
		Buckets: prometheus.DefBuckets,
	})

	// Event bus
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cheatreport_events_published_total",
		Help: "Domain events accepted by the bus",
	}, []string{"kind"})
	EventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cheatreport_events_dropped_total",
		Help: "Domain events dropped because the bus queue was full or closed",
	}, []string{"kind"})
	SubscriberFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cheatreport_subscriber_failures_total",
		Help: "Subscriber errors and panics caught during event fan-out",
	}, []string{"subscriber", "kind"})

	// Case lifecycle
	StatusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cheatreport_status_transitions_total",
		Help: "Case status changes by target status",
	}, []string{"to"})
)
