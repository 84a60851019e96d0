package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelationshipMutations counts completed ledger mutations by relation and operation.
	RelationshipMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_relationship_mutations_total",
		Help: "Total number of follow and favorite mutations",
	}, []string{"relation", "operation"})

	// FavoriteResyncs counts favorite-count recomputations by outcome.
	FavoriteResyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_favorite_resyncs_total",
		Help: "Total number of article favorites count resyncs",
	}, []string{"outcome"})

	// EventPublishFailures counts relationship events that could not be published.
	EventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conduit_event_publish_failures_total",
		Help: "Total number of relationship events that failed to publish",
	})

	// CacheLookups counts username cache lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_cache_lookups_total",
		Help: "Total number of username cache lookups",
	}, []string{"result"})
)
