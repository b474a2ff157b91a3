package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts handled HTTP requests by method, path and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// CatalogLookupsTotal counts catalog API calls by outcome ("ok" / "unavailable").
	CatalogLookupsTotal *prometheus.CounterVec

	// SessionsEstablishedTotal counts successful logins.
	SessionsEstablishedTotal prometheus.Counter

	// ForbiddenMutationsTotal counts task mutations rejected by the ownership check.
	ForbiddenMutationsTotal prometheus.Counter
)

var initOnce sync.Once

// InitMetrics registers all collectors. Safe to call more than once;
// tests call it freely.
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apirick_http_requests_total",
			Help: "Handled HTTP requests.",
		}, []string{"method", "path", "status"})

		CatalogLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apirick_catalog_lookups_total",
			Help: "Character catalog lookups by outcome.",
		}, []string{"outcome"})

		SessionsEstablishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "apirick_sessions_established_total",
			Help: "Sessions established via login.",
		})

		ForbiddenMutationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "apirick_forbidden_mutations_total",
			Help: "Task mutations rejected because the caller is not the owner.",
		})

		prometheus.MustRegister(
			HTTPRequestsTotal,
			CatalogLookupsTotal,
			SessionsEstablishedTotal,
			ForbiddenMutationsTotal,
		)
	})
}
