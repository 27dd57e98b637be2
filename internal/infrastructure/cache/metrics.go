package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	cacheCoalescedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_coalesced_loads_total",
			Help: "Total number of cache misses that shared an in-flight load",
		},
		[]string{"tier"},
	)
)
