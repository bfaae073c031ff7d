package cachestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachestore_hits_total",
	Help: "Number of fetches served from a fresh cache entry",
})

var cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachestore_misses_total",
	Help: "Number of fetches that found no fresh cache entry",
})

var cacheRefreshes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachestore_refreshes_total",
	Help: "Number of successful upstream refreshes",
})

var cacheRefreshErrors = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachestore_refresh_errors_total",
	Help: "Number of failed upstream refreshes",
})

var cacheStaleServed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cachestore_stale_served_total",
	Help: "Number of fetches that fell back to a stale entry after an upstream failure",
})
