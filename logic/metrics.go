package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	memoryCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepchat_memory_cache_hits_total",
		Help: "Total number of memory cache hits",
	})

	memoryCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "deepchat_memory_cache_misses_total",
		Help: "Total number of memory cache misses",
	})

	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepchat_streams_total",
		Help: "Total number of chat streams by terminal state",
	}, []string{"status"})

	checkpointWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deepchat_checkpoint_writes_total",
		Help: "Total number of incremental assistant content writes",
	}, []string{"status"})
)

func observeMemoryCache(hit bool) {
	if hit {
		memoryCacheHits.Inc()
	} else {
		memoryCacheMisses.Inc()
	}
}
