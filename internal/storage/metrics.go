package storage

import "github.com/prometheus/client_golang/prometheus"

// Registry is the Prometheus registry the package's pager collectors are
// registered on, once at package init; every Pager in the process updates
// the same collectors. cmd/minidb-inspect exposes it over /metrics; cmd/minidb never serves
// it, so these collectors simply accumulate for the lifetime of the process.
var Registry = prometheus.NewRegistry()

var (
	pageReadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pager_page_reads_total",
		Help: "Pages served from the in-memory cache or loaded from disk.",
	})
	cacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pager_cache_misses_total",
		Help: "Page reads that required a disk read.",
	})
	pagesAllocatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pager_pages_allocated_total",
		Help: "Pages materialized by GetPage beyond the previous high-water mark.",
	})
	flushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pager_flushes_total",
		Help: "Pages written back to disk at Close.",
	})
	cacheOccupancy = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pager_cache_occupancy",
		Help: "Number of page frames currently cached.",
	})
)

func init() {
	Registry.MustRegister(pageReadsTotal, cacheMissesTotal, pagesAllocatedTotal, flushesTotal, cacheOccupancy)
}
