package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blackfeed_fetch_success_total",
		Help: "Total number of successful feed fetches",
	})
	fetchFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blackfeed_fetch_failure_total",
		Help: "Total number of failed feed fetches",
	})
	indicatorsSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blackfeed_indicators_saved_total",
		Help: "Total number of indicators upserted from feeds",
	})
	indicatorsBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blackfeed_indicators_blocked_total",
		Help: "Total number of feed candidates suppressed by the whitelist",
	})
	exportCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blackfeed_export_cycles_total",
		Help: "Total number of completed export cycles",
	})
	exportFilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blackfeed_export_files_total",
		Help: "Total number of shard files written",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		fetchSuccessTotal,
		fetchFailureTotal,
		indicatorsSavedTotal,
		indicatorsBlockedTotal,
		exportCyclesTotal,
		exportFilesTotal,
	)
}

// IncFetchSuccess increments the successful fetch counter.
func IncFetchSuccess() { fetchSuccessTotal.Inc() }

// IncFetchFailure increments the failed fetch counter.
func IncFetchFailure() { fetchFailureTotal.Inc() }

// AddIndicatorsSaved adds n to the upserted indicators counter.
func AddIndicatorsSaved(n int) { indicatorsSavedTotal.Add(float64(n)) }

// IncIndicatorBlocked increments the suppressed candidates counter.
func IncIndicatorBlocked() { indicatorsBlockedTotal.Inc() }

// IncExportCycle increments the completed export cycles counter.
func IncExportCycle() { exportCyclesTotal.Inc() }

// IncExportFile increments the written shard files counter.
func IncExportFile() { exportFilesTotal.Inc() }
