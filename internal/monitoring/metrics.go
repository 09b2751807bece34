package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matiks_monitor_cycles_total",
			Help: "Aggregation cycles by result",
		},
		[]string{"result"},
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matiks_monitor_cycle_duration_seconds",
			Help:    "Aggregation cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	sourceRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matiks_monitor_source_rows",
			Help: "Rows kept from each source in the last cycle",
		},
		[]string{"source"},
	)

	sourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matiks_monitor_source_failures_total",
			Help: "Sources that exhausted their retries",
		},
		[]string{"source"},
	)

	datasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matiks_monitor_dataset_rows",
			Help: "Rows in the historical table after the last successful cycle",
		},
	)

	sentimentRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matiks_monitor_sentiment_rows",
			Help: "Rows in the historical table by sentiment label",
		},
		[]string{"label"},
	)
)

// Metrics is the in-memory view of the last cycle served on /status
type Metrics struct {
	TotalMentions      int            `json:"total_mentions"`
	NewMentions        int            `json:"new_mentions"`
	AddedMentions      int            `json:"added_mentions"`
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	LastRunOK          bool           `json:"last_run_ok"`
	SourceMetrics      map[string]int `json:"source_metrics"`
	SentimentBreakdown map[string]int `json:"sentiment_breakdown"`
	ErrorCount         int            `json:"error_count"`
	Cycles             int            `json:"cycles"`
}
