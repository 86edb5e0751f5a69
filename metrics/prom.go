package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// 按结果状态统计的查询次数
	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domaincheck_lookups_total",
			Help: "RDAP 查询次数（按结果状态）",
		},
		[]string{"status"},
	)

	LookupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "domaincheck_lookup_duration_seconds",
			Help:    "单次 RDAP 查询耗时",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	LookupsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "domaincheck_lookups_in_flight",
			Help: "正在进行中的 RDAP 查询数",
		},
	)

	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domaincheck_batches_total",
			Help: "已启动的批次数（check/recheck/scheduled）",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(LookupsTotal, LookupDuration, LookupsInFlight, BatchesTotal)
}
