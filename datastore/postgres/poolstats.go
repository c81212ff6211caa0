package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Stat is the subset of [*pgxpool.Stat] reported as metrics.
type stat interface {
	AcquireCount() int64
	AcquireDuration() time.Duration
	AcquiredConns() int32
	CanceledAcquireCount() int64
	ConstructingConns() int32
	EmptyAcquireCount() int64
	IdleConns() int32
	MaxConns() int32
	TotalConns() int32
}

var (
	_ stat                 = (*pgxpool.Stat)(nil)
	_ prometheus.Collector = (*poolCollector)(nil)
)

// PoolMetric describes one value read out of a [stat].
type poolMetric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(stat) float64
}

var poolMetrics = []poolMetric{
	{
		desc: prometheus.NewDesc("pgxpool_acquire_count",
			"Cumulative count of successful acquires from the pool.",
			poolLabels, nil),
		kind:  prometheus.CounterValue,
		value: func(s stat) float64 { return float64(s.AcquireCount()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_acquire_duration_seconds_total",
			"Total duration of all successful acquires from the pool.",
			poolLabels, nil),
		kind:  prometheus.CounterValue,
		value: func(s stat) float64 { return s.AcquireDuration().Seconds() },
	},
	{
		desc: prometheus.NewDesc("pgxpool_acquired_conns",
			"Number of currently acquired connections in the pool.",
			poolLabels, nil),
		kind:  prometheus.GaugeValue,
		value: func(s stat) float64 { return float64(s.AcquiredConns()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_canceled_acquire_count",
			"Cumulative count of acquires from the pool that were canceled by a context.",
			poolLabels, nil),
		kind:  prometheus.CounterValue,
		value: func(s stat) float64 { return float64(s.CanceledAcquireCount()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_constructing_conns",
			"Number of conns with construction in progress in the pool.",
			poolLabels, nil),
		kind:  prometheus.GaugeValue,
		value: func(s stat) float64 { return float64(s.ConstructingConns()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_empty_acquire",
			"Cumulative count of successful acquires that waited because the pool was empty.",
			poolLabels, nil),
		kind:  prometheus.CounterValue,
		value: func(s stat) float64 { return float64(s.EmptyAcquireCount()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_idle_conns",
			"Number of currently idle conns in the pool.",
			poolLabels, nil),
		kind:  prometheus.GaugeValue,
		value: func(s stat) float64 { return float64(s.IdleConns()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_max_conns",
			"Maximum size of the pool.",
			poolLabels, nil),
		kind:  prometheus.GaugeValue,
		value: func(s stat) float64 { return float64(s.MaxConns()) },
	},
	{
		desc: prometheus.NewDesc("pgxpool_total_conns",
			"Total number of resources currently in the pool.",
			poolLabels, nil),
		kind:  prometheus.GaugeValue,
		value: func(s stat) float64 { return float64(s.TotalConns()) },
	},
}

var poolLabels = []string{"application_name"}

// PoolCollector is a [prometheus.Collector] reporting [pgxpool.Stat] values.
type poolCollector struct {
	name string
	stat func() stat
}

func newPoolCollector(p *pgxpool.Pool, name string) *poolCollector {
	return &poolCollector{
		name: name,
		stat: func() stat { return p.Stat() },
	}
}

// Describe implements [prometheus.Collector].
func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range poolMetrics {
		ch <- m.desc
	}
}

// Collect implements [prometheus.Collector].
func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	for _, m := range poolMetrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(s), c.name)
	}
}
