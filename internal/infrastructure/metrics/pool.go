package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"inventra/internal/infrastructure/storage/postgres"
)

// PoolStatsSource is satisfied by *postgres.Pool.
type PoolStatsSource interface {
	Stats() postgres.PoolStats
}

// RegisterPool exports connection pool gauges read at scrape time.
func (m *Metrics) RegisterPool(src PoolStatsSource) {
	if m == nil || src == nil {
		return
	}
	gauge := func(name, help string, read func(postgres.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(src.Stats()) })
	}
	m.registry.MustRegister(
		gauge("total_conns", "Open connections.", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) }),
		gauge("acquired_conns", "Connections in use.", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) }),
		gauge("idle_conns", "Idle connections.", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) }),
		gauge("max_conns", "Configured pool size.", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) }),
	)
}
