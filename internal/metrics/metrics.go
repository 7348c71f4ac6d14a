// Package metrics holds the counters for one ingest process. The CLI writes
// them in node-exporter textfile format when METRICS_FILE is set.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type Registry struct {
	reg *prometheus.Registry

	LeaguesUpserted prometheus.Counter
	ClubsUpserted   prometheus.Counter
	TransferRows    *prometheus.CounterVec // outcome: upserted, skipped, dropped
	Resolutions     *prometheus.CounterVec // result: hit, found, created, failed
	RunDurationSec  prometheus.Gauge
	LastSuccessUnix prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	leagues := prometheus.NewCounter(prometheus.CounterOpts{Name: "transfers_ingest_leagues_upserted_total"})
	clubs := prometheus.NewCounter(prometheus.CounterOpts{Name: "transfers_ingest_clubs_upserted_total"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "transfers_ingest_rows_total"}, []string{"outcome"})
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "transfers_ingest_resolutions_total"}, []string{"result"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{Name: "transfers_ingest_run_duration_seconds"})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{Name: "transfers_ingest_last_success_timestamp_seconds"})

	r.MustRegister(leagues, clubs, rows, resolutions, duration, lastSuccess)
	return &Registry{
		reg:             r,
		LeaguesUpserted: leagues,
		ClubsUpserted:   clubs,
		TransferRows:    rows,
		Resolutions:     resolutions,
		RunDurationSec:  duration,
		LastSuccessUnix: lastSuccess,
	}
}

// WriteTextfile writes every metric to path atomically.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
