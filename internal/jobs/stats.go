package jobs

import (
	"context"
	"time"

	"github.com/Dan9191/daily-diet/internal/metrics"
	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/sirupsen/logrus"
)

const statsTimeout = 10 * time.Second

// StatsSource reports store-wide totals
type StatsSource interface {
	Stats(ctx context.Context) (models.Stats, error)
}

// StatsJob publishes user and meal totals to the metrics gauges
type StatsJob struct {
	source  StatsSource
	metrics *metrics.Metrics
	log     *logrus.Logger
}

func NewStatsJob(source StatsSource, m *metrics.Metrics, log *logrus.Logger) *StatsJob {
	return &StatsJob{source: source, metrics: m, log: log}
}

// Run collects totals once. On failure the gauges keep their last value.
func (j *StatsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	stats, err := j.source.Stats(ctx)
	if err != nil {
		j.log.WithError(err).Warn("Failed to collect stats")
		return
	}
	j.metrics.SetTotals(stats)
	j.log.WithFields(logrus.Fields{"users": stats.Users, "meals": stats.Meals}).Debug("Stats collected")
}
