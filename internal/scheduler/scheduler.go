package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mobilitydash/mobility-data-aggregation/internal/logger"
	"github.com/mobilitydash/mobility-data-aggregation/internal/mobility"
	"github.com/mobilitydash/mobility-data-aggregation/internal/store"
)

// Scheduler periodically rebuilds the snapshot for the configured location,
// keeping the history store populated and the fallback cache warm.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	aggregator *mobility.Aggregator
	history    *store.MemoryStore
	location   string
	interval   time.Duration
	log        logger.Logger
}

// New creates a Scheduler.
func New(agg *mobility.Aggregator, history *store.MemoryStore, location string, interval time.Duration, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		aggregator: agg,
		history:    history,
		location:   location,
		interval:   interval,
		log:        log,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. The first run fires immediately so the history store is not
// empty until the first interval elapses.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).StartImmediately().Do(func() {
		started := time.Now()
		s.log.Info("snapshot refresh started", logger.String("location", s.location))

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		snap := s.aggregator.Build(ctx, s.location)
		s.history.SaveSnapshot(snap)

		s.log.Info("snapshot refresh completed",
			logger.String("location", s.location),
			logger.Any("source_status", snap.SourceStatus),
			logger.Duration("elapsed", time.Since(started)))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
