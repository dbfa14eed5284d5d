package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"PriceOracle/internal/recorder"
)

// Scheduler manages the periodic maintenance tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Recorder  recorder.Recorder
	Retention time.Duration
	now       func() time.Time
}

// NewScheduler creates a scheduler that keeps retentionDays of request history.
func NewScheduler(rec recorder.Recorder, retentionDays int) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Recorder:  rec,
		Retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
	}
}

// RegisterAll registers the history prune task. A zero retention disables it.
func (s *Scheduler) RegisterAll(pruneCron string) error {
	if s.Retention <= 0 {
		log.Info().Msg("history retention disabled, prune task not registered")
		return nil
	}
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneTask); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunPruneNow executes the prune task immediately.
func (s *Scheduler) RunPruneNow() {
	s.pruneTask()
}

func (s *Scheduler) pruneTask() {
	cutoff := s.now().Add(-s.Retention)
	n, err := s.Recorder.Prune(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("prune request history")
		return
	}
	log.Info().Int64("removed", n).Time("before", cutoff).Msg("request history pruned")
}
