package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"orderclient/ordering"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs connection tests on a cron schedule
type Scheduler struct {
	tester   *Tester
	cron     *cron.Cron
	cronID   cron.EntryID
	timeout  time.Duration
	logger   logrus.FieldLogger
	onResult func(Result)

	mu   sync.Mutex
	last *Result
}

// NewScheduler creates a stopped scheduler. onResult may be nil.
func NewScheduler(tester *Tester, timeout time.Duration, logger logrus.FieldLogger, onResult func(Result)) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		tester:   tester,
		cron:     cron.New(),
		timeout:  timeout,
		logger:   logger,
		onResult: onResult,
	}
}

// Start registers the probe under schedule and starts the cron runner
func (s *Scheduler) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, s.tick)
	if err != nil {
		return fmt.Errorf("failed to add probe schedule: %w", err)
	}
	s.cronID = id
	s.cron.Start()
	s.logger.WithField("schedule", schedule).Info("connection test scheduled")
	return nil
}

// Stop halts the schedule; the returned context is done once a running probe finishes
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Last returns the most recent scheduled result
func (s *Scheduler) Last() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.tester.Run(ctx)
	switch {
	case errors.Is(err, ordering.ErrBusy):
		s.logger.Debug("connection test skipped: previous test still running")
		return
	case err != nil:
		s.logger.WithError(err).Warn("connection test skipped")
		return
	}

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	if !res.OK {
		s.logger.WithField("log", res.Log).Warn("connection test failed")
	}
	if s.onResult != nil {
		s.onResult(res)
	}
}
