// Package scheduler runs the gateway's background jobs: a fixed-cadence
// token health check and a configurable device status poll.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"utec-gateway/internal/common/errors"
	"utec-gateway/internal/common/logging"
	"utec-gateway/internal/devices"
	"utec-gateway/internal/settings"
	"utec-gateway/internal/token"
)

// TokenHealthInterval is the fixed cadence of the token health job. Device
// polling runs on its own configurable interval.
const TokenHealthInterval = 5 * time.Minute

const jobTimeout = 2 * time.Minute

// Scheduler owns the cron instance and the entry ids needed to reschedule
// the device poll without disturbing the token health job.
type Scheduler struct {
	cron     *cron.Cron
	tokens   *token.Manager
	poller   *devices.Poller
	settings func() settings.Settings
	logger   logging.Logger

	mu        sync.Mutex
	pollEntry cron.EntryID
	pollEvery time.Duration
	started   bool
}

// New builds a scheduler. Jobs are registered and run only after Start.
func New(tokens *token.Manager, poller *devices.Poller, src func() settings.Settings, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Scheduler{
		cron:     cron.New(),
		tokens:   tokens,
		poller:   poller,
		settings: src,
		logger:   logger,
	}
}

// Start registers both jobs and starts the cron loop. The device poll
// interval is read from the current settings.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(every(TokenHealthInterval), s.tokenHealthJob); err != nil {
		return fmt.Errorf("register token health job: %w", err)
	}

	interval := s.settings().PollInterval
	entry, err := s.cron.AddFunc(every(interval), s.devicePollJob)
	if err != nil {
		return fmt.Errorf("register device poll job: %w", err)
	}
	s.pollEntry = entry
	s.pollEvery = interval

	s.cron.Start()
	s.started = true
	s.logger.Info("Scheduler started",
		logging.Duration("token_health_interval", TokenHealthInterval),
		logging.Duration("poll_interval", interval))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// Reschedule moves the device poll job to a new interval. The token health
// job is untouched. A no-op when the interval has not changed.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	if interval < settings.MinPollInterval {
		return errors.ValidationError(fmt.Sprintf("poll interval must be at least %s", settings.MinPollInterval))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || interval == s.pollEvery {
		s.pollEvery = interval
		return nil
	}

	s.cron.Remove(s.pollEntry)
	entry, err := s.cron.AddFunc(every(interval), s.devicePollJob)
	if err != nil {
		return fmt.Errorf("reschedule device poll job: %w", err)
	}
	s.pollEntry = entry
	s.pollEvery = interval

	s.logger.Info("Device poll rescheduled", logging.Duration("interval", interval))
	return nil
}

// PollInterval returns the currently scheduled device poll interval.
func (s *Scheduler) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollEvery
}

// tokenHealthJob refreshes the token proactively when it is near expiry.
// Disabled auto-refresh and an unauthorized gateway are both quiet no-ops.
func (s *Scheduler) tokenHealthJob() {
	if !s.settings().AutoRefresh {
		s.logger.Debug("Token health check skipped, auto refresh disabled")
		return
	}

	cred := s.tokens.Credential()
	if cred == nil || cred.RefreshToken == "" {
		s.logger.Debug("Token health check skipped, gateway not authorized")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.tokens.EnsureValid(ctx); err != nil {
		s.logger.Warn("Token health check failed", logging.Err(err))
	}
}

// devicePollJob runs one poll cycle. Poll logs its own failures; an
// unauthorized gateway is expected before the first code exchange.
func (s *Scheduler) devicePollJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	_ = s.poller.Poll(ctx)
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
