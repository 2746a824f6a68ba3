// Package scheduler implements interfaces.SchedulerService using
// robfig/cron, the same library and job-entry bookkeeping the teacher
// uses for its own scheduler.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	entryID   cron.EntryID
	lastRun   *time.Time
	lastError string
	isRunning bool
}

// Service is the cron-backed SchedulerService implementation used to drive
// the Orchestrator's daily run and the Config Registry's refresh tick.
type Service struct {
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	jobs    map[string]*jobEntry
	running bool
}

// New builds a scheduler Service.
func New(logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a named job on cronExpr. Re-registering a name replaces
// its schedule and handler, removing the prior cron entry first.
func (s *Service) Register(name, cronExpr string, handler func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.jobs[name]; exists {
		s.cron.Remove(existing.entryID)
	}

	entry := &jobEntry{name: name, schedule: cronExpr, handler: handler}
	entryID, err := s.cron.AddFunc(cronExpr, func() { s.runJob(name) })
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}
	entry.entryID = entryID
	s.jobs[name] = entry

	s.logger.Debug().Str("job_name", name).Str("schedule", cronExpr).Msg("job registered")
	return nil
}

// Start begins the cron scheduler.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight job to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

// IsRunning reports whether the scheduler has been started.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow runs a registered job immediately, out of band from its cron
// schedule.
func (s *Service) TriggerNow(name string) error {
	s.mu.Lock()
	_, exists := s.jobs[name]
	s.mu.Unlock()
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}
	go s.runJob(name)
	return nil
}

func (s *Service) runJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("job_name", name).Str("panic", fmt.Sprintf("%v", r)).Msg("panic recovered in scheduled job")
			s.mu.Lock()
			if entry, ok := s.jobs[name]; ok {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.mu.Unlock()
		}
	}()

	s.mu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.mu.Unlock()
		return
	}
	entry.isRunning = true
	s.mu.Unlock()

	start := time.Now()
	err := entry.handler()
	completed := time.Now()

	s.mu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Str("job_name", name).Err(err).Dur("duration", time.Since(start)).Msg("scheduled job failed")
	} else {
		s.logger.Debug().Str("job_name", name).Dur("duration", time.Since(start)).Msg("scheduled job completed")
	}
}
