// Package scheduler provides a persisted one-shot job scheduler. Jobs are
// written to a shared durable store and fired at their absolute run time;
// jobs that came due while the process was down fire once promptly after
// startup. There is no physical cancellation: handlers are expected to
// revalidate state at fire time and abort stale work themselves.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"giveaway-engine/internal/common/logger"
)

const claimBatchSize = 100

// Handler executes one fired job. Errors are logged and not retried by the
// scheduler; retry policy, if any, belongs to the handler.
type Handler func(ctx context.Context, args json.RawMessage) error

// Service dispatches due jobs from a durable store. It is constructed
// explicitly and injected into anything that schedules work; one instance
// per process, started once and stopped on shutdown.
type Service struct {
	store    JobStore
	interval time.Duration
	log      zerolog.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(store JobStore, pollInterval time.Duration) *Service {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Service{
		store:    store,
		interval: pollInterval,
		log:      logger.Component("scheduler"),
		handlers: make(map[string]Handler),
	}
}

// Register binds an action name to its handler. All actions must be
// registered before Start so jobs persisted by a previous process run can
// fire after a restart.
func (s *Service) Register(action string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[action] = h
}

// Schedule persists a one-shot job firing at runAt. It returns immediately;
// a store failure is fatal to the call and propagates to the caller.
func (s *Service) Schedule(ctx context.Context, action string, runAt time.Time, args any) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal job args: %w", err)
	}
	job := Job{
		ID:     uuid.NewString(),
		Action: action,
		RunAt:  runAt.Unix(),
		Args:   payload,
	}
	if err := s.store.Add(ctx, job); err != nil {
		return fmt.Errorf("persist job %s: %w", action, err)
	}
	s.log.Debug().
		Str("job_id", job.ID).
		Str("action", action).
		Int64("run_at", job.RunAt).
		Msg("job scheduled")
	return nil
}

// Start launches the poll loop. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	s.log.Info().Dur("poll_interval", s.interval).Msg("scheduler started")
}

// Stop terminates the poll loop and waits for in-flight handlers.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Fire anything that came due while the process was down.
	s.dispatchDue(ctx)

	for {
		select {
		case <-ticker.C:
			s.dispatchDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) dispatchDue(ctx context.Context) {
	jobs, err := s.store.ClaimDue(ctx, time.Now().Unix(), claimBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to claim due jobs")
		return
	}

	for _, job := range jobs {
		s.mu.Lock()
		handler, ok := s.handlers[job.Action]
		s.mu.Unlock()
		if !ok {
			s.log.Error().
				Str("job_id", job.ID).
				Str("action", job.Action).
				Msg("no handler registered for action")
			continue
		}

		s.wg.Add(1)
		go func(job Job) {
			defer s.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error().
						Str("job_id", job.ID).
						Str("action", job.Action).
						Interface("panic", r).
						Msg("job handler panicked")
				}
			}()

			if err := handler(ctx, job.Args); err != nil {
				s.log.Error().
					Err(err).
					Str("job_id", job.ID).
					Str("action", job.Action).
					Msg("job handler failed")
				return
			}
			s.log.Debug().
				Str("job_id", job.ID).
				Str("action", job.Action).
				Msg("job executed")
		}(job)
	}
}
