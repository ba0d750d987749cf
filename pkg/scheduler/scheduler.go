package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"go-commerce/pkg/logger"
)

// Job is a unit of background work triggered by the scheduler
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

const defaultJobTimeout = 2 * time.Minute

// Scheduler wraps cron with per-run timeouts and logging
type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	timeout time.Duration
	mu      sync.Mutex
	started bool
}

// New creates a scheduler accepting optional seconds and @every descriptors
func New(log *logger.Logger) *Scheduler {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cron.PrintfLogger(log)),
			cron.WithChain(cron.Recover(cron.PrintfLogger(log)), cron.SkipIfStillRunning(cron.VerbosePrintfLogger(log))),
		),
		log:     log,
		timeout: defaultJobTimeout,
	}
}

// Register binds job to a cron spec
func (s *Scheduler) Register(spec string, job Job) (cron.EntryID, error) {
	if job == nil {
		return 0, fmt.Errorf("scheduler: job is required")
	}
	if spec == "" {
		return 0, fmt.Errorf("scheduler: spec is required")
	}
	id, err := s.cron.AddFunc(spec, s.wrap(job))
	if err != nil {
		return 0, fmt.Errorf("scheduler: register %s: %w", job.Name(), err)
	}
	s.log.Info("job registered", zap.String("job", job.Name()), zap.String("spec", spec))
	return id, nil
}

// Start runs registered jobs in the background
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop halts the scheduler; the returned context is done once running jobs finish
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.log.Error("job failed",
				zap.String("job", job.Name()),
				zap.Error(err),
				zap.Duration("elapsed", time.Since(start)),
			)
			return
		}
		s.log.Debug("job completed",
			zap.String("job", job.Name()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
