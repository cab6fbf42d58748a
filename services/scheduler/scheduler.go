package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/campus/core"
)

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Name() string
	Schedule() string // standard 5-field cron spec or a descriptor such as "@hourly"
	Run(ctx context.Context) error
}

// RunResult describes the latest run of a Job.
type RunResult struct {
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	timeout time.Duration

	mu      sync.RWMutex
	jobs    map[string]Job
	lastRun map[string]RunResult
}

func New(logger core.Logger, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]Job),
		lastRun: make(map[string]RunResult),
	}
}

func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}
	if _, err := s.cron.AddFunc(job.Schedule(), func() { s.run(job) }); err != nil {
		return errors.Wrapf(err, "scheduling job %s", name)
	}
	s.jobs[name] = job
	return nil
}

func (s *Scheduler) Start() {
	s.logger.Info(fmt.Sprintf("scheduler started with %d job(s)", len(s.Jobs())))
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs the named Job synchronously, outside of its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job %s not found", name)
	}
	return s.run(job)
}

func (s *Scheduler) run(job Job) error {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(ctx)
	res := RunResult{Start: start.UTC(), Duration: time.Since(start)}
	if err != nil {
		res.Error = err.Error()
		s.logger.Error(fmt.Sprintf("job %s failed: %v", job.Name(), err), err)
	}

	s.mu.Lock()
	s.lastRun[job.Name()] = res
	s.mu.Unlock()
	return err
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	return names
}

func (s *Scheduler) LastRun(name string) (RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.lastRun[name]
	return res, ok
}
