package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/robfig/cron/v3"
)

// Job interface that all scheduled jobs must implement
type Job interface {
	Run(ctx context.Context) error
}

// Scheduler manages recurring background jobs on cron schedules
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      map[string]gocron.Job
	mu        sync.Mutex
	running   bool
}

// NewScheduler creates a new job scheduler running in UTC
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: scheduler,
		jobs:      make(map[string]gocron.Job),
	}, nil
}

// ValidateCronExpression checks a standard 5-field cron expression
func ValidateCronExpression(expr string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Register adds a job to the scheduler on the given cron expression
func (s *Scheduler) Register(name, cronExpr string, job Job) error {
	if err := ValidateCronExpression(cronExpr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gj, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			start := time.Now()
			if err := job.Run(context.Background()); err != nil {
				log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", name, err)
				return
			}
			log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", name, time.Since(start))
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}

	s.jobs[name] = gj
	log.Printf("📅 [SCHEDULER] Registered job: %s (cron: %s)", name, cronExpr)
	return nil
}

// Start begins running all registered jobs
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	s.scheduler.Start()
	log.Printf("🚀 [SCHEDULER] Starting job scheduler with %d jobs", len(s.jobs))
}

// Stop gracefully stops all jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	log.Println("🛑 [SCHEDULER] Stopping job scheduler...")
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️  [SCHEDULER] Shutdown error: %v", err)
	}
}
