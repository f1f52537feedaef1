package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler is the background-task primitive: a registered task wakes up on
// its interval until unregistered. Intervals below the configured minimum are
// raised to it, mirroring host platforms that enforce a coarsest cadence for
// background work.
type Scheduler struct {
	mu          sync.Mutex
	tasks       map[string]chan struct{}
	wg          sync.WaitGroup
	minInterval time.Duration
	logger      *slog.Logger
}

func NewScheduler(minInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		tasks:       make(map[string]chan struct{}),
		minInterval: minInterval,
		logger:      logger,
	}
}

// RegisterPeriodic starts a periodic task. Registering an id twice is a no-op.
func (s *Scheduler) RegisterPeriodic(id string, interval time.Duration, fn func(ctx context.Context)) {
	if interval < s.minInterval {
		s.logger.Warn("periodic interval raised to minimum",
			slog.String("task", id),
			slog.Duration("requested", interval),
			slog.Duration("minimum", s.minInterval),
		)
		interval = s.minInterval
	}

	s.mu.Lock()
	if _, exists := s.tasks[id]; exists {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.tasks[id] = stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn(context.Background())
			}
		}
	}()

	s.logger.Info("periodic task registered", slog.String("task", id), slog.Duration("interval", interval))
}

// Unregister halts the task synchronously; a wakeup already in flight runs to
// completion but no further ticks fire.
func (s *Scheduler) Unregister(id string) {
	s.mu.Lock()
	stop, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if ok {
		close(stop)
		s.logger.Info("periodic task unregistered", slog.String("task", id))
	}
}

// Shutdown stops all tasks and waits for their goroutines.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for id, stop := range s.tasks {
		close(stop)
		delete(s.tasks, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
