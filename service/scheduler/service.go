package scheduler

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/viant/arbiter/model/task"
	"github.com/viant/arbiter/tracing"
)

// Config represents scheduler service configuration
type Config struct {
	// Quantum is how long a picked task keeps the processor before the
	// loop preempts it.
	Quantum time.Duration `json:"quantum,omitempty" yaml:"quantum,omitempty"`
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{Quantum: 10 * time.Millisecond}
}

// ErrNoReadyTask is returned by Step when every task is running down or gone.
var ErrNoReadyTask = errors.New("scheduler: no ready task")

// Service drives the task lifecycle: each step preempts the running task and
// puts the next ready one on the processor, sweeping slots round-robin.
type Service struct {
	config     Config
	tasks      *task.Table
	mu         sync.Mutex
	current    int // 0 = none
	cursor     int // next slot to consider, 0-based
	shutdownCh chan struct{}
}

// New creates a new scheduler service
func New(tasks *task.Table, config Config) *Service {
	if config.Quantum <= 0 {
		config.Quantum = DefaultConfig().Quantum
	}
	return &Service{
		config:     config,
		tasks:      tasks,
		shutdownCh: make(chan struct{}),
	}
}

// Start begins the scheduling loop; one Step per quantum until the context is
// cancelled or Shutdown is called.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Quantum)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.shutdownCh:
			return nil
		case <-ticker.C:
			if _, err := s.Step(ctx); err != nil && !errors.Is(err, ErrNoReadyTask) {
				return err
			}
		}
	}
}

// Shutdown stops the scheduling loop.
func (s *Service) Shutdown() {
	close(s.shutdownCh)
}

// Step preempts the running task (Running -> Ready) and promotes the next
// ready task round-robin (Ready -> Running), returning its id.  An exited
// current task is simply dropped.  ErrNoReadyTask is returned when the sweep
// finds nothing to run.
func (s *Service) Step(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, span := tracing.StartSpan(ctx, "scheduler.step", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	if s.current != 0 {
		if block := s.tasks.Get(s.current); block != nil && block.Status() == task.StatusRunning {
			// Preemption can only fail if the task exited between
			// checks; either way it no longer runs.
			_ = block.ToReady()
		}
		s.current = 0
	}

	count := s.tasks.Len()
	for i := 0; i < count; i++ {
		id := (s.cursor+i)%count + 1
		block := s.tasks.Get(id)
		if block == nil || !block.IsReady() {
			continue
		}
		if err := block.ToRunning(); err != nil {
			continue
		}
		s.current = id
		s.cursor = id % count
		span.WithAttributes(map[string]string{"task": strconv.Itoa(id)})
		return id, nil
	}
	err = ErrNoReadyTask
	return 0, err
}

// Current returns the id of the task on the processor, 0 when idle.
func (s *Service) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
