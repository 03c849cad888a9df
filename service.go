package arbiter

import (
	"context"
	"fmt"

	"github.com/viant/arbiter/ledger"
	"github.com/viant/arbiter/model/resource"
	"github.com/viant/arbiter/model/task"
	"github.com/viant/arbiter/policy"
	"github.com/viant/arbiter/service/dao"
	cfs "github.com/viant/arbiter/service/dao/checkpoint/fs"
	cmemory "github.com/viant/arbiter/service/dao/checkpoint/memory"
	"github.com/viant/arbiter/service/scheduler"
	"github.com/viant/arbiter/service/syscall"
	"github.com/viant/arbiter/state"
)

// Service is the explicitly constructed kernel context object: it owns the
// ledger, the task table and the service layers, and is handed (or injected)
// into every collaborator instead of living behind a package global.
type Service struct {
	config        *Config
	ledger        *ledger.Ledger[resource.Handle]
	tasks         *task.Table
	scheduler     *scheduler.Service
	syscalls      *syscall.Service
	checkpointDAO dao.Service[string, state.Checkpoint]
	checkpointErr error
	runtime       *Runtime
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	s.scheduler = scheduler.New(s.tasks, s.config.Scheduler)
	s.syscalls = syscall.New(s.tasks, s.ledger)
	s.runtime = &Runtime{service: s}
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.ledger == nil {
		s.ledger = ledger.New[resource.Handle]()
	}
	s.tasks = task.NewTable(s.config.Task.MaxSyscallNum)
	if s.checkpointDAO == nil {
		if baseURL := s.config.Checkpoint.BaseURL; baseURL != "" {
			store, err := cfs.New(baseURL)
			if err != nil {
				// An explicitly configured store must not degrade to the
				// in-memory fallback behind the caller's back; the error
				// surfaces on the first checkpoint operation.
				s.checkpointErr = fmt.Errorf("checkpoint store %s unusable: %w", baseURL, err)
				return
			}
			s.checkpointDAO = store
		}
	}
	if s.checkpointDAO == nil {
		s.checkpointDAO = cmemory.New()
	}
}

// NewContext decorates ctx with the configured dispatch policy, when one is
// set.
func (s *Service) NewContext(ctx context.Context) context.Context {
	if s.config.Policy != nil {
		return policy.WithPolicy(ctx, policy.FromConfig(s.config.Policy))
	}
	return ctx
}

// Runtime returns the collaborator facade.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Start runs the scheduling loop until ctx is cancelled or Shutdown is
// called.
func (s *Service) Start(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

// Shutdown stops the scheduling loop.
func (s *Service) Shutdown() {
	s.scheduler.Shutdown()
}

// New creates a kernel core service.
func New(options ...Option) *Service {
	ret := &Service{config: DefaultConfig()}
	ret.init(options)
	return ret
}
