// Package syscall is the dispatch layer between the trap handler and the
// core: it bumps per-task invocation counters, applies the optional dispatch
// policy and translates ledger verdicts into the documented error values.
// Handlers never block; when a resource is unavailable the caller decides
// whether to retry, queue or fail the requesting task.
package syscall

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/arbiter/internal/clock"
	"github.com/viant/arbiter/ledger"
	"github.com/viant/arbiter/model/resource"
	"github.com/viant/arbiter/model/task"
	"github.com/viant/arbiter/policy"
	"github.com/viant/arbiter/tracing"
	"github.com/viant/toolbox"
)

var (
	// ErrBadCall covers caller-contract violations: unknown task,
	// descriptor or syscall, malformed arguments, release above holdings.
	ErrBadCall = errors.New("syscall: bad call")
	// ErrUnavailable reports a request above the currently available pool.
	ErrUnavailable = errors.New("syscall: resource unavailable")
	// ErrWouldDeadlock reports a negative admission verdict: granting the
	// request could make it impossible for every task to finish.
	ErrWouldDeadlock = errors.New("syscall: request would deadlock")
	// ErrDenied reports a dispatch blocked by policy.
	ErrDenied = errors.New("syscall: denied by policy")
)

// Call carries one decoded syscall invocation.  Args arrive untyped from the
// trap layer and are coerced by the handlers.
type Call struct {
	Task  int
	Sysno Sysno
	Args  []interface{}
}

// Handler implements one syscall.
type Handler func(ctx context.Context, call *Call) (int64, error)

// Service dispatches syscalls against the task table and the ledger.  It
// owns the descriptor table mapping the small integers handed to user tasks
// onto the opaque resource handles registered with the ledger.
type Service struct {
	tasks  *task.Table
	ledger *ledger.Ledger[resource.Handle]

	mu          sync.Mutex
	handlers    map[Sysno]Handler
	descriptors map[int64]resource.Handle
	nextDesc    int64
}

// New creates the dispatcher with the built-in syscall surface installed.
func New(tasks *task.Table, l *ledger.Ledger[resource.Handle]) *Service {
	s := &Service{
		tasks:       tasks,
		ledger:      l,
		handlers:    map[Sysno]Handler{},
		descriptors: map[int64]resource.Handle{},
	}
	s.Register(SysExit, s.sysExit)
	s.Register(SysYield, s.sysYield)
	s.Register(SysGetTime, s.sysGetTime)
	s.Register(SysTaskInfo, s.sysTaskInfo)
	s.Register(SysResCreate, s.sysResCreate)
	s.Register(SysResAcquire, s.sysResAcquire)
	s.Register(SysResRelease, s.sysResRelease)
	s.Register(SysResDestroy, s.sysResDestroy)
	return s
}

// Register installs or replaces a handler; hosts may extend the surface.
func (s *Service) Register(sysno Sysno, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[sysno] = handler
}

// Dispatch runs one syscall on behalf of a task.  Only a known syscall bumps
// the invocation counter, and it does so before the handler runs; a task that
// is neither Ready nor Running cannot issue syscalls.
func (s *Service) Dispatch(ctx context.Context, taskID int, sysno Sysno, args ...interface{}) (ret int64, err error) {
	block := s.tasks.Get(taskID)
	if block == nil {
		return 0, fmt.Errorf("%w: unknown task %d", ErrBadCall, taskID)
	}

	s.mu.Lock()
	handler, ok := s.handlers[sysno]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: unknown syscall %d", ErrBadCall, sysno)
	}

	if !block.SysCallInc(int(sysno)) {
		if status := block.Status(); status != task.StatusReady && status != task.StatusRunning {
			return 0, fmt.Errorf("%w: task %d cannot issue syscalls (%s)", ErrBadCall, taskID, status)
		}
		return 0, fmt.Errorf("%w: syscall %d outside the counter table", ErrBadCall, sysno)
	}

	name := sysno.String()
	if err := checkPolicy(ctx, name, taskID); err != nil {
		return 0, err
	}

	ctx, span := tracing.StartSpan(ctx, "syscall."+name, "SERVER")
	defer func() { tracing.EndSpan(span, err) }()
	ret, err = handler(ctx, &Call{Task: taskID, Sysno: sysno, Args: args})
	return ret, err
}

func checkPolicy(ctx context.Context, name string, taskID int) error {
	pol := policy.FromContext(ctx)
	if pol == nil {
		return nil
	}
	if !pol.IsAllowed(name) || pol.Mode == policy.ModeDeny {
		return fmt.Errorf("%w: %s", ErrDenied, name)
	}
	if pol.Mode == policy.ModeAsk && pol.Ask != nil && !pol.Ask(ctx, name, taskID, pol) {
		return fmt.Errorf("%w: %s", ErrDenied, name)
	}
	return nil
}

// CreateResource registers a fresh resource with the ledger and returns its
// descriptor.
func (s *Service) CreateResource(total int) int64 {
	handle := resource.New()
	s.ledger.Register(handle, total)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextDesc++
	s.descriptors[s.nextDesc] = handle
	return s.nextDesc
}

// DestroyResource unregisters the resource behind a descriptor.  Callers must
// not have units in flight (the ledger precondition applies).
func (s *Service) DestroyResource(desc int64) error {
	handle, ok := s.handleOf(desc)
	if !ok {
		return fmt.Errorf("%w: unknown resource descriptor %d", ErrBadCall, desc)
	}
	if !s.ledger.Unregister(handle) {
		return fmt.Errorf("%w: resource descriptor %d already destroyed", ErrBadCall, desc)
	}
	s.mu.Lock()
	delete(s.descriptors, desc)
	s.mu.Unlock()
	return nil
}

// Acquire admits and immediately grants amount units to a task: the ledger's
// speculative admission runs first and only a positive verdict reaches the
// grant path, so the grant precondition can no longer fail.
func (s *Service) Acquire(taskID int, desc int64, amount int) error {
	handle, ok := s.handleOf(desc)
	if !ok {
		return fmt.Errorf("%w: unknown resource descriptor %d", ErrBadCall, desc)
	}
	if amount < 0 {
		return fmt.Errorf("%w: negative amount %d", ErrBadCall, amount)
	}
	available, ok := s.ledger.Available(handle)
	if !ok {
		return fmt.Errorf("%w: unknown resource descriptor %d", ErrBadCall, desc)
	}
	if amount > available {
		return fmt.Errorf("%w: requested %d, available %d", ErrUnavailable, amount, available)
	}
	if !s.ledger.TryAdmit(ledger.TaskID(taskID), handle, amount) {
		return fmt.Errorf("%w: task %d requesting %d units", ErrWouldDeadlock, taskID, amount)
	}
	s.ledger.Grant(ledger.TaskID(taskID), handle, amount)
	return nil
}

// ReleaseResource returns amount units held by a task to the pool.
func (s *Service) ReleaseResource(taskID int, desc int64, amount int) error {
	handle, ok := s.handleOf(desc)
	if !ok {
		return fmt.Errorf("%w: unknown resource descriptor %d", ErrBadCall, desc)
	}
	if !s.ledger.Release(ledger.TaskID(taskID), handle, amount) {
		return fmt.Errorf("%w: release of %d rejected for task %d", ErrBadCall, amount, taskID)
	}
	return nil
}

// Handle resolves a descriptor to the underlying ledger identity.
func (s *Service) Handle(desc int64) (resource.Handle, bool) {
	return s.handleOf(desc)
}

// Descriptors copies the descriptor table, for checkpointing.
func (s *Service) Descriptors() map[int64]resource.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make(map[int64]resource.Handle, len(s.descriptors))
	for k, v := range s.descriptors {
		ret[k] = v
	}
	return ret
}

// RestoreDescriptors replaces the descriptor table from a checkpoint.
func (s *Service) RestoreDescriptors(descriptors map[int64]resource.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors = make(map[int64]resource.Handle, len(descriptors))
	s.nextDesc = 0
	for k, v := range descriptors {
		s.descriptors[k] = v
		if k > s.nextDesc {
			s.nextDesc = k
		}
	}
}

func (s *Service) handleOf(desc int64) (resource.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.descriptors[desc]
	return handle, ok
}

func (s *Service) sysExit(_ context.Context, call *Call) (int64, error) {
	block := s.tasks.Get(call.Task)
	block.Exit()
	s.ledger.RemoveTask(ledger.TaskID(call.Task))
	return 0, nil
}

func (s *Service) sysYield(_ context.Context, call *Call) (int64, error) {
	block := s.tasks.Get(call.Task)
	if err := block.ToReady(); err != nil {
		return -1, fmt.Errorf("%w: %v", ErrBadCall, err)
	}
	return 0, nil
}

func (s *Service) sysGetTime(_ context.Context, _ *Call) (int64, error) {
	return clock.Millis(), nil
}

func (s *Service) sysTaskInfo(_ context.Context, call *Call) (int64, error) {
	out, err := argAt(call, 0)
	if err != nil {
		return -1, err
	}
	info, ok := out.(*task.Info)
	if !ok {
		return -1, fmt.Errorf("%w: task_info expects *task.Info, got %T", ErrBadCall, out)
	}
	*info = s.tasks.Get(call.Task).Info()
	return 0, nil
}

func (s *Service) sysResCreate(_ context.Context, call *Call) (int64, error) {
	total, err := argInt(call, 0)
	if err != nil {
		return -1, err
	}
	if total < 0 {
		return -1, fmt.Errorf("%w: negative capacity %d", ErrBadCall, total)
	}
	return s.CreateResource(total), nil
}

func (s *Service) sysResAcquire(_ context.Context, call *Call) (int64, error) {
	desc, err := argInt(call, 0)
	if err != nil {
		return -1, err
	}
	amount, err := argInt(call, 1)
	if err != nil {
		return -1, err
	}
	if err := s.Acquire(call.Task, int64(desc), amount); err != nil {
		return -1, err
	}
	return 0, nil
}

func (s *Service) sysResRelease(_ context.Context, call *Call) (int64, error) {
	desc, err := argInt(call, 0)
	if err != nil {
		return -1, err
	}
	amount, err := argInt(call, 1)
	if err != nil {
		return -1, err
	}
	if err := s.ReleaseResource(call.Task, int64(desc), amount); err != nil {
		return -1, err
	}
	return 0, nil
}

func (s *Service) sysResDestroy(_ context.Context, call *Call) (int64, error) {
	desc, err := argInt(call, 0)
	if err != nil {
		return -1, err
	}
	if err := s.DestroyResource(int64(desc)); err != nil {
		return -1, err
	}
	return 0, nil
}

func argAt(call *Call, i int) (interface{}, error) {
	if i >= len(call.Args) {
		return nil, fmt.Errorf("%w: %s expects at least %d argument(s)", ErrBadCall, call.Sysno, i+1)
	}
	return call.Args[i], nil
}

func argInt(call *Call, i int) (int, error) {
	value, err := argAt(call, i)
	if err != nil {
		return 0, err
	}
	var ret int
	if err := toolbox.DefaultConverter.AssignConverted(&ret, value); err != nil {
		return 0, fmt.Errorf("%w: argument %d of %s: %v", ErrBadCall, i, call.Sysno, err)
	}
	return ret, nil
}
