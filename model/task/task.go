// Package task holds the task control block: lifecycle state machine, saved
// execution context and per-syscall invocation counters.  Scheduling policy
// lives elsewhere – this package only answers whether a transition is legal
// and performs it atomically with the block's bookkeeping.
package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/viant/arbiter/internal/clock"
)

// Status is a task's lifecycle phase.
type Status int

const (
	// StatusUnInit is the pre-scheduling placeholder; blocks leave it the
	// moment they are constructed.
	StatusUnInit Status = iota
	// StatusReady means the task may be picked to run.
	StatusReady
	// StatusRunning means the task currently holds the processor.
	StatusRunning
	// StatusExited is terminal; no transition leaves it.
	StatusExited
)

func (s Status) String() string {
	switch s {
	case StatusUnInit:
		return "uninit"
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// DefaultMaxSyscallNum bounds the per-task syscall counter table.
const DefaultMaxSyscallNum = 512

var (
	// ErrNotReady is returned when a Ready-only transition is attempted
	// from another state.
	ErrNotReady = errors.New("task: not in ready state")
	// ErrNotRunning is returned when a Running-only transition is
	// attempted from another state.
	ErrNotRunning = errors.New("task: not in running state")
)

// Context is the task's saved execution context.  The block treats it as an
// opaque blob; the context-switch mechanism swaps it in and out.
type Context struct {
	Blob []byte `json:"blob,omitempty" yaml:"blob,omitempty"`
}

// Clone deep-copies the context.
func (c Context) Clone() Context {
	return Context{Blob: append([]byte(nil), c.Blob...)}
}

// Block is one task control block.  Its status and accumulated info always
// change together under one lock.
type Block struct {
	mu           sync.Mutex
	status       Status
	cx           Context
	startMillis  int64 // stamped once, on first entry into Running
	syscallTimes []uint32
}

// NewBlock constructs a Ready block.  UnInit is only the implicit state
// before construction completes; there is no guarded transition out of it.
func NewBlock(cx Context, maxSyscallNum int) *Block {
	if maxSyscallNum <= 0 {
		maxSyscallNum = DefaultMaxSyscallNum
	}
	return &Block{
		status:       StatusReady,
		cx:           cx,
		syscallTimes: make([]uint32, maxSyscallNum),
	}
}

// ToRunning moves a Ready task onto the processor.  The first successful call
// in the block's lifetime stamps the start time; later cycles through Ready
// never restamp it.
func (b *Block) ToRunning() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != StatusReady {
		return fmt.Errorf("%w (current: %s)", ErrNotReady, b.status)
	}
	if b.startMillis == 0 {
		b.startMillis = clock.Millis()
	}
	b.status = StatusRunning
	return nil
}

// ToReady takes a Running task off the processor (yield or preemption).
func (b *Block) ToReady() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != StatusRunning {
		return fmt.Errorf("%w (current: %s)", ErrNotRunning, b.status)
	}
	b.status = StatusReady
	return nil
}

// Exit moves the task to the terminal state from any phase.  Calling it on an
// already-Exited block is a no-op: the terminal state absorbs repeats, which
// lets the scheduler and the reaper race benignly on teardown.
func (b *Block) Exit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusExited
}

// SysCallInc bumps the invocation counter for a syscall id.  It reports false
// when the task is neither Ready nor Running or the id is out of range.
func (b *Block) SysCallInc(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != StatusReady && b.status != StatusRunning {
		return false
	}
	if id < 0 || id >= len(b.syscallTimes) {
		return false
	}
	b.syscallTimes[id]++
	return true
}

// Status returns the current lifecycle phase.
func (b *Block) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// IsReady reports whether the scheduler may pick this task.
func (b *Block) IsReady() bool {
	return b.Status() == StatusReady
}

// StartedAtMillis returns the first-run stamp, 0 when the task never ran.
func (b *Block) StartedAtMillis() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startMillis
}

// Context returns the saved execution context.
func (b *Block) Context() Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cx
}

// SetContext stores the saved execution context after a switch-out.
func (b *Block) SetContext(cx Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cx = cx
}

// Info is a point-in-time copy of a task's observable accounting.
type Info struct {
	Status        Status   `json:"status" yaml:"status"`
	SyscallTimes  []uint32 `json:"syscallTimes" yaml:"syscallTimes"`
	RunningMillis int64    `json:"runningMillis" yaml:"runningMillis"`
}

// Info snapshots status, syscall counters and elapsed time since first run.
func (b *Block) Info() Info {
	b.mu.Lock()
	defer b.mu.Unlock()
	ret := Info{
		Status:       b.status,
		SyscallTimes: append([]uint32(nil), b.syscallTimes...),
	}
	if b.startMillis > 0 {
		ret.RunningMillis = clock.Millis() - b.startMillis
	}
	return ret
}

// Reset returns the block to a fresh Ready state for slot reuse by the outer
// process facility: counters and start stamp are zeroed, the context is
// replaced.  Deallocation is the collaborator's business.
func (b *Block) Reset(cx Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusReady
	b.cx = cx
	b.startMillis = 0
	for i := range b.syscallTimes {
		b.syscallTimes[i] = 0
	}
}
