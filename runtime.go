package arbiter

import (
	"context"
	"fmt"

	"github.com/viant/arbiter/internal/clock"
	"github.com/viant/arbiter/internal/idgen"
	"github.com/viant/arbiter/ledger"
	"github.com/viant/arbiter/model/resource"
	"github.com/viant/arbiter/model/task"
	"github.com/viant/arbiter/service/scheduler"
	"github.com/viant/arbiter/service/syscall"
	"github.com/viant/arbiter/state"
)

// Runtime is the facade the collaborators consume: the process-creation
// facility creates and destroys tasks and resources, the trap layer
// dispatches syscalls, the scheduler loop drives lifecycle transitions.
type Runtime struct {
	service *Service
}

// CreateTask appends a task row to the ledger and a control block to the
// table, keeping both id spaces aligned.
func (r *Runtime) CreateTask(cx task.Context) int {
	id := r.service.tasks.Create(cx)
	ledgerID := r.service.ledger.AddTask()
	if int(ledgerID) != id {
		panic(fmt.Sprintf("arbiter: task id spaces diverged (table %d, ledger %d)", id, ledgerID))
	}
	return id
}

// DestroyTask exits the task and zeroes its ledger row.  The slot itself
// stays; the id space never shrinks.
func (r *Runtime) DestroyTask(id int) bool {
	block := r.service.tasks.Get(id)
	if block == nil {
		return false
	}
	block.Exit()
	return r.service.ledger.RemoveTask(ledger.TaskID(id))
}

// TaskStatus reports a task's lifecycle phase.
func (r *Runtime) TaskStatus(id int) (task.Status, bool) {
	block := r.service.tasks.Get(id)
	if block == nil {
		return 0, false
	}
	return block.Status(), true
}

// TaskInfo snapshots a task's observable accounting.
func (r *Runtime) TaskInfo(id int) (task.Info, bool) {
	block := r.service.tasks.Get(id)
	if block == nil {
		return task.Info{}, false
	}
	return block.Info(), true
}

// CreateResource registers a resource with the given capacity and returns
// its descriptor.
func (r *Runtime) CreateResource(total int) int64 {
	return r.service.syscalls.CreateResource(total)
}

// DestroyResource unregisters the resource behind a descriptor; the no-units-
// in-flight precondition of the ledger applies.
func (r *Runtime) DestroyResource(desc int64) error {
	return r.service.syscalls.DestroyResource(desc)
}

// Syscall dispatches one syscall on behalf of a task.
func (r *Runtime) Syscall(ctx context.Context, taskID int, sysno syscall.Sysno, args ...interface{}) (int64, error) {
	return r.service.syscalls.Dispatch(ctx, taskID, sysno, args...)
}

// Scheduler exposes the pick-next loop for hosts that drive it manually.
func (r *Runtime) Scheduler() *scheduler.Service {
	return r.service.scheduler
}

// Ledger exposes the resource ledger for read access and admission checks.
func (r *Runtime) Ledger() *ledger.Ledger[resource.Handle] {
	return r.service.ledger
}

// Tasks exposes the task table.
func (r *Runtime) Tasks() *task.Table {
	return r.service.tasks
}

// Checkpoint captures the ledger and every task row and persists the capture
// through the configured DAO, returning the checkpoint id.
func (r *Runtime) Checkpoint(ctx context.Context) (string, error) {
	if r.service.checkpointDAO == nil {
		return "", r.service.checkpointErr
	}
	checkpoint := &state.Checkpoint{
		ID:          idgen.New(),
		CreatedAt:   clock.Now(),
		Ledger:      r.service.ledger.Snapshot(),
		Tasks:       r.service.tasks.Rows(),
		Descriptors: r.service.syscalls.Descriptors(),
	}
	if err := r.service.checkpointDAO.Save(ctx, checkpoint); err != nil {
		return "", err
	}
	return checkpoint.ID, nil
}

// RestoreCheckpoint loads a checkpoint and replaces the ledger matrices and
// the task table with its contents.
func (r *Runtime) RestoreCheckpoint(ctx context.Context, id string) error {
	if r.service.checkpointDAO == nil {
		return r.service.checkpointErr
	}
	checkpoint, err := r.service.checkpointDAO.Load(ctx, id)
	if err != nil {
		return err
	}
	r.service.ledger.Restore(checkpoint.Ledger)
	r.service.tasks.Restore(checkpoint.Tasks)
	r.service.syscalls.RestoreDescriptors(checkpoint.Descriptors)
	return nil
}
