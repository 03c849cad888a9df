// Package state defines the serialisable checkpoint entity: a consistent
// capture of the ledger matrices and every task row, suitable for persisting
// through a DAO and restoring after a restart.
package state

import (
	"time"

	"github.com/viant/arbiter/ledger"
	"github.com/viant/arbiter/model/resource"
	"github.com/viant/arbiter/model/task"
)

// Checkpoint is one persisted capture of the core's state.
type Checkpoint struct {
	ID          string                            `json:"id" yaml:"id"`
	CreatedAt   time.Time                         `json:"createdAt" yaml:"createdAt"`
	Ledger      *ledger.Snapshot[resource.Handle] `json:"ledger,omitempty" yaml:"ledger,omitempty"`
	Tasks       []task.Row                        `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	Descriptors map[int64]resource.Handle         `json:"descriptors,omitempty" yaml:"descriptors,omitempty"`
}

// Clone deep-copies the checkpoint so stores can hand out mutation-safe
// copies.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Ledger != nil {
		snapshot := *c.Ledger
		snapshot.Resources = append([]ledger.SlotSnapshot[resource.Handle](nil), c.Ledger.Resources...)
		snapshot.Recycle = append([]ledger.ResourceID(nil), c.Ledger.Recycle...)
		snapshot.Available = append([]int(nil), c.Ledger.Available...)
		snapshot.Max = cloneMatrix(c.Ledger.Max)
		snapshot.Allocated = cloneMatrix(c.Ledger.Allocated)
		snapshot.Need = cloneMatrix(c.Ledger.Need)
		clone.Ledger = &snapshot
	}
	if c.Tasks != nil {
		clone.Tasks = make([]task.Row, len(c.Tasks))
		for i, row := range c.Tasks {
			row.SyscallTimes = append([]uint32(nil), row.SyscallTimes...)
			row.Context = row.Context.Clone()
			clone.Tasks[i] = row
		}
	}
	if c.Descriptors != nil {
		clone.Descriptors = make(map[int64]resource.Handle, len(c.Descriptors))
		for k, v := range c.Descriptors {
			clone.Descriptors[k] = v
		}
	}
	return &clone
}

func cloneMatrix(m [][]int) [][]int {
	if m == nil {
		return nil
	}
	ret := make([][]int, len(m))
	for i, row := range m {
		ret[i] = append([]int(nil), row...)
	}
	return ret
}
