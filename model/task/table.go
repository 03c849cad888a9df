package task

import "sync"

// Table is the grow-only store of task control blocks.  Ids are 1-based and
// aligned with the ledger's task rows; a destroyed task keeps its slot (the
// id space never shrinks), it is only reset when the outer process facility
// reuses it.
type Table struct {
	mu            sync.RWMutex
	blocks        []*Block
	maxSyscallNum int
}

// NewTable creates an empty table; maxSyscallNum sizes every block's counter
// table (<=0 selects DefaultMaxSyscallNum).
func NewTable(maxSyscallNum int) *Table {
	if maxSyscallNum <= 0 {
		maxSyscallNum = DefaultMaxSyscallNum
	}
	return &Table{maxSyscallNum: maxSyscallNum}
}

// Create appends a Ready block and returns its 1-based id.
func (t *Table) Create(cx Context) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks = append(t.blocks, NewBlock(cx, t.maxSyscallNum))
	return len(t.blocks)
}

// Get returns the block for an id, nil when out of range.
func (t *Table) Get(id int) *Block {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 1 || id > len(t.blocks) {
		return nil
	}
	return t.blocks[id-1]
}

// Len returns the number of slots ever created.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.blocks)
}

// Ready lists ids of tasks currently eligible to run, in id order.
func (t *Table) Ready() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ret []int
	for i, b := range t.blocks {
		if b.IsReady() {
			ret = append(ret, i+1)
		}
	}
	return ret
}

// Row is a serialisable copy of one table slot, used by checkpoints.
type Row struct {
	ID              int      `json:"id" yaml:"id"`
	Status          Status   `json:"status" yaml:"status"`
	StartedAtMillis int64    `json:"startedAtMillis,omitempty" yaml:"startedAtMillis,omitempty"`
	SyscallTimes    []uint32 `json:"syscallTimes,omitempty" yaml:"syscallTimes,omitempty"`
	Context         Context  `json:"context,omitempty" yaml:"context,omitempty"`
}

// Rows snapshots every slot.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ret := make([]Row, len(t.blocks))
	for i, b := range t.blocks {
		b.mu.Lock()
		ret[i] = Row{
			ID:              i + 1,
			Status:          b.status,
			StartedAtMillis: b.startMillis,
			SyscallTimes:    append([]uint32(nil), b.syscallTimes...),
			Context:         b.cx.Clone(),
		}
		b.mu.Unlock()
	}
	return ret
}

// Restore replaces the table contents with the given rows.  Row ids are
// assumed dense and 1-based, as produced by Rows.
func (t *Table) Restore(rows []Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks = make([]*Block, len(rows))
	for i, row := range rows {
		b := NewBlock(row.Context.Clone(), t.maxSyscallNum)
		b.status = row.Status
		b.startMillis = row.StartedAtMillis
		copy(b.syscallTimes, row.SyscallTimes)
		t.blocks[i] = b
	}
}
