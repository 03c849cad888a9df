package ledger

// Snapshot is a serialisable copy of the ledger's full state, taken and
// restored atomically.  It exists for checkpointing; mutating a snapshot has
// no effect on the ledger it came from.
type Snapshot[R comparable] struct {
	Resources []SlotSnapshot[R] `json:"resources" yaml:"resources"`
	Recycle   []ResourceID      `json:"recycle,omitempty" yaml:"recycle,omitempty"`
	Max       [][]int           `json:"max,omitempty" yaml:"max,omitempty"`
	Allocated [][]int           `json:"allocated,omitempty" yaml:"allocated,omitempty"`
	Need      [][]int           `json:"need,omitempty" yaml:"need,omitempty"`
	Available []int             `json:"available,omitempty" yaml:"available,omitempty"`
}

// SlotSnapshot captures one resource slot; a vacant slot keeps the zero
// identity with Occupied=false.
type SlotSnapshot[R comparable] struct {
	Identity R    `json:"identity" yaml:"identity"`
	Occupied bool `json:"occupied" yaml:"occupied"`
}

// Snapshot deep-copies the ledger state.
func (l *Ledger[R]) Snapshot() *Snapshot[R] {
	l.mu.Lock()
	defer l.mu.Unlock()

	ret := &Snapshot[R]{
		Resources: make([]SlotSnapshot[R], len(l.slots)),
		Recycle:   append([]ResourceID(nil), l.recycle...),
		Max:       cloneMatrix(l.max),
		Allocated: cloneMatrix(l.allocated),
		Need:      cloneMatrix(l.need),
		Available: append([]int(nil), l.available...),
	}
	for i, s := range l.slots {
		ret.Resources[i] = SlotSnapshot[R]{Identity: s.identity, Occupied: s.occupied}
	}
	return ret
}

// Restore replaces the ledger's state with a deep copy of the snapshot.
func (l *Ledger[R]) Restore(snapshot *Snapshot[R]) {
	if snapshot == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.slots = make([]slot[R], len(snapshot.Resources))
	for i, s := range snapshot.Resources {
		l.slots[i] = slot[R]{identity: s.Identity, occupied: s.Occupied}
	}
	l.recycle = append([]ResourceID(nil), snapshot.Recycle...)
	l.max = cloneMatrix(snapshot.Max)
	l.allocated = cloneMatrix(snapshot.Allocated)
	l.need = cloneMatrix(snapshot.Need)
	l.available = append([]int(nil), snapshot.Available...)
	l.numTasks = len(snapshot.Max)
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
