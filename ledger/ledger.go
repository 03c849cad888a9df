package ledger

import (
	"fmt"
	"sync"
)

// ResourceID is a dense slot index into the ledger's resource axis.  Slots of
// unregistered resources are recycled in FIFO order.
type ResourceID int

// TaskID identifies a task row.  IDs are 1-based and never reused; 0 is
// reserved.
type TaskID int

type slot[R comparable] struct {
	identity R
	occupied bool
}

// Ledger tracks allocation, maximum and need matrices for every task against
// every registered resource, plus the availability vector.  R is the opaque,
// equality-comparable resource identity (a semaphore id, a device handle...).
//
// All methods run to completion without yielding; none of them blocks.  A
// single coarse mutex keeps the matrices consistent so that the safety scan
// always observes a full snapshot, which also makes the ledger safe to share
// between a syscall path and a scheduler path on a preemptible host.
type Ledger[R comparable] struct {
	mu        sync.Mutex
	slots     []slot[R]
	recycle   []ResourceID
	numTasks  int
	max       [][]int
	allocated [][]int
	need      [][]int
	available []int
}

// New creates an empty ledger.
func New[R comparable]() *Ledger[R] {
	return &Ledger[R]{}
}

// Register adds a resource with the given total capacity and returns its slot
// id.  A previously freed slot is reused when one exists; otherwise a new slot
// is appended and every task row grows by one zero entry.  Callers guarantee
// identities are distinct among currently registered resources.
func (l *Ledger[R]) Register(identity R, total int) ResourceID {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.recycle) > 0 {
		id := l.recycle[0]
		l.recycle = l.recycle[1:]
		l.slots[id] = slot[R]{identity: identity, occupied: true}
		l.available[id] = total
		return id
	}

	l.slots = append(l.slots, slot[R]{identity: identity, occupied: true})
	l.available = append(l.available, total)
	for t := 0; t < l.numTasks; t++ {
		l.max[t] = append(l.max[t], 0)
		l.allocated[t] = append(l.allocated[t], 0)
		l.need[t] = append(l.need[t], 0)
	}
	return ResourceID(len(l.slots) - 1)
}

// Unregister removes a resource by identity and recycles its slot.  It zeroes
// the slot's availability and every task's max/allocated/need entry, so any
// outstanding allocation simply vanishes from the books.  Callers must not
// have units of the resource in flight when unregistering; the ledger does not
// verify that.
func (l *Ledger[R]) Unregister(identity R) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, ok := l.lookup(identity)
	if !ok {
		return false
	}
	l.slots[id] = slot[R]{}
	l.available[id] = 0
	for t := 0; t < l.numTasks; t++ {
		l.max[t][id] = 0
		l.allocated[t][id] = 0
		l.need[t][id] = 0
	}
	l.recycle = append(l.recycle, id)
	return true
}

// AddTask appends a zero-initialised row to every matrix and returns the new
// task id.  Task ids are 1-based and are never recycled; destroying a task
// only zeroes its row.
func (l *Ledger[R]) AddTask() TaskID {
	l.mu.Lock()
	defer l.mu.Unlock()

	width := len(l.slots)
	l.max = append(l.max, make([]int, width))
	l.allocated = append(l.allocated, make([]int, width))
	l.need = append(l.need, make([]int, width))
	l.numTasks++
	return TaskID(l.numTasks)
}

// RemoveTask returns every unit the task holds to the pool and zeroes its
// rows, keeping the conservation invariant intact.  The id stays retired
// forever.
func (l *Ledger[R]) RemoveTask(task TaskID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.row(task)
	if !ok {
		return false
	}
	for r := range l.allocated[row] {
		l.available[r] += l.allocated[row][r]
	}
	zero(l.max[row])
	zero(l.allocated[row])
	zero(l.need[row])
	return true
}

// Grant is the declaration-and-immediate-grant path used when a task's
// maximum for a resource was not declared up front: it raises max, need and
// allocated by amount and takes the units out of the availability pool.
//
// Grant panics when the task or resource is unknown or when amount exceeds
// the available pool – those indicate the caller bypassed admission control,
// which is a contract violation rather than recoverable contention.
func (l *Ledger[R]) Grant(task TaskID, identity R, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.row(task)
	if !ok {
		panic(fmt.Sprintf("ledger: grant to unknown task %d", task))
	}
	id, ok := l.lookup(identity)
	if !ok {
		panic(fmt.Sprintf("ledger: grant of unregistered resource %v", identity))
	}
	if amount < 0 || amount > l.available[id] {
		panic(fmt.Sprintf("ledger: grant of %d exceeds available %d for resource %v", amount, l.available[id], identity))
	}
	// Declaring and satisfying in one step: the need raised by the
	// declaration is consumed by the allocation, so need stays put.
	l.max[row][id] += amount
	l.allocated[row][id] += amount
	l.available[id] -= amount
}

// Release returns amount units held by task to the pool.  It restores both
// the availability vector and the task's need, keeping need = max - allocated
// and the conservation invariant intact.  Returns false on an unknown task or
// resource, or when amount exceeds the current allocation.
func (l *Ledger[R]) Release(task TaskID, identity R, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.row(task)
	if !ok {
		return false
	}
	id, ok := l.lookup(identity)
	if !ok {
		return false
	}
	if amount < 0 || amount > l.allocated[row][id] {
		return false
	}
	l.allocated[row][id] -= amount
	l.need[row][id] += amount
	l.available[id] += amount
	return true
}

// TryAdmit answers "would declaring this request keep the system safe?".  It
// speculatively raises the task's max and need for the resource, runs the
// safety check over the hypothetical state and rolls the raise back
// unconditionally.  There is no permanent side effect; the real grant is the
// caller's separate step.
//
// A request larger than the currently available pool is rejected outright:
// it could not be granted now regardless of any finish ordering.
func (l *Ledger[R]) TryAdmit(task TaskID, identity R, amount int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.row(task)
	if !ok {
		return false
	}
	id, ok := l.lookup(identity)
	if !ok {
		return false
	}
	if amount < 0 || amount > l.available[id] {
		return false
	}

	l.max[row][id] += amount
	l.need[row][id] += amount
	admitted := l.safe()
	l.max[row][id] -= amount
	l.need[row][id] -= amount
	return admitted
}

// Safe reports whether the current state admits at least one ordering in
// which every task can reach its declared maximum and finish.
func (l *Ledger[R]) Safe() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.safe()
}

// ResourceID resolves a registered identity to its slot id.  Resource sets
// are expected to stay small, so a linear scan is deliberate.
func (l *Ledger[R]) ResourceID(identity R) (ResourceID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lookup(identity)
}

// Available returns the unallocated units of a resource.
func (l *Ledger[R]) Available(identity R) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.lookup(identity)
	if !ok {
		return 0, false
	}
	return l.available[id], true
}

// Allocated returns the units of a resource currently held by a task.
func (l *Ledger[R]) Allocated(task TaskID, identity R) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, rok := l.row(task)
	id, ok := l.lookup(identity)
	if !rok || !ok {
		return 0, false
	}
	return l.allocated[row][id], true
}

// Need returns the gap between a task's declared maximum and its allocation.
func (l *Ledger[R]) Need(task TaskID, identity R) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, rok := l.row(task)
	id, ok := l.lookup(identity)
	if !rok || !ok {
		return 0, false
	}
	return l.need[row][id], true
}

// Max returns a task's declared maximum for a resource.
func (l *Ledger[R]) Max(task TaskID, identity R) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, rok := l.row(task)
	id, ok := l.lookup(identity)
	if !rok || !ok {
		return 0, false
	}
	return l.max[row][id], true
}

// Tasks returns the number of task rows ever created.
func (l *Ledger[R]) Tasks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.numTasks
}

func (l *Ledger[R]) lookup(identity R) (ResourceID, bool) {
	for i := range l.slots {
		if l.slots[i].occupied && l.slots[i].identity == identity {
			return ResourceID(i), true
		}
	}
	return 0, false
}

func (l *Ledger[R]) row(task TaskID) (int, bool) {
	if task < 1 || int(task) > l.numTasks {
		return 0, false
	}
	return int(task) - 1, true
}

func zero(row []int) {
	for i := range row {
		row[i] = 0
	}
}
