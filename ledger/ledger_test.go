package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// requireConserved asserts available[r] + sum of allocations == total for a
// registered resource.
func requireConserved(t *testing.T, l *Ledger[string], identity string, total int) {
	t.Helper()
	available, ok := l.Available(identity)
	require.True(t, ok)
	sum := available
	for task := TaskID(1); int(task) <= l.Tasks(); task++ {
		allocated, ok := l.Allocated(task, identity)
		require.True(t, ok)
		sum += allocated
	}
	require.Equal(t, total, sum, "conservation violated for %v", identity)
}

// requireNeedConsistent asserts need == max - allocated for every task row.
func requireNeedConsistent(t *testing.T, l *Ledger[string], identity string) {
	t.Helper()
	for task := TaskID(1); int(task) <= l.Tasks(); task++ {
		max, _ := l.Max(task, identity)
		allocated, _ := l.Allocated(task, identity)
		need, _ := l.Need(task, identity)
		require.Equal(t, max-allocated, need, "need inconsistent for task %d", task)
	}
}

func TestLedger_GrantReleaseScenario(t *testing.T) {
	l := New[string]()
	l.Register("disk", 10)
	t1 := l.AddTask()
	t2 := l.AddTask()
	require.Equal(t, TaskID(1), t1)
	require.Equal(t, TaskID(2), t2)

	l.Grant(t1, "disk", 7)
	available, _ := l.Available("disk")
	require.Equal(t, 3, available)
	requireConserved(t, l, "disk", 10)
	requireNeedConsistent(t, l, "disk")

	require.False(t, l.TryAdmit(t2, "disk", 5), "request above available pool")
	require.True(t, l.TryAdmit(t2, "disk", 3))

	// TryAdmit must leave no trace either way.
	max2, _ := l.Max(t2, "disk")
	need2, _ := l.Need(t2, "disk")
	require.Zero(t, max2)
	require.Zero(t, need2)
	requireConserved(t, l, "disk", 10)

	require.True(t, l.Release(t1, "disk", 4))
	available, _ = l.Available("disk")
	require.Equal(t, 7, available)
	allocated, _ := l.Allocated(t1, "disk")
	require.Equal(t, 3, allocated)
	need, _ := l.Need(t1, "disk")
	require.Equal(t, 4, need)
	requireConserved(t, l, "disk", 10)
	requireNeedConsistent(t, l, "disk")
}

func TestLedger_ReleaseRejections(t *testing.T) {
	l := New[string]()
	l.Register("sem", 5)
	task := l.AddTask()
	l.Grant(task, "sem", 2)

	require.False(t, l.Release(TaskID(99), "sem", 1), "unknown task")
	require.False(t, l.Release(task, "nope", 1), "unknown resource")
	require.False(t, l.Release(task, "sem", 3), "release above allocation")
	require.False(t, l.Release(task, "sem", -1), "negative amount")

	// A rejected release must not move the books.
	allocated, _ := l.Allocated(task, "sem")
	require.Equal(t, 2, allocated)
	requireConserved(t, l, "sem", 5)
}

func TestLedger_GrantPanicsAboveAvailable(t *testing.T) {
	l := New[string]()
	l.Register("sem", 2)
	task := l.AddTask()

	require.Panics(t, func() { l.Grant(task, "sem", 3) })
	require.Panics(t, func() { l.Grant(task, "missing", 1) })
	require.Panics(t, func() { l.Grant(TaskID(7), "sem", 1) })
}

func TestLedger_SlotRecycling(t *testing.T) {
	l := New[string]()
	idA := l.Register("a", 4)
	task := l.AddTask()
	l.Grant(task, "a", 4)

	require.True(t, l.Unregister("a"))
	_, ok := l.ResourceID("a")
	require.False(t, ok)

	// B must land in A's former slot with a clean column.
	idB := l.Register("b", 9)
	require.Equal(t, idA, idB)
	available, _ := l.Available("b")
	require.Equal(t, 9, available)
	allocated, _ := l.Allocated(task, "b")
	require.Zero(t, allocated)
	max, _ := l.Max(task, "b")
	require.Zero(t, max)
	need, _ := l.Need(task, "b")
	require.Zero(t, need)

	require.False(t, l.Unregister("a"), "already gone")
}

func TestLedger_RegisterExtendsExistingRows(t *testing.T) {
	l := New[string]()
	task := l.AddTask()
	l.Register("late", 3)

	// The pre-existing task row must have grown a zero column.
	require.True(t, l.TryAdmit(task, "late", 3))
	l.Grant(task, "late", 1)
	requireConserved(t, l, "late", 3)
	requireNeedConsistent(t, l, "late")
}

func TestLedger_RemoveTaskZeroesRow(t *testing.T) {
	l := New[string]()
	l.Register("sem", 6)
	t1 := l.AddTask()
	l.Grant(t1, "sem", 4)

	require.False(t, l.RemoveTask(TaskID(0)))
	require.False(t, l.RemoveTask(TaskID(2)))
	require.True(t, l.RemoveTask(t1))

	allocated, _ := l.Allocated(t1, "sem")
	require.Zero(t, allocated)
	// The removed task's holdings flow back into the pool.
	available, _ := l.Available("sem")
	require.Equal(t, 6, available)
	requireConserved(t, l, "sem", 6)
	// Ids never recycle: the next task gets a fresh row.
	t2 := l.AddTask()
	require.Equal(t, TaskID(2), t2)
}

func TestLedger_AdmissionSoundness(t *testing.T) {
	l := New[string]()
	l.Register("sem", 10)
	t1 := l.AddTask()
	t2 := l.AddTask()
	l.Grant(t1, "sem", 7)

	amount := 3
	require.True(t, l.TryAdmit(t2, "sem", amount))
	l.Grant(t2, "sem", amount)
	require.True(t, l.Safe(), "real grant after positive admission must stay safe")
	requireConserved(t, l, "sem", 10)
}

func TestLedger_SnapshotRestore(t *testing.T) {
	l := New[string]()
	l.Register("a", 5)
	l.Register("b", 2)
	task := l.AddTask()
	l.Grant(task, "a", 3)
	require.True(t, l.Unregister("b"))

	snapshot := l.Snapshot()

	restored := New[string]()
	restored.Restore(snapshot)
	require.Equal(t, l.Tasks(), restored.Tasks())
	allocated, _ := restored.Allocated(task, "a")
	require.Equal(t, 3, allocated)
	available, _ := restored.Available("a")
	require.Equal(t, 2, available)

	// The recycled slot must survive the round trip.
	id := restored.Register("c", 1)
	require.Equal(t, ResourceID(1), id)

	// Mutating the restored ledger must not leak back into the snapshot.
	require.True(t, restored.Release(task, "a", 3))
	require.Equal(t, 3, snapshot.Allocated[0][0])
}
