package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/arbiter/internal/clock"
)

func stubClock(t *testing.T, at *time.Time) {
	t.Helper()
	prev := clock.NowFunc
	clock.NowFunc = func() time.Time { return *at }
	t.Cleanup(func() { clock.NowFunc = prev })
}

func TestBlock_Transitions(t *testing.T) {
	testCases := []struct {
		name    string
		prepare func(b *Block)
		move    func(b *Block) error
		wantErr error
		want    Status
	}{
		{
			name:    "ready to running",
			prepare: func(b *Block) {},
			move:    (*Block).ToRunning,
			want:    StatusRunning,
		},
		{
			name:    "running to ready",
			prepare: func(b *Block) { require.NoError(t, b.ToRunning()) },
			move:    (*Block).ToReady,
			want:    StatusReady,
		},
		{
			name:    "ready to ready rejected",
			prepare: func(b *Block) {},
			move:    (*Block).ToReady,
			wantErr: ErrNotRunning,
			want:    StatusReady,
		},
		{
			name: "running to running rejected",
			prepare: func(b *Block) {
				require.NoError(t, b.ToRunning())
			},
			move:    (*Block).ToRunning,
			wantErr: ErrNotReady,
			want:    StatusRunning,
		},
		{
			name:    "exited to running rejected",
			prepare: func(b *Block) { b.Exit() },
			move:    (*Block).ToRunning,
			wantErr: ErrNotReady,
			want:    StatusExited,
		},
		{
			name:    "exited to ready rejected",
			prepare: func(b *Block) { b.Exit() },
			move:    (*Block).ToReady,
			wantErr: ErrNotRunning,
			want:    StatusExited,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBlock(Context{}, 8)
			tc.prepare(b)
			err := tc.move(b)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.want, b.Status(), "a rejected transition must not mutate state")
		})
	}
}

func TestBlock_ExitIsTerminalAndIdempotent(t *testing.T) {
	b := NewBlock(Context{}, 8)
	require.NoError(t, b.ToRunning())
	b.Exit()
	require.Equal(t, StatusExited, b.Status())
	b.Exit()
	require.Equal(t, StatusExited, b.Status())
}

func TestBlock_StartStampedOnce(t *testing.T) {
	now := time.UnixMilli(42_000)
	stubClock(t, &now)

	b := NewBlock(Context{}, 8)
	require.Zero(t, b.StartedAtMillis())

	require.NoError(t, b.ToRunning())
	require.Equal(t, int64(42_000), b.StartedAtMillis())

	// Later cycles through Ready must not restamp.
	for i := 0; i < 3; i++ {
		now = now.Add(10 * time.Second)
		require.NoError(t, b.ToReady())
		require.NoError(t, b.ToRunning())
	}
	require.Equal(t, int64(42_000), b.StartedAtMillis())
}

func TestBlock_SysCallInc(t *testing.T) {
	b := NewBlock(Context{}, 4)
	require.True(t, b.SysCallInc(1))
	require.NoError(t, b.ToRunning())
	require.True(t, b.SysCallInc(1))
	require.False(t, b.SysCallInc(4), "out of range id")
	require.False(t, b.SysCallInc(-1))

	b.Exit()
	require.False(t, b.SysCallInc(1), "counters freeze after exit")

	info := b.Info()
	require.Equal(t, []uint32{0, 2, 0, 0}, info.SyscallTimes)
}

func TestBlock_InfoRunningTime(t *testing.T) {
	now := time.UnixMilli(1_000)
	stubClock(t, &now)

	b := NewBlock(Context{}, 4)
	require.Zero(t, b.Info().RunningMillis, "unstarted task has no running time")

	require.NoError(t, b.ToRunning())
	now = now.Add(250 * time.Millisecond)
	require.Equal(t, int64(250), b.Info().RunningMillis)
}

func TestBlock_Reset(t *testing.T) {
	now := time.UnixMilli(5_000)
	stubClock(t, &now)

	b := NewBlock(Context{Blob: []byte{1}}, 4)
	require.NoError(t, b.ToRunning())
	require.True(t, b.SysCallInc(2))
	b.Exit()

	b.Reset(Context{Blob: []byte{9}})
	require.Equal(t, StatusReady, b.Status())
	require.Zero(t, b.StartedAtMillis())
	require.Equal(t, []uint32{0, 0, 0, 0}, b.Info().SyscallTimes)
	require.Equal(t, []byte{9}, b.Context().Blob)
}

func TestTable_CreateGetReady(t *testing.T) {
	table := NewTable(8)
	require.Nil(t, table.Get(1))

	id1 := table.Create(Context{})
	id2 := table.Create(Context{})
	require.Equal(t, 1, id1)
	require.Equal(t, 2, id2)
	require.Equal(t, 2, table.Len())
	require.Nil(t, table.Get(0))
	require.Nil(t, table.Get(3))

	require.Equal(t, []int{1, 2}, table.Ready())
	require.NoError(t, table.Get(id1).ToRunning())
	require.Equal(t, []int{2}, table.Ready())
	table.Get(id2).Exit()
	require.Empty(t, table.Ready())
}

func TestTable_RowsRestore(t *testing.T) {
	now := time.UnixMilli(7_000)
	stubClock(t, &now)

	table := NewTable(4)
	id := table.Create(Context{Blob: []byte("cx")})
	require.NoError(t, table.Get(id).ToRunning())
	require.True(t, table.Get(id).SysCallInc(3))

	rows := table.Rows()
	require.Len(t, rows, 1)

	restored := NewTable(4)
	restored.Restore(rows)
	b := restored.Get(id)
	require.Equal(t, StatusRunning, b.Status())
	require.Equal(t, int64(7_000), b.StartedAtMillis())
	require.Equal(t, []uint32{0, 0, 0, 1}, b.Info().SyscallTimes)
	require.Equal(t, []byte("cx"), b.Context().Blob)
}
