package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/viant/arbiter/service/dao"
	"github.com/viant/arbiter/state"
)

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := New()

	require.ErrorIs(t, svc.Save(ctx, nil), dao.ErrNilEntity)
	require.ErrorIs(t, svc.Save(ctx, &state.Checkpoint{}), dao.ErrInvalidID)
	_, err := svc.Load(ctx, "missing")
	require.ErrorIs(t, err, dao.ErrNotFound)

	checkpoint := &state.Checkpoint{ID: "c1", CreatedAt: time.UnixMilli(1000)}
	require.NoError(t, svc.Save(ctx, checkpoint))

	loaded, err := svc.Load(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, checkpoint.ID, loaded.ID)

	// Stored copies must be isolated from caller mutation.
	loaded.ID = "mutated"
	again, err := svc.Load(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "c1", again.ID)

	require.NoError(t, svc.Save(ctx, &state.Checkpoint{ID: "c2"}))
	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	only, err := svc.List(ctx, dao.NewParameter(dao.ParameterIDs, "c2"))
	require.NoError(t, err)
	require.Len(t, only, 1)
	require.Equal(t, "c2", only[0].ID)

	require.NoError(t, svc.Delete(ctx, "c1"))
	require.ErrorIs(t, svc.Delete(ctx, "c1"), dao.ErrNotFound)
}
