// Package daotest holds a behavioural test shared by snapshot stores.
package daotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/snapshot"
)

// Run exercises srv against the dao.Service contract.
func Run(t *testing.T, srv dao.Service[string, snapshot.Snapshot]) {
	ctx := context.Background()
	createdAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := srv.Load(ctx, "s1")
	assert.True(t, errors.Is(err, dao.ErrNotFound), "load before save: %v", err)
	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, srv.Save(ctx, &snapshot.Snapshot{}), dao.ErrInvalidID)

	for _, id := range []string{"s2", "s1", "s3"} {
		require.NoError(t, srv.Save(ctx, &snapshot.Snapshot{
			ID:        id,
			Tick:      7,
			Processes: 2,
			Checksum:  "abc",
			Data:      []byte("data-" + id),
			CreatedAt: createdAt,
		}))
	}

	loaded, err := srv.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", loaded.ID)
	assert.EqualValues(t, 7, loaded.Tick)
	assert.Equal(t, 2, loaded.Processes)
	assert.Equal(t, []byte("data-s1"), loaded.Data)
	assert.True(t, createdAt.Equal(loaded.CreatedAt))

	loaded.Data[0] = 'X'
	again, err := srv.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("data-s1"), again.Data, "stored data must not alias")

	require.NoError(t, srv.Save(ctx, &snapshot.Snapshot{ID: "s1", Tick: 8, Data: []byte("next")}))
	loaded, err = srv.Load(ctx, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 8, loaded.Tick)

	all, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, ids(all))

	some, err := srv.List(ctx, dao.NewParameter("ID", "s3", "s1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s3"}, ids(some))

	require.NoError(t, srv.Delete(ctx, "s2"))
	assert.ErrorIs(t, srv.Delete(ctx, "s2"), dao.ErrNotFound)
	_, err = srv.Load(ctx, "s2")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	all, err = srv.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s3"}, ids(all))
}

func ids(snapshots []*snapshot.Snapshot) []string {
	var ret []string
	for _, s := range snapshots {
		ret = append(ret, s.ID)
	}
	return ret
}
