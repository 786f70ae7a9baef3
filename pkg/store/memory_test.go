package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	s := NewMemoryStore()
	var out doc
	found, err := s.Get(context.Background(), "a/b", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStoreSetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "sheets/T1/AB12/100001", doc{Name: "Ana", Score: 7}))

	var out doc
	found, err := s.Get(ctx, "sheets/T1/AB12/100001", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc{Name: "Ana", Score: 7}, out)
}

func TestMemoryStorePatchMergesFields(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "d", doc{Name: "Ana", Score: 7}))
	require.NoError(t, s.Patch(ctx, "d", map[string]interface{}{"score": 9}))

	var out doc
	found, err := s.Get(ctx, "d", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ana", out.Name)
	assert.Equal(t, 9, out.Score)
}

func TestMemoryStoreDeleteAllIsPrefixScoped(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "sheets/T1/AB12/100001", doc{}))
	require.NoError(t, s.Set(ctx, "sheets/T1/AB12/100002", doc{}))
	require.NoError(t, s.Set(ctx, "sheets/T1/AB129/100001", doc{}))

	require.NoError(t, s.DeleteAll(ctx, "sheets/T1/AB12"))

	var out doc
	found, err := s.Get(ctx, "sheets/T1/AB12/100001", &out)
	require.NoError(t, err)
	assert.False(t, found)

	// sibling prefix sharing the same leading characters survives
	found, err = s.Get(ctx, "sheets/T1/AB129/100001", &out)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryStoreListTrimsPrefix(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "enrollments/sub1/acc1", doc{Name: "Ana"}))
	require.NoError(t, s.Set(ctx, "enrollments/sub1/acc2", doc{Name: "Ben"}))
	require.NoError(t, s.Set(ctx, "enrollments/sub2/acc3", doc{Name: "Cid"}))

	docs, err := s.List(ctx, "enrollments/sub1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Contains(t, docs, "acc1")
	assert.Contains(t, docs, "acc2")
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Delete(ctx, "missing"))
	require.NoError(t, s.Set(ctx, "d", doc{}))
	require.NoError(t, s.Delete(ctx, "d"))
	require.NoError(t, s.Delete(ctx, "d"))
}
