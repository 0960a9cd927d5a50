// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package docstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/platform/docstore"
)

/*
TestMemory_WriteMergeAndReplace checks both write modes.
*/
func TestMemory_WriteMergeAndReplace(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	require.NoError(t, store.Write(ctx, "users", "u1", map[string]any{"name": "Tai", "isAdmin": true}, false))
	require.NoError(t, store.Write(ctx, "users", "u1", map[string]any{"name": "Tai B"}, true))

	document, err := store.Read(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Tai B", document.Fields["name"])
	assert.Equal(t, true, document.Fields["isAdmin"])

	require.NoError(t, store.Write(ctx, "users", "u1", map[string]any{"name": "Only"}, false))
	document, err = store.Read(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Only"}, document.Fields)
}

/*
TestMemory_ReadReturnsCopy ensures callers cannot mutate stored state.
*/
func TestMemory_ReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	require.NoError(t, store.Write(ctx, "users", "u1", map[string]any{"name": "Tai"}, false))

	document, err := store.Read(ctx, "users", "u1")
	require.NoError(t, err)
	document.Fields["name"] = "tampered"

	again, err := store.Read(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Tai", again.Fields["name"])
}

/*
TestMemory_MissingDocuments returns ErrNotFound from every keyed operation.
*/
func TestMemory_MissingDocuments(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	_, err := store.Read(ctx, "users", "ghost")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "users", "ghost", map[string]any{"isDisabled": true}), docstore.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "users", "ghost"), docstore.ErrNotFound)
	assert.True(t, docstore.IsNotFound(store.Delete(ctx, "users", "ghost")))
}

/*
TestMemory_QueryOrdersByFieldMissingLast sorts timestamps descending.
*/
func TestMemory_QueryOrdersByFieldMissingLast(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	t1 := docstore.FormatTime(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	t2 := docstore.FormatTime(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	require.NoError(t, store.Write(ctx, "users", "old", map[string]any{"lastUpdated": t1}, false))
	require.NoError(t, store.Write(ctx, "users", "legacy", map[string]any{"name": "no timestamp"}, false))
	require.NoError(t, store.Write(ctx, "users", "new", map[string]any{"lastUpdated": t2}, false))

	documents, err := store.Query(ctx, "users", "lastUpdated", docstore.Descending)
	require.NoError(t, err)

	keys := make([]string, 0, len(documents))
	for _, document := range documents {
		keys = append(keys, document.Key)
	}
	assert.Equal(t, []string{"new", "old", "legacy"}, keys)

	documents, err = store.Query(ctx, "users", "lastUpdated", docstore.Ascending)
	require.NoError(t, err)
	assert.Equal(t, "old", documents[0].Key)
	assert.Equal(t, "legacy", documents[2].Key)
}

/*
TestParseTime accepts both timestamp spellings.
*/
func TestParseTime(t *testing.T) {
	expected := time.Date(2026, 5, 4, 3, 2, 1, 500_000_000, time.UTC)

	assert.Equal(t, expected, docstore.ParseTime("2026-05-04T03:02:01.500Z"))
	assert.Equal(t, expected, docstore.ParseTime("2026-05-04T05:02:01.5+02:00"))
	assert.True(t, docstore.ParseTime(42).IsZero())
	assert.True(t, docstore.ParseTime("yesterday").IsZero())
}
