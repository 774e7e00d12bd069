package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menubot/bot-app/pkg/model"
)

func TestContentAddAndGet(t *testing.T) {
	store := newTestStorage(t)

	leaf := addButton(t, store, "Leaf", model.RootID)

	_, err := store.ContentAdd(model.ContentItem{ButtonID: leaf, Kind: model.ContentText, Text: "first"})
	require.NoError(t, err)
	_, err = store.ContentAdd(model.ContentItem{ButtonID: leaf, Kind: model.ContentPhoto, FileID: "photo-1", Text: "caption"})
	require.NoError(t, err)

	items, err := store.ContentGet(leaf)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, model.ContentText, items[0].Kind)
	assert.Equal(t, "first", items[0].Text)
	assert.Equal(t, model.ContentPhoto, items[1].Kind)
	assert.Equal(t, "photo-1", items[1].FileID)
}

func TestContentAddMissingButton(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.ContentAdd(model.ContentItem{ButtonID: 999, Kind: model.ContentText, Text: "lost"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestContentGetMissingButtonIsEmpty(t *testing.T) {
	store := newTestStorage(t)

	items, err := store.ContentGet(999)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestContentUnknownKindPreserved(t *testing.T) {
	store := newTestStorage(t)

	leaf := addButton(t, store, "Leaf", model.RootID)
	db := store.GetDatabase()
	_, err := db.Exec("INSERT INTO content (button_id, type, file_id, text, media_group_id) VALUES (?, ?, ?, ?, ?)",
		leaf, "hologram", "", "", "")
	require.NoError(t, err)

	items, err := store.ContentGet(leaf)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.ContentUnknown, items[0].Kind)
}

func TestContentMediaGroupRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	leaf := addButton(t, store, "Leaf", model.RootID)
	_, err := store.ContentAdd(model.ContentItem{ButtonID: leaf, Kind: model.ContentPhoto, FileID: "p1", MediaGroupID: "album-7"})
	require.NoError(t, err)

	items, err := store.ContentGet(leaf)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "album-7", items[0].MediaGroupID)
}

func TestContentClear(t *testing.T) {
	store := newTestStorage(t)

	leaf := addButton(t, store, "Leaf", model.RootID)
	_, err := store.ContentAdd(model.ContentItem{ButtonID: leaf, Kind: model.ContentText, Text: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, store.ContentClear(leaf))

	items, err := store.ContentGet(leaf)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Clearing again is a no-op.
	require.NoError(t, store.ContentClear(leaf))
}
