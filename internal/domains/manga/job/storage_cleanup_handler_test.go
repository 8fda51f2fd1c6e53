package job

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangazinho-backend/internal/infrastructure/storage"
	"mangazinho-backend/internal/shared"
)

func TestStorageCleanupRemovesTree(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteFile("mangas/one-piece/Cap_1/001.jpg", []byte("a")))
	require.NoError(t, store.WriteFile("mangas/one-piece/cover.jpg", []byte("b")))
	require.NoError(t, store.WriteFile("mangas/berserk/Cap_1/001.jpg", []byte("c")))

	payload, err := json.Marshal(shared.RemoveTreePayload{Dir: "mangas/one-piece"})
	require.NoError(t, err)

	h := NewStorageCleanupHandler(store)
	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeStorageRemoveTree, payload))
	require.NoError(t, err)

	assert.False(t, store.Exists("mangas/one-piece/Cap_1/001.jpg"))
	assert.False(t, store.Exists("mangas/one-piece/cover.jpg"))

	// Other mangas are untouched.
	assert.True(t, store.Exists("mangas/berserk/Cap_1/001.jpg"))
}

func TestStorageCleanupBadPayload(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	h := NewStorageCleanupHandler(store)

	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeStorageRemoveTree, []byte("not json")))
	assert.Error(t, err)

	empty, _ := json.Marshal(shared.RemoveTreePayload{})
	err = h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeStorageRemoveTree, empty))
	assert.Error(t, err)
}
