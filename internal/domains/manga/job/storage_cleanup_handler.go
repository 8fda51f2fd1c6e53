package job

import (
	"context"
	"encoding/json"
	"fmt"

	"mangazinho-backend/internal/infrastructure/storage"
	"mangazinho-backend/internal/shared"
	"mangazinho-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// StorageCleanupHandler removes a manga's or chapter's directory after
// the cascade delete committed. Runs in the worker; asynq retries on
// failure, so a transient filesystem error does not strand the tree.
type StorageCleanupHandler struct {
	storage *storage.LocalStorage
}

func NewStorageCleanupHandler(store *storage.LocalStorage) *StorageCleanupHandler {
	return &StorageCleanupHandler{storage: store}
}

func (h *StorageCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.RemoveTreePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid %s payload: %w", shared.TypeStorageRemoveTree, err)
	}

	if payload.Dir == "" {
		return fmt.Errorf("empty dir in %s payload", shared.TypeStorageRemoveTree)
	}

	if err := h.storage.RemoveTree(payload.Dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", payload.Dir, err)
	}

	logger.Info("storage tree removed", map[string]interface{}{
		"dir": payload.Dir,
	})
	return nil
}
