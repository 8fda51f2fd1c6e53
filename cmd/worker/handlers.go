package main

import (
	"github.com/hibiken/asynq"

	chapterJob "mangazinho-backend/internal/domains/chapter/job"
	mangaJob "mangazinho-backend/internal/domains/manga/job"
	"mangazinho-backend/internal/shared"
	"mangazinho-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	storageCleanup *mangaJob.StorageCleanupHandler
	reconcile      *chapterJob.ReconcileHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		storageCleanup: mangaJob.NewStorageCleanupHandler(c.Storage),
		reconcile: chapterJob.NewReconcileHandler(
			c.MangaRepo,
			c.ChapterRepo,
			c.Storage,
		),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeStorageRemoveTree, h.storageCleanup.ProcessTask)
	mux.HandleFunc(shared.TypeStorageReconcile, h.reconcile.ProcessTask)
}
