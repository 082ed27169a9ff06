package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/goldenfocus/vibelog-assistant/internal/memory"
	"github.com/goldenfocus/vibelog-assistant/internal/middleware"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

const memoryListLimit = 100

// MemoryHandler exposes a user's stored memories for inspection and
// deletion.
type MemoryHandler struct {
	store  *memory.Store
	logger *logger.Logger
}

// NewMemoryHandler creates a memory handler.
func NewMemoryHandler(store *memory.Store, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{store: store, logger: log}
}

// List handles GET /api/v1/assistant/memories
func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	memories, err := h.store.GetAll(ctx, userID, memoryListLimit)
	if err != nil {
		h.logger.Error("failed to list memories")
		writeError(w, http.StatusInternalServerError, "failed to list memories")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"memories": memories,
		"total":    len(memories),
	})
}

// Delete handles DELETE /api/v1/assistant/memories/{id}
func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	memoryID := chi.URLParam(r, "id")

	if err := middleware.ValidateMemoryID(memoryID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.store.Delete(ctx, memoryID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "memory not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete memory")
		writeError(w, http.StatusInternalServerError, "failed to delete memory")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/v1/assistant/memories
func (h *MemoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.store.ClearAll(ctx, userID); err != nil {
		h.logger.Error("failed to clear memories")
		writeError(w, http.StatusInternalServerError, "failed to clear memories")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
