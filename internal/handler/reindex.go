package handler

import (
	"encoding/json"
	"net/http"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/internal/vector"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

var indexableTypes = map[string]bool{
	string(model.SourceVibelog): true,
	string(model.SourceComment): true,
	string(model.SourceProfile): true,
	"documentation":             true,
}

// ReindexRequest is the payload the platform's CRUD layer sends when a
// content item changes.
type ReindexRequest struct {
	ContentType string            `json:"content_type"`
	ContentID   string            `json:"content_id"`
	UserID      string            `json:"user_id,omitempty"`
	Text        string            `json:"text"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Deleted     bool              `json:"deleted,omitempty"`
}

// ReindexHandler handles the admin-scoped content ingestion hook.
type ReindexHandler struct {
	indexer *vector.Indexer
	logger  *logger.Logger
}

// NewReindexHandler creates a reindex handler.
func NewReindexHandler(indexer *vector.Indexer, log *logger.Logger) *ReindexHandler {
	return &ReindexHandler{indexer: indexer, logger: log}
}

// Reindex handles POST /api/v1/assistant/reindex
func (h *ReindexHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !indexableTypes[req.ContentType] {
		writeError(w, http.StatusBadRequest, "unsupported content type")
		return
	}
	if req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return
	}

	if req.Deleted {
		if err := h.indexer.Remove(ctx, req.ContentType, req.ContentID); err != nil {
			h.logger.Error("failed to remove content from index")
			writeError(w, http.StatusInternalServerError, "failed to remove content")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	if err := h.indexer.IndexContent(ctx, req.ContentType, req.ContentID, req.UserID, req.Text, req.Metadata); err != nil {
		h.logger.Error("failed to index content")
		writeError(w, http.StatusInternalServerError, "failed to index content")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "indexed"})
}
