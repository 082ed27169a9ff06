// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/goldenfocus/vibelog-assistant/internal/agent"
	"github.com/goldenfocus/vibelog-assistant/internal/conversation"
	"github.com/goldenfocus/vibelog-assistant/internal/cost"
	"github.com/goldenfocus/vibelog-assistant/internal/middleware"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

// ChatHandler handles the assistant chat endpoint.
type ChatHandler struct {
	agent  *agent.Agent
	logger *logger.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(a *agent.Agent, log *logger.Logger) *ChatHandler {
	return &ChatHandler{agent: a, logger: log}
}

// Chat handles POST /api/v1/assistant/chat. Anonymous requests are
// served without profile or memory context.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID != "" {
		if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.agent.Chat(ctx, userID, req.ConversationID, req.Message)
	switch {
	case errors.Is(err, cost.ErrDailyLimitExceeded):
		writeCodedError(w, http.StatusServiceUnavailable, "assistant_paused", agent.PausedMessage())
		return
	case errors.Is(err, conversation.ErrNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	case err != nil:
		h.logger.Error("chat turn failed")
		writeError(w, http.StatusInternalServerError, "failed to generate a response")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
