package conversation

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goldenfocus/vibelog-assistant/internal/cost"
	"github.com/goldenfocus/vibelog-assistant/internal/llm"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

const titleTimeout = 15 * time.Second

// TitleStore persists generated titles.
type TitleStore interface {
	SetTitle(ctx context.Context, conversationID, title string) error
}

// SpendGovernor is the cost-accounting surface the titler needs. Title
// calls are cheap but still governed: once the daily ceiling is hit no
// provider call of any kind goes out.
type SpendGovernor interface {
	Record(ctx context.Context, entry model.CostEntry) bool
	LimitExceeded(ctx context.Context) bool
}

// Titler generates a short conversation title after the first turn.
// Best effort: failures are logged and the conversation stays untitled.
type Titler struct {
	store    TitleStore
	client   llm.Client
	model    string
	governor SpendGovernor
	logger   *logger.Logger
}

// NewTitler creates a titler. Client may be nil, in which case
// GenerateAsync is a no-op.
func NewTitler(store TitleStore, client llm.Client, modelName string, governor SpendGovernor, log *logger.Logger) *Titler {
	return &Titler{store: store, client: client, model: modelName, governor: governor, logger: log}
}

// GenerateAsync titles the conversation in a detached goroutine. The
// call is skipped entirely when the daily spend ceiling has been
// reached, and its cost is recorded like any other completion.
func (t *Titler) GenerateAsync(conversationID, firstMessage string) {
	if t.client == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
		defer cancel()

		if t.governor.LimitExceeded(ctx) {
			t.logger.Info("skipping title generation, spend ceiling reached",
				zap.String("conversation_id", conversationID))
			return
		}

		resp, err := t.client.Complete(ctx, &llm.CompletionRequest{
			Model: t.model,
			Messages: []llm.ChatMessage{{
				Role:    "user",
				Content: "Write a title of at most six words for a conversation that starts with this message. Reply with the title only.\n\n" + firstMessage,
			}},
			MaxTokens: 32,
		})
		if err != nil {
			t.logger.Warn("title generation failed",
				zap.String("conversation_id", conversationID), zap.Error(err))
			return
		}

		modelName := resp.Model
		if modelName == "" {
			modelName = t.model
		}
		t.governor.Record(ctx, model.CostEntry{
			Timestamp: time.Now(),
			Model:     modelName,
			CostUSD:   cost.Price(modelName, resp.TokensIn, resp.TokensOut),
			Metadata:  map[string]string{"endpoint": "title", "conversation_id": conversationID},
		})

		title := strings.Trim(strings.TrimSpace(resp.Content), `"`)
		if title == "" {
			return
		}
		if len(title) > 256 {
			title = title[:256]
		}
		if err := t.store.SetTitle(ctx, conversationID, title); err != nil {
			t.logger.Warn("failed to store title",
				zap.String("conversation_id", conversationID), zap.Error(err))
		}
	}()
}
