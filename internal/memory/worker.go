package memory

import (
	"context"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	natsclient "github.com/goldenfocus/vibelog-assistant/internal/nats"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

// extractionTimeout bounds one turn's extraction pass, which may make
// one embedding call per extracted fact.
const extractionTimeout = 30 * time.Second

// Worker consumes completed turn events and runs memory extraction.
// It is the detached half of the fire-and-forget contract: extraction
// failures are observable in logs and metrics but can never block or
// fail the user-visible turn.
type Worker struct {
	streamManager *natsclient.StreamManager
	store         *Store
	logger        *logger.Logger
	consume       jetstream.ConsumeContext
}

// NewWorker creates an extraction worker.
func NewWorker(streamManager *natsclient.StreamManager, store *Store, log *logger.Logger) *Worker {
	return &Worker{streamManager: streamManager, store: store, logger: log}
}

// Start begins consuming turn events.
func (w *Worker) Start(ctx context.Context) error {
	cc, err := w.streamManager.ConsumeTurns(ctx, w.handleTurn)
	if err != nil {
		return err
	}
	w.consume = cc
	w.logger.Info("memory extraction worker started")
	return nil
}

// Stop halts consumption.
func (w *Worker) Stop() {
	if w.consume != nil {
		w.consume.Stop()
	}
}

func (w *Worker) handleTurn(ctx context.Context, event *model.TurnEvent) error {
	if event.UserID == "" {
		// Anonymous turns carry nothing worth remembering.
		return nil
	}

	extractCtx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	stored := w.store.ExtractFromTurn(extractCtx, event.UserID, event.UserMessage, event.AssistantMessage)
	if stored > 0 {
		w.logger.Info("extracted memories from turn",
			zap.String("user_id", event.UserID),
			zap.String("conversation_id", event.ConversationID),
			zap.Int("stored", stored),
		)
		metrics.MemoryExtractionsTotal.WithLabelValues("stored").Add(float64(stored))
	} else {
		metrics.MemoryExtractionsTotal.WithLabelValues("empty").Inc()
	}
	return nil
}
