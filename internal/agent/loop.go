package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/goldenfocus/vibelog-assistant/internal/config"
	"github.com/goldenfocus/vibelog-assistant/internal/cost"
	"github.com/goldenfocus/vibelog-assistant/internal/llm"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

// ErrTurnFailed is the generic terminal failure for a turn. The
// underlying provider error is logged, not surfaced.
var ErrTurnFailed = errors.New("assistant turn failed")

// CostGovernor is the spend circuit breaker surface the loop needs.
type CostGovernor interface {
	Record(ctx context.Context, entry model.CostEntry) bool
	LimitExceeded(ctx context.Context) bool
}

// ConversationStore persists turns and serves history.
type ConversationStore interface {
	Resolve(ctx context.Context, userID, conversationID string) (*model.Conversation, error)
	AppendTurn(ctx context.Context, conv *model.Conversation, userMsg, assistantMsg *model.Message) error
	History(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
}

// TurnPublisher enqueues completed turns for background processing.
type TurnPublisher interface {
	PublishTurn(ctx context.Context, event *model.TurnEvent) (uint64, error)
}

// TitleGenerator titles a conversation after its first turn.
type TitleGenerator interface {
	GenerateAsync(conversationID, firstMessage string)
}

// Agent is the cost-governed tool-calling engine.
type Agent struct {
	llm       llm.Client
	executor  *Executor
	assembler *ContextAssembler
	governor  CostGovernor
	convs     ConversationStore
	turns     TurnPublisher
	titler    TitleGenerator
	cfg       *config.Reloader
	logger    *logger.Logger
	encoder   *tiktoken.Tiktoken
}

// NewAgent wires the orchestration core. titler and turns may be nil
// in tests.
func NewAgent(
	llmClient llm.Client,
	executor *Executor,
	assembler *ContextAssembler,
	governor CostGovernor,
	convs ConversationStore,
	turns TurnPublisher,
	titler TitleGenerator,
	cfg *config.Reloader,
	log *logger.Logger,
) *Agent {
	// Token counts only gate history trimming, so a missing encoding
	// falls back to a rough estimate rather than failing startup.
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Warn("tiktoken encoding unavailable, using rough token estimates", zap.Error(err))
		encoder = nil
	}

	return &Agent{
		llm:       llmClient,
		executor:  executor,
		assembler: assembler,
		governor:  governor,
		convs:     convs,
		turns:     turns,
		titler:    titler,
		cfg:       cfg,
		logger:    log,
		encoder:   encoder,
	}
}

// Chat runs one assistant turn: context assembly, intent routing, up
// to MaxIterations tool-calling rounds, cost accounting, persistence,
// and the detached memory-extraction enqueue.
func (a *Agent) Chat(ctx context.Context, userID, conversationID, message string) (*model.ChatResponse, error) {
	cfg := a.cfg.Current()

	// Early circuit breaker: when the ceiling is hit the turn is
	// refused before any paid call is made.
	if a.governor.LimitExceeded(ctx) {
		metrics.CostLimitBlocksTotal.Inc()
		return nil, cost.ErrDailyLimitExceeded
	}

	conv, err := a.convs.Resolve(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	history, err := a.convs.History(ctx, conv.ID, cfg.HistoryWindow)
	if err != nil {
		a.logger.Warn("failed to load history, continuing without it",
			zap.String("conversation_id", conv.ID), zap.Error(err))
		history = nil
	}

	intent := DetectIntent(message)
	contextBlock := a.assembler.Build(ctx, userID, message)

	messages := a.buildMessages(cfg, intent, contextBlock, history, message)

	var (
		final      string
		sources    []model.Source
		totalIn    int
		totalOut   int
		modelUsed  = cfg.AgentModel
		rounds     int
		terminated bool
		paused     bool
	)

	for rounds = 1; rounds <= cfg.MaxIterations; rounds++ {
		resp, err := a.complete(ctx, cfg, messages)
		if err != nil {
			a.logger.Error("llm call failed",
				zap.String("conversation_id", conv.ID), zap.Int("round", rounds), zap.Error(err))
			return nil, ErrTurnFailed
		}

		totalIn += resp.TokensIn
		totalOut += resp.TokensOut
		if resp.Model != "" {
			modelUsed = resp.Model
		}

		if len(resp.ToolCalls) == 0 {
			final = resp.Content
			terminated = true
			break
		}

		messages = append(messages, llm.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		results, roundSources := a.executeRound(ctx, resp.ToolCalls)
		messages = append(messages, results...)
		sources = appendSources(sources, roundSources)

		// Mid-request breaker: one expensive round can cross the
		// ceiling; stop asking for more before the next round.
		if a.governor.LimitExceeded(ctx) {
			paused = true
			break
		}
	}

	if rounds > cfg.MaxIterations {
		rounds = cfg.MaxIterations
	}
	metrics.AgentIterations.Observe(float64(rounds))

	if !terminated {
		sources = nil
		if paused {
			metrics.CostLimitBlocksTotal.Inc()
			a.logger.Warn("turn paused mid-request, spend ceiling reached",
				zap.String("conversation_id", conv.ID), zap.Int("round", rounds))
			final = pausedMessage
		} else {
			final = fallbackMessage
		}
	}

	costUSD := cost.Price(modelUsed, totalIn, totalOut)
	a.governor.Record(ctx, model.CostEntry{
		Timestamp: time.Now(),
		UserID:    userID,
		Model:     modelUsed,
		CostUSD:   costUSD,
		Metadata: map[string]string{
			"endpoint":   "chat",
			"intent":     string(intent),
			"tokens_in":  fmt.Sprintf("%d", totalIn),
			"tokens_out": fmt.Sprintf("%d", totalOut),
		},
	})

	a.persistTurn(ctx, conv, message, final, sources, totalIn+totalOut)

	if conv.MessageCount == 0 && a.titler != nil {
		a.titler.GenerateAsync(conv.ID, message)
	}

	a.enqueueExtraction(conv.ID, userID, message, final)

	return &model.ChatResponse{
		ConversationID: conv.ID,
		Message:        final,
		Sources:        sources,
		TokensUsed:     totalIn + totalOut,
	}, nil
}

// PausedMessage is the user-facing text for the cost breaker.
func PausedMessage() string {
	return pausedMessage
}

func (a *Agent) complete(ctx context.Context, cfg *config.Config, messages []llm.ChatMessage) (*llm.CompletionResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	resp, err := a.llm.Complete(callCtx, &llm.CompletionRequest{
		Model:       cfg.AgentModel,
		Messages:    messages,
		Tools:       Manifest(),
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		metrics.RecordLLMCall(cfg.AgentModel, "error", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	metrics.RecordLLMCall(resp.Model, "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	return resp, nil
}

// executeRound runs every tool call of one round. Calls are read-only
// and independent, so they run concurrently, but results are appended
// in request order so the model can correlate them.
func (a *Agent) executeRound(ctx context.Context, calls []llm.ToolCall) ([]llm.ChatMessage, []model.Source) {
	payloads := make([]json.RawMessage, len(calls))
	callSources := make([][]model.Source, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			payloads[i], callSources[i] = a.executor.Execute(ctx, ToolName(call.Name), call.Arguments)
		}(i, call)
	}
	wg.Wait()

	results := make([]llm.ChatMessage, len(calls))
	var sources []model.Source
	for i, call := range calls {
		results[i] = llm.ChatMessage{
			Role:       "tool",
			Content:    string(payloads[i]),
			ToolCallID: call.ID,
		}
		sources = append(sources, callSources[i]...)
	}
	return results, sources
}

// buildMessages assembles system instructions, capped history, and the
// current user message, trimming oldest history first while over the
// prompt token budget.
func (a *Agent) buildMessages(cfg *config.Config, intent Intent, contextBlock string, history []model.Message, message string) []llm.ChatMessage {
	system := basePrompt
	if aug := Augmentation(intent); aug != "" {
		system += "\n\n" + aug
	}
	if contextBlock != "" {
		system += "\n\n# Context\n" + contextBlock
	}

	var hist []llm.ChatMessage
	for _, m := range history {
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		hist = append(hist, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	budget := cfg.MaxPromptTokens - a.countTokens(system) - a.countTokens(message)
	for len(hist) > 0 {
		used := 0
		for _, m := range hist {
			used += a.countTokens(m.Content)
		}
		if used <= budget {
			break
		}
		hist = hist[1:]
	}

	messages := make([]llm.ChatMessage, 0, len(hist)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: system})
	messages = append(messages, hist...)
	messages = append(messages, llm.ChatMessage{Role: "user", Content: message})
	return messages
}

func (a *Agent) countTokens(text string) int {
	if a.encoder == nil {
		return len(text) / 4
	}
	return len(a.encoder.Encode(text, nil, nil))
}

// persistTurn writes both halves of the turn. A persistence failure is
// logged but never costs the user their generated answer.
func (a *Agent) persistTurn(ctx context.Context, conv *model.Conversation, userMessage, assistantMessage string, sources []model.Source, tokensUsed int) {
	now := time.Now()

	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        userMessage,
		CreatedAt:      now,
	}
	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        assistantMessage,
		TokensUsed:     tokensUsed,
		CreatedAt:      now.Add(time.Millisecond),
	}
	if len(sources) > 0 {
		if raw, err := json.Marshal(sources); err == nil {
			assistantMsg.Sources = raw
		}
	}

	if err := a.convs.AppendTurn(ctx, conv, userMsg, assistantMsg); err != nil {
		a.logger.Error("failed to persist turn",
			zap.String("conversation_id", conv.ID), zap.Error(err))
	}
}

// enqueueExtraction hands the turn to the background extraction queue
// without blocking the response path.
func (a *Agent) enqueueExtraction(conversationID, userID, userMessage, assistantMessage string) {
	if a.turns == nil || userID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := a.turns.PublishTurn(ctx, &model.TurnEvent{
			ID:               uuid.Must(uuid.NewV7()).String(),
			UserID:           userID,
			ConversationID:   conversationID,
			UserMessage:      userMessage,
			AssistantMessage: assistantMessage,
			CreatedAt:        time.Now(),
		})
		if err != nil {
			a.logger.Warn("failed to enqueue turn for extraction",
				zap.String("conversation_id", conversationID), zap.Error(err))
		}
	}()
}

func appendSources(dst, add []model.Source) []model.Source {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[string(s.Type)+"/"+s.ContentID] = true
	}
	for _, s := range add {
		key := string(s.Type) + "/" + s.ContentID
		if seen[key] {
			continue
		}
		seen[key] = true
		dst = append(dst, s)
	}
	return dst
}
