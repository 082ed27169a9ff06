package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenfocus/vibelog-assistant/internal/config"
	"github.com/goldenfocus/vibelog-assistant/internal/cost"
	"github.com/goldenfocus/vibelog-assistant/internal/llm"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/internal/vector"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

// scriptedLLM returns one response per round and records every request.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []*llm.CompletionResponse
	requests  []*llm.CompletionRequest
	calls     int
}

func (s *scriptedLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.calls >= len(s.responses) {
		return nil, errors.New("no scripted response left")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func (s *scriptedLLM) Name() string     { return "scripted" }
func (s *scriptedLLM) Models() []string { return nil }

// fakeGovernor counts Record calls without any ledger behind it. Set
// flipAfter to n to report the limit exceeded from the n+1th check on,
// simulating a ceiling crossed mid-turn.
type fakeGovernor struct {
	mu        sync.Mutex
	exceeded  bool
	flipAfter int
	checks    int
	records   []model.CostEntry
}

func (g *fakeGovernor) Record(ctx context.Context, entry model.CostEntry) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = append(g.records, entry)
	return !g.exceeded
}

func (g *fakeGovernor) LimitExceeded(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++
	if g.exceeded {
		return true
	}
	return g.flipAfter > 0 && g.checks > g.flipAfter
}

// fakeConvStore keeps conversations in memory.
type fakeConvStore struct {
	mu         sync.Mutex
	convs      map[string]*model.Conversation
	messages   []model.Message
	appendErr  error
	appendHits int
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{convs: make(map[string]*model.Conversation)}
}

func (s *fakeConvStore) Resolve(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conversationID == "" {
		conv := &model.Conversation{ID: "conv-" + userID, UserID: userID, CreatedAt: time.Now()}
		s.convs[conv.ID] = conv
		return conv, nil
	}
	conv, ok := s.convs[conversationID]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	return conv, nil
}

func (s *fakeConvStore) AppendTurn(ctx context.Context, conv *model.Conversation, userMsg, assistantMsg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendHits++
	if s.appendErr != nil {
		return s.appendErr
	}
	s.messages = append(s.messages, *userMsg, *assistantMsg)
	return nil
}

func (s *fakeConvStore) History(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	return nil, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*model.TurnEvent
}

func (p *fakePublisher) PublishTurn(ctx context.Context, event *model.TurnEvent) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return uint64(len(p.events)), nil
}

type fakeMemories struct{ called bool }

func (m *fakeMemories) GetAll(ctx context.Context, userID string, limit int) ([]model.Memory, error) {
	m.called = true
	return nil, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AgentModel:      "gpt-4o-mini",
		LLMTimeout:      5 * time.Second,
		MaxIterations:   3,
		HistoryWindow:   10,
		MaxPromptTokens: 12000,
		SearchThreshold: 0.6,
	}
}

type loopFixture struct {
	agent    *Agent
	llm      *scriptedLLM
	governor *fakeGovernor
	convs    *fakeConvStore
	turns    *fakePublisher
	platform *fakePlatform
	memories *fakeMemories
}

func newLoopFixture(t *testing.T, responses []*llm.CompletionResponse) *loopFixture {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)

	platform := &fakePlatform{vibelogs: []model.Vibelog{
		{ID: "v1", Title: "Morning pages", Transcript: "On journaling out loud."},
	}}
	memories := &fakeMemories{}
	assembler := NewContextAssembler(platform, memories, vector.NewMemStore(), fixedEmbedder{}, 0.6, log)

	f := &loopFixture{
		llm:      &scriptedLLM{responses: responses},
		governor: &fakeGovernor{},
		convs:    newFakeConvStore(),
		turns:    &fakePublisher{},
		platform: platform,
		memories: memories,
	}
	f.agent = NewAgent(f.llm, NewExecutor(platform), assembler, f.governor, f.convs, f.turns, nil,
		config.NewReloader(testConfig()), log)
	return f
}

func textResponse(content string) *llm.CompletionResponse {
	return &llm.CompletionResponse{Content: content, Model: "gpt-4o-mini", TokensIn: 100, TokensOut: 20}
}

func toolResponse(calls ...llm.ToolCall) *llm.CompletionResponse {
	return &llm.CompletionResponse{ToolCalls: calls, Model: "gpt-4o-mini", TokensIn: 100, TokensOut: 10}
}

func TestChatTerminatesOnTextResponse(t *testing.T) {
	f := newLoopFixture(t, []*llm.CompletionResponse{
		toolResponse(llm.ToolCall{ID: "c1", Name: "list_recent_vibelogs", Arguments: `{}`}),
		textResponse("Here is what's new."),
	})

	resp, err := f.agent.Chat(context.Background(), "u1", "", "anything new?")
	require.NoError(t, err)
	assert.Equal(t, "Here is what's new.", resp.Message)
	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, 2, f.llm.calls)
	assert.Equal(t, 230, resp.TokensUsed)
	require.Len(t, f.governor.records, 1)
	assert.Greater(t, f.governor.records[0].CostUSD, 0.0)
}

func TestChatFallbackOnIterationExhaustion(t *testing.T) {
	call := llm.ToolCall{ID: "c1", Name: "get_platform_stats", Arguments: `{}`}
	f := newLoopFixture(t, []*llm.CompletionResponse{
		toolResponse(call), toolResponse(call), toolResponse(call),
	})

	resp, err := f.agent.Chat(context.Background(), "u1", "", "stats please")
	require.NoError(t, err)
	assert.Equal(t, fallbackMessage, resp.Message)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, 3, f.llm.calls)
	// Cost is still recorded for the wasted rounds.
	require.Len(t, f.governor.records, 1)
}

func TestChatToolResultsKeepRequestOrder(t *testing.T) {
	f := newLoopFixture(t, []*llm.CompletionResponse{
		toolResponse(
			llm.ToolCall{ID: "c1", Name: "get_platform_stats", Arguments: `{}`},
			llm.ToolCall{ID: "c2", Name: "list_recent_vibelogs", Arguments: `{}`},
			llm.ToolCall{ID: "c3", Name: "list_top_creators", Arguments: `{}`},
		),
		textResponse("done"),
	})

	_, err := f.agent.Chat(context.Background(), "u1", "", "give me everything")
	require.NoError(t, err)

	// The second request carries the assistant tool-call message plus
	// the three tool results, in the order they were requested.
	require.Len(t, f.llm.requests, 2)
	msgs := f.llm.requests[1].Messages

	var toolMsgs []llm.ChatMessage
	for _, m := range msgs {
		if m.Role == "tool" {
			toolMsgs = append(toolMsgs, m)
		}
	}
	require.Len(t, toolMsgs, 3)
	assert.Equal(t, "c1", toolMsgs[0].ToolCallID)
	assert.Equal(t, "c2", toolMsgs[1].ToolCallID)
	assert.Equal(t, "c3", toolMsgs[2].ToolCallID)
}

func TestChatPausedShortCircuit(t *testing.T) {
	f := newLoopFixture(t, nil)
	f.governor.exceeded = true

	_, err := f.agent.Chat(context.Background(), "u1", "", "hello")
	require.ErrorIs(t, err, cost.ErrDailyLimitExceeded)
	assert.Zero(t, f.llm.calls)
	assert.Empty(t, f.governor.records)
	assert.Zero(t, f.convs.appendHits)
}

func TestChatPausedMidTurn(t *testing.T) {
	// The ceiling is crossed after the first round's tool calls. The
	// turn ends with the paused message, not the generic fallback, and
	// no further rounds are requested.
	f := newLoopFixture(t, []*llm.CompletionResponse{
		toolResponse(llm.ToolCall{ID: "c1", Name: "list_recent_vibelogs", Arguments: `{}`}),
	})
	f.governor.flipAfter = 1

	resp, err := f.agent.Chat(context.Background(), "u1", "", "anything new?")
	require.NoError(t, err)
	assert.Equal(t, PausedMessage(), resp.Message)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, 1, f.llm.calls)
	// The round that did run is still billed.
	require.Len(t, f.governor.records, 1)
}

func TestChatAnonymousGuideTurn(t *testing.T) {
	f := newLoopFixture(t, []*llm.CompletionResponse{
		toolResponse(llm.ToolCall{ID: "c1", Name: "list_recent_vibelogs", Arguments: `{}`}),
		textResponse("Welcome! Vibelog is a voice-to-publish platform. Try [Morning pages](/v/v1)."),
	})

	resp, err := f.agent.Chat(context.Background(), "", "", "What is this platform?")
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "voice-to-publish")

	// The guide augmentation rides in the system message; anonymous
	// turns never touch the memory store.
	system := f.llm.requests[0].Messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, Augmentation(IntentGuide))
	assert.False(t, f.memories.called)

	// Anonymous turns are not enqueued for extraction.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.turns.events)
}

func TestChatPersistenceFailureStillAnswers(t *testing.T) {
	f := newLoopFixture(t, []*llm.CompletionResponse{textResponse("all good")})
	f.convs.appendErr = errors.New("db down")

	resp, err := f.agent.Chat(context.Background(), "u1", "", "hi there friend")
	require.NoError(t, err)
	assert.Equal(t, "all good", resp.Message)
	assert.Equal(t, 1, f.convs.appendHits)
}

func TestChatPublishesTurnEvent(t *testing.T) {
	f := newLoopFixture(t, []*llm.CompletionResponse{textResponse("noted")})

	resp, err := f.agent.Chat(context.Background(), "u1", "", "I love sourdough baking")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		f.turns.mu.Lock()
		defer f.turns.mu.Unlock()
		return len(f.turns.events) == 1
	}, time.Second, 10*time.Millisecond)

	event := f.turns.events[0]
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, resp.ConversationID, event.ConversationID)
	assert.Equal(t, "I love sourdough baking", event.UserMessage)
}

func TestChatSourcesDeduplicated(t *testing.T) {
	f := newLoopFixture(t, []*llm.CompletionResponse{
		toolResponse(
			llm.ToolCall{ID: "c1", Name: "search_vibelogs", Arguments: `{"query":"pages"}`},
			llm.ToolCall{ID: "c2", Name: "list_recent_vibelogs", Arguments: `{}`},
		),
		textResponse("see above"),
	})

	resp, err := f.agent.Chat(context.Background(), "u1", "", "find morning pages")
	require.NoError(t, err)
	// Both tools returned the same vibelog; it is cited once.
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "v1", resp.Sources[0].ContentID)
}
