package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenfocus/vibelog-assistant/internal/llm"
	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

type fakeTitleStore struct {
	mu     sync.Mutex
	titles map[string]string
}

func newFakeTitleStore() *fakeTitleStore {
	return &fakeTitleStore{titles: make(map[string]string)}
}

func (s *fakeTitleStore) SetTitle(ctx context.Context, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles[conversationID] = title
	return nil
}

func (s *fakeTitleStore) title(conversationID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.titles[conversationID]
	return t, ok
}

type stubTitleLLM struct {
	mu    sync.Mutex
	resp  *llm.CompletionResponse
	calls int
}

func (s *stubTitleLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resp, nil
}

func (s *stubTitleLLM) Name() string     { return "stub" }
func (s *stubTitleLLM) Models() []string { return nil }

func (s *stubTitleLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeSpendGovernor struct {
	mu       sync.Mutex
	exceeded bool
	records  []model.CostEntry
}

func (g *fakeSpendGovernor) Record(ctx context.Context, entry model.CostEntry) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = append(g.records, entry)
	return !g.exceeded
}

func (g *fakeSpendGovernor) LimitExceeded(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exceeded
}

func (g *fakeSpendGovernor) recorded() []model.CostEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.CostEntry(nil), g.records...)
}

func titlerFixture(t *testing.T, client llm.Client, governor *fakeSpendGovernor) (*Titler, *fakeTitleStore) {
	t.Helper()
	log, err := logger.New("error")
	require.NoError(t, err)
	store := newFakeTitleStore()
	return NewTitler(store, client, "claude-3-5-haiku-20241022", governor, log), store
}

func TestGenerateAsyncSetsTitleAndRecordsCost(t *testing.T) {
	client := &stubTitleLLM{resp: &llm.CompletionResponse{
		Content:   `"Sourdough Questions"`,
		Model:     "claude-3-5-haiku-20241022",
		TokensIn:  60,
		TokensOut: 8,
	}}
	governor := &fakeSpendGovernor{}
	titler, store := titlerFixture(t, client, governor)

	titler.GenerateAsync("conv-1", "how do I feed a sourdough starter?")

	require.Eventually(t, func() bool {
		_, ok := store.title("conv-1")
		return ok
	}, time.Second, 10*time.Millisecond)

	title, _ := store.title("conv-1")
	assert.Equal(t, "Sourdough Questions", title)

	records := governor.recorded()
	require.Len(t, records, 1)
	assert.Equal(t, "claude-3-5-haiku-20241022", records[0].Model)
	assert.Greater(t, records[0].CostUSD, 0.0)
	assert.Equal(t, "title", records[0].Metadata["endpoint"])
}

func TestGenerateAsyncSkippedWhenPaused(t *testing.T) {
	client := &stubTitleLLM{resp: &llm.CompletionResponse{Content: "never used"}}
	governor := &fakeSpendGovernor{exceeded: true}
	titler, store := titlerFixture(t, client, governor)

	titler.GenerateAsync("conv-1", "hello")

	// No provider call, no ledger write, no title.
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, client.callCount())
	assert.Empty(t, governor.recorded())
	_, ok := store.title("conv-1")
	assert.False(t, ok)
}

func TestGenerateAsyncNilClientIsNoop(t *testing.T) {
	governor := &fakeSpendGovernor{}
	titler, store := titlerFixture(t, nil, governor)

	titler.GenerateAsync("conv-1", "hello")

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, governor.recorded())
	_, ok := store.title("conv-1")
	assert.False(t, ok)
}
