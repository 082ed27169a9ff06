package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/internal/vector"
	"github.com/goldenfocus/vibelog-assistant/pkg/logger"
)

const (
	contextMemoryLimit  = 10
	contextCreatorLimit = 5
	contextRecentLimit  = 5
	contextSearchTopK   = 5
)

// MemoryReader is the memory store surface the assembler needs.
type MemoryReader interface {
	GetAll(ctx context.Context, userID string, limit int) ([]model.Memory, error)
}

// QueryEmbedder embeds the current query for semantic search.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ContextAssembler builds the per-turn instruction bundle from the
// user profile, memories, platform snapshot, and semantic hits.
type ContextAssembler struct {
	platform  PlatformReader
	memories  MemoryReader
	index     vector.Store
	embedder  QueryEmbedder
	threshold float32
	logger    *logger.Logger
}

// NewContextAssembler creates a context assembler.
func NewContextAssembler(platform PlatformReader, memories MemoryReader, index vector.Store, embedder QueryEmbedder, threshold float32, log *logger.Logger) *ContextAssembler {
	return &ContextAssembler{
		platform:  platform,
		memories:  memories,
		index:     index,
		embedder:  embedder,
		threshold: threshold,
		logger:    log,
	}
}

// Build gathers the context sections concurrently and renders them as
// one labeled block. Sections with nothing to say are omitted, never
// rendered empty. userID may be empty for anonymous turns.
func (a *ContextAssembler) Build(ctx context.Context, userID, query string) string {
	var (
		wg       sync.WaitGroup
		profile  *model.UserProfile
		memories []model.Memory
		stats    model.PlatformStats
		creators []model.CreatorStat
		recent   []model.Vibelog
		hits     []vector.Hit
	)

	if userID != "" {
		wg.Add(2)
		go func() {
			defer wg.Done()
			profile = a.platform.GetUserProfile(ctx, userID)
		}()
		go func() {
			defer wg.Done()
			var err error
			memories, err = a.memories.GetAll(ctx, userID, contextMemoryLimit)
			if err != nil {
				a.logger.Warn("failed to load memories for context", zap.String("user_id", userID), zap.Error(err))
			}
		}()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		stats = a.platform.GetStats(ctx)
	}()
	go func() {
		defer wg.Done()
		creators = a.platform.ListTopCreators(ctx, contextCreatorLimit)
	}()
	go func() {
		defer wg.Done()
		recent = a.platform.ListRecentVibelogs(ctx, contextRecentLimit)
	}()
	go func() {
		defer wg.Done()
		queryVector, err := a.embedder.Embed(ctx, query)
		if err != nil {
			a.logger.Warn("query embedding failed, skipping semantic context", zap.Error(err))
			return
		}
		hits, err = a.index.Search(ctx, queryVector,
			[]string{string(model.SourceVibelog), string(model.SourceComment), string(model.SourceProfile), "documentation"},
			contextSearchTopK, a.threshold)
		if err != nil {
			a.logger.Warn("semantic search failed", zap.Error(err))
		}
	}()
	wg.Wait()

	var b strings.Builder

	if profile != nil {
		fmt.Fprintf(&b, "## Current user\n[%s](/u/%s)", displayName(profile), profile.Username)
		if profile.Bio != "" {
			fmt.Fprintf(&b, " - %s", profile.Bio)
		}
		fmt.Fprintf(&b, " (%d vibelogs, joined %s)\nAddress them naturally; do not re-introduce the platform.\n\n",
			profile.VibelogCount, profile.CreatedAt.Format("Jan 2006"))
	}

	if len(memories) > 0 {
		b.WriteString("## Remembered facts about this user\nUse these to personalize; never recite them back verbatim.\n")
		for _, m := range memories {
			fmt.Fprintf(&b, "- [%s] %s\n", m.Category, m.Fact)
		}
		b.WriteString("\n")
	}

	// All-zero stats mean the snapshot query failed soft; feeding the
	// model "0 users" would read as fact, so the section is dropped.
	if stats != (model.PlatformStats{}) {
		fmt.Fprintf(&b, "## Platform stats\n%d users, %d published vibelogs, %d comments, %d published today.\n\n",
			stats.UserCount, stats.VibelogCount, stats.CommentCount, stats.PublishedToday)
	}

	if len(creators) > 0 {
		b.WriteString("## Top creators\nCite as [display name](/u/username).\n")
		for _, c := range creators {
			fmt.Fprintf(&b, "- [%s](/u/%s) - %d vibelogs\n", creatorName(c), c.Username, c.VibelogCount)
		}
		b.WriteString("\n")
	}

	if len(recent) > 0 {
		b.WriteString("## Latest vibelogs\nCite as [title](/v/id).\n")
		for _, v := range recent {
			fmt.Fprintf(&b, "- [%s](/v/%s)\n", v.Title, v.ID)
		}
		b.WriteString("\n")
	}

	if len(hits) > 0 {
		b.WriteString("## Content related to this question\nEach entry is a semantic match; cite vibelogs as [title](/v/id) and users as [name](/u/username).\n")
		for _, h := range hits {
			fmt.Fprintf(&b, "- (%s %.2f) %s\n", h.ContentType, h.Similarity, h.Chunk)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func displayName(p *model.UserProfile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

func creatorName(c model.CreatorStat) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Username
}
