package agent

import (
	"context"
	"encoding/json"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
	"github.com/goldenfocus/vibelog-assistant/pkg/metrics"
)

// PlatformReader is the slice of the platform query catalog the
// executor dispatches to. Every method fails soft per the catalog
// contract, so execution can never crash the loop.
type PlatformReader interface {
	SearchVibelogs(ctx context.Context, keyword, author string, limit int) []model.Vibelog
	GetVibelog(ctx context.Context, id string) *model.VibelogDetail
	SearchUsers(ctx context.Context, query string, limit int) []model.UserProfile
	GetUserProfile(ctx context.Context, userID string) *model.UserProfile
	ListUserVibelogs(ctx context.Context, userID string, limit int) []model.Vibelog
	ListRecentVibelogs(ctx context.Context, limit int) []model.Vibelog
	ListTopCreators(ctx context.Context, limit int) []model.CreatorStat
	GetStats(ctx context.Context) model.PlatformStats
	ListVibelogComments(ctx context.Context, vibelogID string, limit int) []model.Comment
	ListRecentComments(ctx context.Context, limit int) []model.Comment
	ListNewMembers(ctx context.Context, limit int) []model.UserProfile
}

// Executor dispatches tool calls to the platform query service.
type Executor struct {
	platform PlatformReader
}

// NewExecutor creates a tool executor.
func NewExecutor(platform PlatformReader) *Executor {
	return &Executor{platform: platform}
}

// toolArgs covers every tool's parameters; absent fields stay zero.
type toolArgs struct {
	Query     string `json:"query"`
	Author    string `json:"author"`
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	VibelogID string `json:"vibelog_id"`
	Limit     int    `json:"limit"`
}

// toolLimits caps per-tool result sizes. The model's requested limit
// is advisory only; the cap holds whatever it asks for.
var toolLimits = map[ToolName]int{
	ToolSearchVibelogs:      10,
	ToolSearchUsers:         10,
	ToolListUserVibelogs:    20,
	ToolListRecentVibelogs:  20,
	ToolListTopCreators:     20,
	ToolListVibelogComments: 20,
	ToolListRecentComments:  20,
	ToolListNewMembers:      20,
}

func clampLimit(name ToolName, limit int) int {
	max, ok := toolLimits[name]
	if !ok {
		return limit
	}
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

// Execute runs one tool call and returns its JSON result plus any
// citable sources found in it. Errors become structured {"error": ...}
// payloads fed back to the model; they never propagate.
func (e *Executor) Execute(ctx context.Context, name ToolName, arguments string) (json.RawMessage, []model.Source) {
	var args toolArgs
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			metrics.ToolCallsTotal.WithLabelValues(string(name), "bad_args").Inc()
			return errResult("invalid arguments: " + err.Error()), nil
		}
	}
	args.Limit = clampLimit(name, args.Limit)

	var (
		result  any
		sources []model.Source
	)

	switch name {
	case ToolSearchVibelogs:
		vibelogs := e.platform.SearchVibelogs(ctx, args.Query, args.Author, args.Limit)
		result, sources = vibelogs, vibelogSources(vibelogs)
	case ToolGetVibelog:
		detail := e.platform.GetVibelog(ctx, args.ID)
		result = detail
		if detail != nil {
			sources = vibelogSources([]model.Vibelog{detail.Vibelog})
		}
	case ToolSearchUsers:
		users := e.platform.SearchUsers(ctx, args.Query, args.Limit)
		result, sources = users, profileSources(users)
	case ToolListUserVibelogs:
		vibelogs := e.platform.ListUserVibelogs(ctx, args.UserID, args.Limit)
		result, sources = vibelogs, vibelogSources(vibelogs)
	case ToolListRecentVibelogs:
		vibelogs := e.platform.ListRecentVibelogs(ctx, args.Limit)
		result, sources = vibelogs, vibelogSources(vibelogs)
	case ToolListTopCreators:
		result = e.platform.ListTopCreators(ctx, args.Limit)
	case ToolGetPlatformStats:
		result = e.platform.GetStats(ctx)
	case ToolListVibelogComments:
		result = e.platform.ListVibelogComments(ctx, args.VibelogID, args.Limit)
	case ToolListRecentComments:
		result = e.platform.ListRecentComments(ctx, args.Limit)
	case ToolListNewMembers:
		result = e.platform.ListNewMembers(ctx, args.Limit)
	default:
		metrics.ToolCallsTotal.WithLabelValues(string(name), "unknown").Inc()
		return errResult("unknown tool"), nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(string(name), "error").Inc()
		return errResult("failed to serialize result"), nil
	}

	metrics.ToolCallsTotal.WithLabelValues(string(name), "success").Inc()
	return payload, sources
}

func errResult(msg string) json.RawMessage {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	return payload
}

func vibelogSources(vibelogs []model.Vibelog) []model.Source {
	sources := make([]model.Source, 0, len(vibelogs))
	for _, v := range vibelogs {
		sources = append(sources, model.Source{
			Type:      model.SourceVibelog,
			ContentID: v.ID,
			Title:     v.Title,
			Snippet:   snippet(v.Transcript),
		})
	}
	return sources
}

func profileSources(users []model.UserProfile) []model.Source {
	sources := make([]model.Source, 0, len(users))
	for _, u := range users {
		sources = append(sources, model.Source{
			Type:      model.SourceProfile,
			ContentID: u.ID,
			Username:  u.Username,
			Snippet:   snippet(u.Bio),
		})
	}
	return sources
}

func snippet(text string) string {
	const max = 140
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
