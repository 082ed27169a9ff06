package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
)

// fakePlatform records the last call and returns canned data.
type fakePlatform struct {
	lastOp    string
	lastLimit int
	vibelogs  []model.Vibelog
	users     []model.UserProfile
	stats     model.PlatformStats
}

func (f *fakePlatform) SearchVibelogs(ctx context.Context, keyword, author string, limit int) []model.Vibelog {
	f.lastOp, f.lastLimit = "search_vibelogs", limit
	return f.vibelogs
}
func (f *fakePlatform) GetVibelog(ctx context.Context, id string) *model.VibelogDetail {
	f.lastOp = "get_vibelog"
	if len(f.vibelogs) == 0 {
		return nil
	}
	return &model.VibelogDetail{Vibelog: f.vibelogs[0]}
}
func (f *fakePlatform) SearchUsers(ctx context.Context, query string, limit int) []model.UserProfile {
	f.lastOp, f.lastLimit = "search_users", limit
	return f.users
}
func (f *fakePlatform) GetUserProfile(ctx context.Context, userID string) *model.UserProfile {
	f.lastOp = "get_user_profile"
	if len(f.users) == 0 {
		return nil
	}
	return &f.users[0]
}
func (f *fakePlatform) ListUserVibelogs(ctx context.Context, userID string, limit int) []model.Vibelog {
	f.lastOp, f.lastLimit = "list_user_vibelogs", limit
	return f.vibelogs
}
func (f *fakePlatform) ListRecentVibelogs(ctx context.Context, limit int) []model.Vibelog {
	f.lastOp, f.lastLimit = "list_recent_vibelogs", limit
	return f.vibelogs
}
func (f *fakePlatform) ListTopCreators(ctx context.Context, limit int) []model.CreatorStat {
	f.lastOp, f.lastLimit = "list_top_creators", limit
	return nil
}
func (f *fakePlatform) GetStats(ctx context.Context) model.PlatformStats {
	f.lastOp = "get_platform_stats"
	return f.stats
}
func (f *fakePlatform) ListVibelogComments(ctx context.Context, vibelogID string, limit int) []model.Comment {
	f.lastOp, f.lastLimit = "list_vibelog_comments", limit
	return nil
}
func (f *fakePlatform) ListRecentComments(ctx context.Context, limit int) []model.Comment {
	f.lastOp, f.lastLimit = "list_recent_comments", limit
	return nil
}
func (f *fakePlatform) ListNewMembers(ctx context.Context, limit int) []model.UserProfile {
	f.lastOp, f.lastLimit = "list_new_members", limit
	return f.users
}

func TestExecuteDispatchesEveryTool(t *testing.T) {
	tests := []struct {
		tool ToolName
		args string
	}{
		{ToolSearchVibelogs, `{"query":"cooking"}`},
		{ToolGetVibelog, `{"id":"v1"}`},
		{ToolSearchUsers, `{"query":"ana"}`},
		{ToolListUserVibelogs, `{"user_id":"u1"}`},
		{ToolListRecentVibelogs, `{}`},
		{ToolListTopCreators, `{}`},
		{ToolGetPlatformStats, `{}`},
		{ToolListVibelogComments, `{"vibelog_id":"v1"}`},
		{ToolListRecentComments, `{}`},
		{ToolListNewMembers, `{}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.tool), func(t *testing.T) {
			platform := &fakePlatform{}
			exec := NewExecutor(platform)

			payload, _ := exec.Execute(context.Background(), tt.tool, tt.args)
			require.True(t, json.Valid(payload))
			assert.Equal(t, string(tt.tool), platform.lastOp)
			assert.NotContains(t, string(payload), `"error"`)
		})
	}
}

func TestExecuteClampsLimits(t *testing.T) {
	tests := []struct {
		name string
		tool ToolName
		args string
		want int
	}{
		{"search over cap", ToolSearchVibelogs, `{"query":"q","limit":1000}`, 10},
		{"search zero", ToolSearchVibelogs, `{"query":"q","limit":0}`, 10},
		{"search missing", ToolSearchUsers, `{"query":"q"}`, 10},
		{"search negative", ToolSearchUsers, `{"query":"q","limit":-3}`, 10},
		{"search in range", ToolSearchVibelogs, `{"query":"q","limit":5}`, 5},
		{"list over cap", ToolListRecentVibelogs, `{"limit":999}`, 20},
		{"list in range", ToolListNewMembers, `{"limit":7}`, 7},
		{"list missing", ToolListRecentComments, `{}`, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := &fakePlatform{}
			exec := NewExecutor(platform)

			exec.Execute(context.Background(), tt.tool, tt.args)
			assert.Equal(t, tt.want, platform.lastLimit)
		})
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	exec := NewExecutor(&fakePlatform{})

	payload, sources := exec.Execute(context.Background(), "drop_tables", `{}`)
	assert.Nil(t, sources)

	var result map[string]string
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Equal(t, "unknown tool", result["error"])
}

func TestExecuteBadArguments(t *testing.T) {
	exec := NewExecutor(&fakePlatform{})

	payload, sources := exec.Execute(context.Background(), ToolSearchVibelogs, `{"query": not json`)
	assert.Nil(t, sources)

	var result map[string]string
	require.NoError(t, json.Unmarshal(payload, &result))
	assert.Contains(t, result["error"], "invalid arguments")
}

func TestExecuteCollectsVibelogSources(t *testing.T) {
	platform := &fakePlatform{vibelogs: []model.Vibelog{
		{ID: "v1", Title: "Sourdough basics", Transcript: "Today we talk about starters."},
		{ID: "v2", Title: "Knife skills", Transcript: "Hold the blade like this."},
	}}
	exec := NewExecutor(platform)

	_, sources := exec.Execute(context.Background(), ToolSearchVibelogs, `{"query":"cooking"}`)
	require.Len(t, sources, 2)
	assert.Equal(t, model.SourceVibelog, sources[0].Type)
	assert.Equal(t, "v1", sources[0].ContentID)
	assert.Equal(t, "Sourdough basics", sources[0].Title)
	assert.NotEmpty(t, sources[0].Snippet)
}

func TestExecuteProfileSources(t *testing.T) {
	platform := &fakePlatform{users: []model.UserProfile{
		{ID: "u1", Username: "ana", Bio: "I bake things."},
	}}
	exec := NewExecutor(platform)

	_, sources := exec.Execute(context.Background(), ToolSearchUsers, `{"query":"ana"}`)
	require.Len(t, sources, 1)
	assert.Equal(t, model.SourceProfile, sources[0].Type)
	assert.Equal(t, "ana", sources[0].Username)
}

func TestExecuteNilVibelogHasNoSources(t *testing.T) {
	exec := NewExecutor(&fakePlatform{})

	payload, sources := exec.Execute(context.Background(), ToolGetVibelog, `{"id":"missing"}`)
	assert.Empty(t, sources)
	assert.Equal(t, "null", string(payload))
}

func TestManifestMatchesDispatch(t *testing.T) {
	// Every advertised tool must have a dispatch arm that reaches the
	// platform rather than the unknown-tool path.
	for _, tool := range Manifest() {
		platform := &fakePlatform{}
		exec := NewExecutor(platform)

		args := `{"query":"q","id":"i","user_id":"u","vibelog_id":"v"}`
		payload, _ := exec.Execute(context.Background(), ToolName(tool.Name), args)
		assert.NotContains(t, string(payload), "unknown tool", tool.Name)
		assert.NotEmpty(t, platform.lastOp, tool.Name)
	}
}
