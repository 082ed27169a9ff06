package agent

import (
	"encoding/json"

	"github.com/goldenfocus/vibelog-assistant/internal/llm"
)

// ToolName is a typed tool identifier. The executor switches over
// these exhaustively; adding a constant without a dispatch arm is a
// compile-time smell rather than a runtime surprise.
type ToolName string

const (
	ToolSearchVibelogs      ToolName = "search_vibelogs"
	ToolGetVibelog          ToolName = "get_vibelog"
	ToolSearchUsers         ToolName = "search_users"
	ToolListUserVibelogs    ToolName = "list_user_vibelogs"
	ToolListRecentVibelogs  ToolName = "list_recent_vibelogs"
	ToolListTopCreators     ToolName = "list_top_creators"
	ToolGetPlatformStats    ToolName = "get_platform_stats"
	ToolListVibelogComments ToolName = "list_vibelog_comments"
	ToolListRecentComments  ToolName = "list_recent_comments"
	ToolListNewMembers      ToolName = "list_new_members"
)

// manifest is the static tool catalog handed to the LLM. Each entry
// maps 1:1 to a platform query; limits are clamped server-side no
// matter what the model asks for.
var manifest = []llm.Tool{
	{
		Name:        string(ToolSearchVibelogs),
		Description: "Search published vibelogs by keyword, optionally filtered to one author's username. Use this to find content on a topic.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Keyword to search titles and transcripts for"},
				"author": {"type": "string", "description": "Optional author username filter"},
				"limit": {"type": "integer", "description": "Max results, default 5, max 10"}
			},
			"required": ["query"]
		}`),
	},
	{
		Name:        string(ToolGetVibelog),
		Description: "Fetch one vibelog by id, including its reaction and comment counts.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Vibelog id"}
			},
			"required": ["id"]
		}`),
	},
	{
		Name:        string(ToolSearchUsers),
		Description: "Search platform users by username or display name.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Name or handle to search for"},
				"limit": {"type": "integer", "description": "Max results, default 5, max 10"}
			},
			"required": ["query"]
		}`),
	},
	{
		Name:        string(ToolListUserVibelogs),
		Description: "List one user's published vibelogs, newest first.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"user_id": {"type": "string", "description": "User id"},
				"limit": {"type": "integer", "description": "Max results, default 10, max 20"}
			},
			"required": ["user_id"]
		}`),
	},
	{
		Name:        string(ToolListRecentVibelogs),
		Description: "List the most recently published vibelogs across the platform. Use this for anything about new or trending content.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "integer", "description": "Max results, default 10, max 20"}
			}
		}`),
	},
	{
		Name:        string(ToolListTopCreators),
		Description: "List the top creators ranked by published vibelog count.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "integer", "description": "Max results, default 10, max 20"}
			}
		}`),
	},
	{
		Name:        string(ToolGetPlatformStats),
		Description: "Get platform-wide aggregate statistics: user count, vibelog count, comment count, and vibelogs published today.",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
	},
	{
		Name:        string(ToolListVibelogComments),
		Description: "List comments on one vibelog, newest first.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"vibelog_id": {"type": "string", "description": "Vibelog id"},
				"limit": {"type": "integer", "description": "Max results, default 10, max 20"}
			},
			"required": ["vibelog_id"]
		}`),
	},
	{
		Name:        string(ToolListRecentComments),
		Description: "List the newest comments across the whole platform.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "integer", "description": "Max results, default 10, max 20"}
			}
		}`),
	},
	{
		Name:        string(ToolListNewMembers),
		Description: "List the newest members of the platform.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "integer", "description": "Max results, default 10, max 20"}
			}
		}`),
	},
}

// Manifest returns the tool catalog.
func Manifest() []llm.Tool {
	return manifest
}
