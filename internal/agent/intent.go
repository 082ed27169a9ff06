// Package agent implements the assistant orchestration core: intent
// routing, context assembly, the tool registry, and the cost-governed
// tool-calling loop.
package agent

import (
	"regexp"
	"strings"
)

// Intent is a behavioral mode that augments the base instructions for
// a single turn.
type Intent string

const (
	IntentDiscovery Intent = "discovery"
	IntentCurator   Intent = "curator"
	IntentCreator   Intent = "creator"
	IntentAnalyst   Intent = "analyst"
	IntentGuide     Intent = "guide"
	IntentGeneral   Intent = "general"
)

// intentPattern pairs an intent with its trigger expression. The
// groups are tested in order against the lowercased message; the first
// match wins.
type intentPattern struct {
	intent Intent
	re     *regexp.Regexp
}

var intentPatterns = []intentPattern{
	{IntentDiscovery, regexp.MustCompile(`\b(trending|discover|recommend|popular|what'?s (new|hot)|show me something|surprise me)\b`)},
	{IntentCurator, regexp.MustCompile(`\b(playlist|collection|curate|best of|round ?up|digest|compilation)\b`)},
	{IntentCreator, regexp.MustCompile(`\b(how (do|can) i (record|publish|post)|improve my|my (stats|audience|listeners|vibelogs)|grow my|tips for (recording|publishing))\b`)},
	{IntentAnalyst, regexp.MustCompile(`\b(how many|statistics|stats|count|numbers|metrics|analytics|total (users|vibelogs|comments))\b`)},
	{IntentGuide, regexp.MustCompile(`\b(what is (this|vibelog)|how does (this|it) work|getting started|what can you do|help me get|new here|this platform)\b`)},
}

// DetectIntent classifies a user message. It is a pure function: the
// same message always yields the same intent, defaulting to general.
func DetectIntent(message string) Intent {
	lowered := strings.ToLower(message)
	for _, p := range intentPatterns {
		if p.re.MatchString(lowered) {
			return p.intent
		}
	}
	return IntentGeneral
}

// augmentations are appended to the base system instructions for the
// matched intent, for that turn only.
var augmentations = map[Intent]string{
	IntentDiscovery: `The user wants to discover content. You must call list_recent_vibelogs or search_vibelogs before answering, and recommend specific vibelogs with their links. Be enthusiastic and concrete.`,
	IntentCurator: `The user wants a curated selection. You must call search_vibelogs or list_recent_vibelogs and assemble a themed shortlist of 3-5 vibelogs with links and one-line reasons. Be opinionated.`,
	IntentCreator: `The user is a creator asking about their own work. You must call list_user_vibelogs or get_vibelog for their content before answering. Be encouraging and practical.`,
	IntentAnalyst: `The user wants numbers. You must call get_platform_stats or list_top_creators and answer with exact figures from the tool results. Be precise; never estimate.`,
	IntentGuide: `The user is new or confused. Explain what the platform does in plain words, and call list_recent_vibelogs to show real examples. Be welcoming and brief.`,
}

// Augmentation returns the prompt block for an intent, empty for general.
func Augmentation(intent Intent) string {
	return augmentations[intent]
}
