// Package memory implements the per-user long-term memory store and
// the pattern-based extraction pass that feeds it.
package memory

import (
	"regexp"
	"strings"
)

// ExtractedImportance is the fixed importance assigned to facts found
// by the pattern extractor.
const ExtractedImportance = 0.6

// maxFactLen caps stored fact text.
const maxFactLen = 500

// Fact is one extracted memory candidate.
type Fact struct {
	Text     string
	Category string
}

// factPattern pairs a category with its trigger expression. Order
// matters: the first matching category wins for a sentence.
type factPattern struct {
	category string
	re       *regexp.Regexp
}

var factPatterns = []factPattern{
	{"preferences", regexp.MustCompile(`(?i)\b(i (really )?(love|like|enjoy|prefer)|my favou?rite)\b`)},
	{"goals", regexp.MustCompile(`(?i)\b(my goal|i want to|i plan to|i('m| am) trying to|i hope to)\b`)},
	{"about_me", regexp.MustCompile(`(?i)\b(i('m| am) (a|an) |i work (as|at|on) |my name is )`)},
	{"interests", regexp.MustCompile(`(?i)\b(i('m| am) interested in|i('m| am) into|i('ve| have) been (following|listening to))\b`)},
}

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// ExtractFacts scans a user message for preference, goal,
// self-description, and interest statements. It is a deliberately
// imprecise pure pattern matcher: near-duplicate facts accumulate and
// no deduplication is attempted.
func ExtractFacts(userMessage string) []Fact {
	var facts []Fact
	for _, raw := range sentenceSplit.Split(userMessage, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}
		for _, p := range factPatterns {
			if p.re.MatchString(sentence) {
				if len(sentence) > maxFactLen {
					sentence = sentence[:maxFactLen]
				}
				facts = append(facts, Fact{Text: sentence, Category: p.category})
				break
			}
		}
	}
	return facts
}
