package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFacts(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantText string
		wantCat  string
	}{
		{"love", "I love sourdough baking", "I love sourdough baking", "preferences"},
		{"favourite", "my favourite creator is Ana", "my favourite creator is Ana", "preferences"},
		{"goal", "My goal is to publish weekly", "My goal is to publish weekly", "goals"},
		{"want to", "i want to grow my audience", "i want to grow my audience", "goals"},
		{"profession", "I'm a sound engineer from Lisbon", "I'm a sound engineer from Lisbon", "about_me"},
		{"work at", "I work at a radio station", "I work at a radio station", "about_me"},
		{"interested", "I'm interested in urban gardening", "I'm interested in urban gardening", "interests"},
		{"following", "I've been following the jazz series", "I've been following the jazz series", "interests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := ExtractFacts(tt.message)
			require.Len(t, facts, 1)
			assert.Equal(t, tt.wantText, facts[0].Text)
			assert.Equal(t, tt.wantCat, facts[0].Category)
		})
	}
}

func TestExtractFactsNoMatch(t *testing.T) {
	for _, msg := range []string{
		"what's trending today?",
		"show me the stats",
		"",
		"   ",
	} {
		assert.Empty(t, ExtractFacts(msg), msg)
	}
}

func TestExtractFactsMultipleSentences(t *testing.T) {
	facts := ExtractFacts("I love long walks. What's new today? My goal is to record daily.")
	require.Len(t, facts, 2)
	assert.Equal(t, "preferences", facts[0].Category)
	assert.Equal(t, "goals", facts[1].Category)
}

func TestExtractFactsFirstCategoryWins(t *testing.T) {
	// Matches both preferences and goals; preferences is checked first.
	facts := ExtractFacts("I love that my goal is getting closer")
	require.Len(t, facts, 1)
	assert.Equal(t, "preferences", facts[0].Category)
}

func TestExtractFactsCapsLength(t *testing.T) {
	long := "I love " + strings.Repeat("x", 2000)
	facts := ExtractFacts(long)
	require.Len(t, facts, 1)
	assert.Len(t, facts[0].Text, maxFactLen)
}

func TestExtractFactsAccumulatesDuplicates(t *testing.T) {
	// Repeated statements produce repeated facts; nothing deduplicates.
	facts := ExtractFacts("I love jazz. I love jazz.")
	assert.Len(t, facts, 2)
}
