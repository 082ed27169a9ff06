package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"trending", "what's trending today?", IntentDiscovery},
		{"recommend", "Recommend me something to listen to", IntentDiscovery},
		{"playlist", "make me a playlist about cooking", IntentCurator},
		{"best of", "what's the best of this month?", IntentCurator},
		{"publish howto", "how do i publish my first vibelog?", IntentCreator},
		{"own stats", "how are my vibelogs doing?", IntentCreator},
		{"user count", "how many users do we have?", IntentAnalyst},
		{"platform stats", "show me the platform statistics", IntentAnalyst},
		{"what is this", "What is this platform?", IntentGuide},
		{"getting started", "help with getting started", IntentGuide},
		{"greeting", "hello", IntentGeneral},
		{"unrelated", "tell me a joke about penguins", IntentGeneral},
		{"empty", "", IntentGeneral},
		{"case insensitive", "WHAT'S TRENDING right now", IntentDiscovery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectIntent(tt.message))
		})
	}
}

func TestDetectIntentDeterministic(t *testing.T) {
	msg := "how many vibelogs are trending?"
	first := DetectIntent(msg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DetectIntent(msg))
	}
}

func TestDetectIntentFirstMatchWins(t *testing.T) {
	// Matches both discovery and analyst patterns; discovery is
	// checked first.
	assert.Equal(t, IntentDiscovery, DetectIntent("what's trending and how many users are there?"))
}

func TestAugmentation(t *testing.T) {
	assert.Empty(t, Augmentation(IntentGeneral))
	for _, intent := range []Intent{IntentDiscovery, IntentCurator, IntentCreator, IntentAnalyst, IntentGuide} {
		assert.NotEmpty(t, Augmentation(intent), string(intent))
	}
}
