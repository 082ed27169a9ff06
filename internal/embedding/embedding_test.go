package embedding

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("", 10))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "", Truncate("anything", -1))
}

func TestTruncateRuneSafe(t *testing.T) {
	// Multi-byte characters are never split mid-rune.
	text := strings.Repeat("é", 10)
	out := Truncate(text, 4)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 4, utf8.RuneCountInString(out))

	emoji := "🎙🎙🎙🎙"
	out = Truncate(emoji, 2)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "🎙🎙", out)
}

func TestTruncateAtCap(t *testing.T) {
	exact := strings.Repeat("a", MaxInputChars)
	assert.Equal(t, exact, Truncate(exact, MaxInputChars))

	over := exact + "overflow"
	assert.Equal(t, exact, Truncate(over, MaxInputChars))
}
