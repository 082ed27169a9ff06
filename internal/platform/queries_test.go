package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		max   int
		want  int
	}{
		{"zero falls back to max", 0, maxSearchResults, maxSearchResults},
		{"negative falls back to max", -1, maxSearchResults, maxSearchResults},
		{"over cap is capped", 1000, maxSearchResults, maxSearchResults},
		{"in range passes through", 7, maxListResults, 7},
		{"exactly cap passes through", 20, maxListResults, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clamp(tt.limit, tt.max))
		})
	}
}
