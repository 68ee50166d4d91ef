package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short stays untouched", "never chase the open", "never chase the open"},
		{"exactly at limit stays untouched", strings.Repeat("a", 60), strings.Repeat("a", 60)},
		{"long ascii is cut with ellipsis", strings.Repeat("a", 61), strings.Repeat("a", 57) + "..."},
		{"multi-byte runes survive the cut", strings.Repeat("é", 61), strings.Repeat("é", 57) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateTitle(tt.input, 60)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
