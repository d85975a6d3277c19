package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary avoids words hidden inside common ones ("he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"spoiler", "snape", "rosebud"}, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "No spoiler please",
			expected: "No ******* please",
			words:    []string{"spoiler"},
		},
		{
			name:     "Multiple occurrences",
			input:    "rosebud rosebud",
			expected: "******* *******",
			words:    []string{"rosebud", "rosebud"},
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "It was R.0.s.3.b.u.d !",
			expected: "It was ************* !",
			words:    []string{"rosebud"},
		},
		{
			name:     "Uppercase and noise",
			input:    "S-N-A-P-E kills",
			expected: "********* kills",
			words:    []string{"snape"},
		},
		{
			name:     "Accents are kept",
			input:    "Un été sans spoiler",
			expected: "Un été sans *******",
			words:    []string{"spoiler"},
		},
		{
			name:     "Nothing to censor",
			input:    "Great movie",
			expected: "Great movie",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_CornerCases(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given words that fold to nothing
	mod, err := NewModerator([]string{"...", ",,,", "", "spoiler"}, replacementChar, log)
	req.NoError(err)

	// Then only real words are censored
	content, words := mod.Censor("A spoiler!")
	req.Equal("A *******!", content)
	req.Equal([]string{"spoiler"}, words)

	content, words = mod.Censor("Hello ...")
	req.Equal("Hello ...", content)
	req.Nil(words)
}

func TestModerator_Empty(t *testing.T) {
	req := require.New(t)

	// Given no usable word
	mod, err := NewModerator(nil, replacementChar, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)

	// Then content passes through
	content, words := mod.Censor("spoiler")
	req.Equal("spoiler", content)
	req.Nil(words)
}
