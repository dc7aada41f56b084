package utils_test

import (
	"testing"
	"unicode/utf8"

	"github.com/redqct/redqct/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{name: "short string untouched", input: "Minecraft", max: 10, expected: "Minecraft"},
		{name: "exact length untouched", input: "0123456789", max: 10, expected: "0123456789"},
		{name: "long string cut", input: "The Elder Scrolls V: Skyrim", max: 10, expected: "The Elder ..."},
		{name: "multibyte runes counted once", input: "原神原神原神", max: 4, expected: "原神原神..."},
		{name: "non-positive max disables", input: "anything", max: 0, expected: "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := utils.TruncateString(tt.input, tt.max, "...")
			assert.Equal(t, tt.expected, got)

			if tt.max > 0 {
				assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.max+3)
			}
		})
	}
}

func TestCompressAllWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "line breaks folded", input: "Ranked\r\nSplit 2", expected: "Ranked Split 2"},
		{name: "tabs and runs collapsed", input: "  in\n a\t\tmatch ", expected: "in a match"},
		{name: "blank becomes empty", input: "\n\t ", expected: ""},
		{name: "plain text untouched", input: "Minecraft", expected: "Minecraft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, utils.CompressAllWhitespace(tt.input))
		})
	}
}
