package utils_test

import (
	"testing"
	"time"

	"github.com/redqct/redqct/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestFormatCoarseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    time.Duration
		expected string
	}{
		{name: "under a minute floors to one", input: 20 * time.Second, expected: "1 minute"},
		{name: "minutes", input: 42*time.Minute + 59*time.Second, expected: "42 minutes"},
		{name: "single hour", input: 61 * time.Minute, expected: "1 hour"},
		{name: "hours", input: 5*time.Hour + 59*time.Minute, expected: "5 hours"},
		{name: "days win over hours", input: 49 * time.Hour, expected: "2 days"},
		{name: "single day", input: 24 * time.Hour, expected: "1 day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, utils.FormatCoarseDuration(tt.input))
		})
	}
}

func TestFormatClock(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "03:07", utils.FormatClock(3*time.Minute+7*time.Second))
	assert.Equal(t, "00:00", utils.FormatClock(-time.Second))
	assert.Equal(t, "64:00", utils.FormatClock(64*time.Minute))
}
