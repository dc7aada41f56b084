package card_test

import (
	"strings"
	"testing"
	"time"

	"github.com/redqct/redqct/internal/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	opts := card.DefaultLineOptions()

	tests := []struct {
		name    string
		variant card.Variant
		want    [4]string
	}{
		{
			name: "generic with end",
			variant: card.Generic{
				Name:    "Visual Studio Code",
				Details: "Editing main.go",
				State:   "Workspace: redqct",
				End:     now.Add(3*time.Minute + 7*time.Second),
			},
			want: [4]string{"Visual Studio Code", "Editing main.go", "Workspace: redqct", "03:07 left"},
		},
		{
			name: "generic elapsed hours",
			variant: card.Generic{
				Name:  "VALORANT",
				State: "In Queue",
				Start: now.Add(-2*time.Hour - 5*time.Minute),
			},
			want: [4]string{"VALORANT", "In Queue", "for 2 hours", ""},
		},
		{
			name: "generic multi-line text folded",
			variant: card.Generic{
				Name:    "League of Legends",
				Details: "Summoner's Rift\n(Ranked)",
				State:   " \t\n",
			},
			want: [4]string{"League of Legends", "Summoner's Rift (Ranked)", "", ""},
		},
		{
			name:    "generic elapsed under a minute",
			variant: card.Generic{Name: "Osu!", Start: now.Add(-20 * time.Second)},
			want:    [4]string{"Osu!", "for 1 minute", "", ""},
		},
		{
			name:    "generic elapsed days",
			variant: card.Generic{Name: "Idle", Start: now.Add(-49 * time.Hour)},
			want:    [4]string{"Idle", "for 2 days", "", ""},
		},
		{
			name:    "streaming",
			variant: card.Streaming{Name: "Ranked grind", Game: "Tetris", URL: "https://twitch.tv/x"},
			want:    [4]string{"Ranked grind", "playing Tetris", "https://twitch.tv/x", ""},
		},
		{
			name:    "streaming without game",
			variant: card.Streaming{Name: "Just chatting", URL: "https://twitch.tv/y"},
			want:    [4]string{"Just chatting", "https://twitch.tv/y", "", ""},
		},
		{
			name:    "game",
			variant: card.Game{Name: "Minecraft"},
			want:    [4]string{"Minecraft", "", "", ""},
		},
		{
			name: "music",
			variant: card.Music{
				Title:   "Song",
				Artists: []string{"A", "B"},
				Album:   "Album",
				Start:   now.Add(-75 * time.Second),
				End:     now.Add(105 * time.Second),
			},
			want: [4]string{"Song", "by A, B", "on Album", "01:15/03:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, card.Lines(tt.variant, now, opts))
		})
	}
}

func TestLinesTruncate(t *testing.T) {
	t.Parallel()

	opts := card.LineOptions{MaxLength: 10, Ellipsis: "..."}
	lines := card.Lines(card.Game{Name: strings.Repeat("x", 40)}, time.Now(), opts)

	assert.Equal(t, strings.Repeat("x", 10)+"...", lines[0])
	for _, line := range lines {
		assert.LessOrEqual(t, len([]rune(line)), opts.MaxLength+len(opts.Ellipsis))
	}
}

func TestCompact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   [4]string
		want [4]string
	}{
		{[4]string{"", "", "", ""}, [4]string{"", "", "", ""}},
		{[4]string{"a", "", "c", ""}, [4]string{"a", "c", "", ""}},
		{[4]string{"", "", "", "d"}, [4]string{"d", "", "", ""}},
		{[4]string{"", "b", "", "d"}, [4]string{"b", "d", "", ""}},
		{[4]string{"a", "b", "c", "d"}, [4]string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, card.Compact(tt.in))
	}
}

func TestCaptions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PLAYING A GAME", card.ActivityPlaying.Caption())
	assert.Equal(t, "LISTENING TO SPOTIFY", card.ActivityListening.Caption())
	assert.Equal(t, "COMPETING IN A GAME", card.ActivityCompeting.Caption())
	assert.Equal(t, "UNKNOWN ACTIVITY (BUG?)", card.ActivityUnknown.Caption())
	assert.Equal(t, "UNKNOWN ACTIVITY (BUG?)", card.ActivityType(99).Caption())
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, card.StatusOnline, card.ParseStatus("online"))
	assert.Equal(t, card.StatusDND, card.ParseStatus("dnd"))
	assert.Equal(t, card.StatusOffline, card.ParseStatus("invisible"))
	assert.Equal(t, "idle", card.StatusIdle.String())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	custom := "out\nto lunch"
	attrs := card.MemberAttrs{
		Name: "alice",
		Activities: []card.ActivityAttrs{
			{Type: card.ActivityPlaying, Lines: [4]string{"", strings.Repeat("y", 12), "\n", "z\tz"}},
		},
		CustomActivity: &custom,
	}

	got := card.Normalize(attrs, card.LineOptions{MaxLength: 5, Ellipsis: "~"})

	assert.Equal(t, [4]string{"yyyyy~", "z z"}, got.Activities[0].Lines)
	assert.Equal(t, strings.Repeat("y", 12), attrs.Activities[0].Lines[1])
	require.NotNil(t, got.CustomActivity)
	assert.Equal(t, "out to lunch", *got.CustomActivity)
	assert.Equal(t, "out\nto lunch", custom)
}
