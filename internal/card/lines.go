package card

import (
	"strings"
	"time"

	"github.com/redqct/redqct/pkg/utils"
)

// Default truncation settings for display lines.
const (
	DefaultLineMaxLength = 32
	DefaultEllipsis      = "..."
)

// Variant is the closed set of rich-presence shapes a line layout is derived from.
type Variant interface {
	variant()
}

// Generic is an application's rich presence. Zero timestamps are absent.
type Generic struct {
	Name    string
	Details string
	State   string
	Start   time.Time
	End     time.Time
}

// Streaming is a live stream.
type Streaming struct {
	Name string
	Game string
	URL  string
}

// Game is a bare game with only a name.
type Game struct {
	Name string
}

// Music is a track played on a music service.
type Music struct {
	Title   string
	Artists []string
	Album   string
	Start   time.Time
	End     time.Time
}

func (Generic) variant()   {}
func (Streaming) variant() {}
func (Game) variant()      {}
func (Music) variant()     {}

// LineOptions controls truncation of derived lines.
type LineOptions struct {
	MaxLength int
	Ellipsis  string
}

// DefaultLineOptions returns the standard truncation settings.
func DefaultLineOptions() LineOptions {
	return LineOptions{
		MaxLength: DefaultLineMaxLength,
		Ellipsis:  DefaultEllipsis,
	}
}

// Lines derives the four display lines for v at time now. Lines are folded
// onto one line, truncated and compacted so that used lines come first.
func Lines(v Variant, now time.Time, opts LineOptions) [4]string {
	var raw [4]string

	switch a := v.(type) {
	case Generic:
		raw = [4]string{a.Name, a.Details, a.State, timeLine(a.Start, a.End, now)}
	case Streaming:
		raw[0] = a.Name
		if a.Game != "" {
			raw[1] = "playing " + a.Game
		}
		raw[2] = a.URL
	case Game:
		raw[0] = a.Name
	case Music:
		raw[0] = a.Title
		if len(a.Artists) > 0 {
			raw[1] = "by " + strings.Join(a.Artists, ", ")
		}
		if a.Album != "" {
			raw[2] = "on " + a.Album
		}
		raw[3] = progressLine(a.Start, a.End, now)
	}

	return truncateLines(raw, opts)
}

// Normalize folds, truncates and compacts the lines of every activity in
// attrs, for attributes that did not come from Lines.
func Normalize(attrs MemberAttrs, opts LineOptions) MemberAttrs {
	activities := make([]ActivityAttrs, len(attrs.Activities))
	for i, a := range attrs.Activities {
		a.Lines = truncateLines(a.Lines, opts)
		activities[i] = a
	}
	attrs.Activities = activities

	if attrs.CustomActivity != nil {
		text := utils.CompressAllWhitespace(*attrs.CustomActivity)
		attrs.CustomActivity = &text
	}

	return attrs
}

func truncateLines(raw [4]string, opts LineOptions) [4]string {
	for i, line := range raw {
		line = utils.CompressAllWhitespace(line)
		raw[i] = utils.TruncateString(line, opts.MaxLength, opts.Ellipsis)
	}

	return Compact(raw)
}

// Compact moves non-empty lines to the front, keeping their order, and pads
// the tail with empty strings.
func Compact(lines [4]string) [4]string {
	var out [4]string

	i := 0
	for _, line := range lines {
		if line != "" {
			out[i] = line
			i++
		}
	}

	return out
}

// timeLine renders the remaining time when an end is known, otherwise the
// elapsed time since start.
func timeLine(start, end, now time.Time) string {
	switch {
	case !end.IsZero():
		return utils.FormatClock(end.Sub(now)) + " left"
	case !start.IsZero():
		return "for " + utils.FormatCoarseDuration(now.Sub(start))
	default:
		return ""
	}
}

// progressLine renders elapsed/duration for a track.
func progressLine(start, end, now time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}

	elapsed := min(max(now.Sub(start), 0), end.Sub(start))
	return utils.FormatClock(elapsed) + "/" + utils.FormatClock(end.Sub(start))
}

// NewActivityAttrs builds drawable attributes for one activity.
func NewActivityAttrs(t ActivityType, v Variant, imageLarge, imageSmall string, now time.Time, opts LineOptions) ActivityAttrs {
	return ActivityAttrs{
		Type:       t,
		ImageLarge: imageLarge,
		ImageSmall: imageSmall,
		Lines:      Lines(v, now, opts),
	}
}
