package card

import (
	"github.com/redqct/redqct/internal/palette"
)

// Status is a member's presence status.
type Status int

const (
	StatusOffline Status = iota
	StatusOnline
	StatusIdle
	StatusDND
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusIdle:
		return "idle"
	case StatusDND:
		return "dnd"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	*s = ParseStatus(string(text))
	return nil
}

// ParseStatus maps a status name to a Status. Unknown names, "invisible"
// included, are treated as offline.
func ParseStatus(s string) Status {
	switch s {
	case "online":
		return StatusOnline
	case "idle":
		return StatusIdle
	case "dnd", "do_not_disturb":
		return StatusDND
	default:
		return StatusOffline
	}
}

// ActivityType is the kind of rich-presence entry.
type ActivityType int

const (
	ActivityUnknown ActivityType = iota
	ActivityPlaying
	ActivityStreaming
	ActivityListening
	ActivityWatching
	ActivityCustom
	ActivityCompeting
)

// String returns the activity type name.
func (t ActivityType) String() string {
	switch t {
	case ActivityPlaying:
		return "playing"
	case ActivityStreaming:
		return "streaming"
	case ActivityListening:
		return "listening"
	case ActivityWatching:
		return "watching"
	case ActivityCustom:
		return "custom"
	case ActivityCompeting:
		return "competing"
	case ActivityUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type by name.
func (t ActivityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *ActivityType) UnmarshalText(text []byte) error {
	*t = ParseActivityType(string(text))
	return nil
}

// ParseActivityType maps a type name to an ActivityType.
func ParseActivityType(s string) ActivityType {
	switch s {
	case "playing":
		return ActivityPlaying
	case "streaming":
		return ActivityStreaming
	case "listening":
		return ActivityListening
	case "watching":
		return ActivityWatching
	case "custom":
		return ActivityCustom
	case "competing":
		return ActivityCompeting
	default:
		return ActivityUnknown
	}
}

// Caption is the header drawn at the top of an activity piece.
func (t ActivityType) Caption() string {
	switch t {
	case ActivityPlaying:
		return "PLAYING A GAME"
	case ActivityStreaming:
		return "STREAMING SOMETHING"
	case ActivityListening:
		return "LISTENING TO SPOTIFY"
	case ActivityWatching:
		return "WATCHING SOMETHING"
	case ActivityCustom:
		return "CUSTOM ACTIVITY"
	case ActivityCompeting:
		return "COMPETING IN A GAME"
	case ActivityUnknown:
		return "UNKNOWN ACTIVITY (BUG?)"
	default:
		return "UNKNOWN ACTIVITY (BUG?)"
	}
}

// MemberAttrs is a snapshot of a member for one card render.
type MemberAttrs struct {
	Name           string          `json:"name"`
	Tag            string          `json:"tag"`
	Nick           string          `json:"nick,omitempty"`
	Status         Status          `json:"status"`
	Avatar         string          `json:"avatar"`
	BannerColour   *palette.RGB    `json:"banner_colour,omitempty"`
	Activities     []ActivityAttrs `json:"activities"`
	CustomActivity *string         `json:"custom_activity,omitempty"`
}

// ActivityAttrs is one rich-presence entry ready for drawing. Empty image URLs
// mean the art is absent.
type ActivityAttrs struct {
	Type       ActivityType `json:"type"`
	ImageLarge string       `json:"image_large"`
	ImageSmall string       `json:"image_small"`
	Lines      [4]string    `json:"lines"`
}
