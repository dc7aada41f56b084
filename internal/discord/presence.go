// Package discord adapts the chat platform to the card generator and the
// timeline tracker, and serves the slash commands that drive both.
package discord

import (
	"strconv"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redqct/redqct/internal/card"
	"github.com/redqct/redqct/internal/palette"
	"github.com/redqct/redqct/pkg/utils"
)

// SpotifyName is the activity name every Spotify session is recorded under.
const SpotifyName = "Spotify"

// Asset key prefixes and the hosts they resolve to.
const (
	mediaProxyPrefix = "mp:"
	spotifyPrefix    = "spotify:"
	mediaProxyURL    = "https://media.discordapp.net/"
	spotifyArtURL    = "https://i.scdn.co/image/"
	appAssetURL      = "https://cdn.discordapp.com/app-assets/"
)

// IsSpotify reports whether a is a Spotify listening session.
func IsSpotify(a discord.Activity) bool {
	return a.Type == discord.ActivityTypeListening && a.SyncID != nil && a.Name == SpotifyName
}

// ActivityNames returns the tracked names of activities. Spotify always
// contributes its literal name and a custom status contributes its text.
func ActivityNames(activities []discord.Activity) []string {
	names := make([]string, 0, len(activities))

	for _, a := range activities {
		switch {
		case a.Type == discord.ActivityTypeCustom:
			if name := customName(a); name != "" {
				names = append(names, name)
			}
		case IsSpotify(a):
			names = append(names, SpotifyName)
		case a.Name != "":
			names = append(names, a.Name)
		}
	}

	return names
}

// customName is the text of a custom status, or the activity name when the
// status only carries an emoji.
func customName(a discord.Activity) string {
	if state := deref(a.State); state != "" {
		return state
	}
	return a.Name
}

// ActivityType converts the platform activity type.
func ActivityType(t discord.ActivityType) card.ActivityType {
	switch t {
	case discord.ActivityTypeGame:
		return card.ActivityPlaying
	case discord.ActivityTypeStreaming:
		return card.ActivityStreaming
	case discord.ActivityTypeListening:
		return card.ActivityListening
	case discord.ActivityTypeWatching:
		return card.ActivityWatching
	case discord.ActivityTypeCustom:
		return card.ActivityCustom
	case discord.ActivityTypeCompeting:
		return card.ActivityCompeting
	default:
		return card.ActivityUnknown
	}
}

// Variant picks the line layout for a.
func Variant(a discord.Activity) card.Variant {
	details, state := deref(a.Details), deref(a.State)

	var start, end time.Time
	if a.Timestamps != nil {
		start, end = a.Timestamps.Start, a.Timestamps.End
	}

	switch {
	case a.Type == discord.ActivityTypeStreaming:
		name := details
		if name == "" {
			name = a.Name
		}
		return card.Streaming{Name: name, Game: state, URL: deref(a.URL)}

	case IsSpotify(a):
		var album string
		if a.Assets != nil {
			album = a.Assets.LargeText
		}
		return card.Music{
			Title:   details,
			Artists: splitArtists(state),
			Album:   album,
			Start:   start,
			End:     end,
		}

	case details != "" || state != "" || a.Assets != nil || a.Timestamps != nil:
		return card.Generic{Name: a.Name, Details: details, State: state, Start: start, End: end}

	default:
		return card.Game{Name: a.Name}
	}
}

// splitArtists undoes the "; " joining Spotify applies to artist names.
func splitArtists(state string) []string {
	if state == "" {
		return nil
	}
	return strings.Split(state, "; ")
}

// AssetURL resolves a rich-presence asset key to a fetchable URL. Empty keys
// stay empty.
func AssetURL(appID snowflake.ID, key string) string {
	switch {
	case key == "":
		return ""
	case strings.HasPrefix(key, mediaProxyPrefix):
		return mediaProxyURL + strings.TrimPrefix(key, mediaProxyPrefix)
	case strings.HasPrefix(key, spotifyPrefix):
		return spotifyArtURL + strings.TrimPrefix(key, spotifyPrefix)
	case appID == 0:
		return ""
	default:
		return appAssetURL + appID.String() + "/" + key + ".png"
	}
}

// Status converts a presence status. Invisible and unknown values are offline.
func Status(s discord.OnlineStatus) card.Status {
	return card.ParseStatus(string(s))
}

// Tag returns the discriminator shown after a name. Migrated usernames carry
// "0" and have no tag.
func Tag(u discord.User) string {
	if u.Discriminator == "0" {
		return ""
	}
	return u.Discriminator
}

// BannerColour converts a profile accent colour.
func BannerColour(accent *int) *palette.RGB {
	if accent == nil {
		return nil
	}
	v := *accent
	return &palette.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// MemberInput is everything known about a member at render time. Member,
// Presence and Accent may be nil.
type MemberInput struct {
	User     discord.User
	Member   *discord.Member
	Presence *discord.Presence
	Accent   *int
}

// BuildMemberAttrs converts platform state into card attributes.
func BuildMemberAttrs(in MemberInput, now time.Time, opts card.LineOptions) card.MemberAttrs {
	attrs := card.MemberAttrs{
		Name:         in.User.Username,
		Tag:          Tag(in.User),
		Status:       card.StatusOffline,
		Avatar:       in.User.EffectiveAvatarURL(),
		BannerColour: BannerColour(in.Accent),
	}

	if in.Member != nil {
		if in.Member.Nick != nil {
			attrs.Nick = *in.Member.Nick
		}
		attrs.Avatar = in.Member.EffectiveAvatarURL()
	}

	if in.Presence == nil {
		return attrs
	}

	attrs.Status = Status(in.Presence.Status)

	for _, a := range in.Presence.Activities {
		if a.Type == discord.ActivityTypeCustom {
			if text := utils.CompressAllWhitespace(deref(a.State)); text != "" {
				attrs.CustomActivity = &text
			}
			continue
		}

		var large, small string
		if a.Assets != nil {
			large = AssetURL(a.ApplicationID, a.Assets.LargeImage)
			small = AssetURL(a.ApplicationID, a.Assets.SmallImage)
		}

		attrs.Activities = append(attrs.Activities,
			card.NewActivityAttrs(ActivityType(a.Type), Variant(a), large, small, now, opts))
	}

	return attrs
}

// UserID formats a snowflake the way the tracker stores ids.
func UserID(id snowflake.ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseUserID parses a tracker id back into a snowflake.
func ParseUserID(id string) (snowflake.ID, error) {
	return snowflake.Parse(id)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
