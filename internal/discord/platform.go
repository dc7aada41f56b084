package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redqct/redqct/internal/card"
	"github.com/redqct/redqct/internal/tracker"
	"go.uber.org/zap"
)

var _ tracker.Platform = (*Platform)(nil)

// Platform answers member and presence questions for one guild, preferring
// the gateway caches over REST lookups.
type Platform struct {
	client  bot.Client
	guildID snowflake.ID
	logger  *zap.Logger
}

// NewPlatform creates a Platform scoped to guildID.
func NewPlatform(client bot.Client, guildID snowflake.ID, logger *zap.Logger) *Platform {
	return &Platform{
		client:  client,
		guildID: guildID,
		logger:  logger.Named("discord_platform"),
	}
}

// IsMember reports whether id is still in the guild. A 404 from the member
// endpoint means the user left.
func (p *Platform) IsMember(ctx context.Context, id string) (bool, error) {
	_, err := p.member(ctx, id)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, err
}

// ActivityNames returns the names of the cached activities of id. Users
// without a cached presence are treated as idle.
func (p *Platform) ActivityNames(_ context.Context, id string) ([]string, error) {
	userID, err := ParseUserID(id)
	if err != nil {
		return nil, err
	}

	presence, ok := p.client.Caches().Presence(p.guildID, userID)
	if !ok {
		return nil, nil
	}
	return ActivityNames(presence.Activities), nil
}

// Identity returns the username and tag of id.
func (p *Platform) Identity(ctx context.Context, id string) (tracker.Identity, error) {
	member, err := p.member(ctx, id)
	if err != nil {
		return tracker.Identity{}, err
	}
	return tracker.Identity{Name: member.User.Username, Tag: Tag(member.User)}, nil
}

// MemberAttrs collects everything a status card needs for id. The accent
// colour is only available through the user endpoint, so a failure there
// just leaves the banner untinted.
func (p *Platform) MemberAttrs(ctx context.Context, id snowflake.ID, now time.Time, opts card.LineOptions) (card.MemberAttrs, error) {
	member, err := p.member(ctx, UserID(id))
	if err != nil {
		return card.MemberAttrs{}, err
	}

	in := MemberInput{User: member.User, Member: member}

	if presence, ok := p.client.Caches().Presence(p.guildID, id); ok {
		in.Presence = &presence
	}

	user, err := p.client.Rest().GetUser(id, rest.WithCtx(ctx))
	if err != nil {
		p.logger.Warn("Failed to fetch user profile", zap.Uint64("userID", uint64(id)), zap.Error(err))
	} else {
		in.Accent = user.AccentColor
	}

	return BuildMemberAttrs(in, now, opts), nil
}

// member looks id up in the member cache first and falls back to REST.
func (p *Platform) member(ctx context.Context, id string) (*discord.Member, error) {
	userID, err := ParseUserID(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}

	if member, ok := p.client.Caches().Member(p.guildID, userID); ok {
		return &member, nil
	}

	member, err := p.client.Rest().GetMember(p.guildID, userID, rest.WithCtx(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}
	return member, nil
}

func isNotFound(err error) bool {
	var restErr *rest.Error
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
