package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redqct/redqct/internal/card"
	"github.com/redqct/redqct/internal/tracker"
	"go.uber.org/zap"
)

// commandTimeout bounds the work behind a single slash command.
const commandTimeout = 30 * time.Second

// ErrRegistryNotReady is returned by tracking commands before SetRegistry.
var ErrRegistryNotReady = errors.New("tracker is not ready")

// CardRenderer renders a status card to PNG bytes.
type CardRenderer interface {
	Render(ctx context.Context, attrs card.MemberAttrs) ([]byte, error)
}

// reply is the successful outcome of a command.
type reply struct {
	content  string
	fileName string
	file     []byte
}

type commandHandler func(ctx context.Context, event *events.ApplicationCommandInteractionCreate) (reply, error)

// Bot serves the slash commands of one guild.
type Bot struct {
	client   bot.Client
	platform *Platform
	registry atomic.Pointer[tracker.Registry]
	cards    CardRenderer
	guildID  snowflake.ID
	lineOpts card.LineOptions
	handlers map[string]commandHandler
	logger   *zap.Logger
}

// New creates the gateway client with the intents and caches needed for
// member and presence lookups in guildID.
func New(token string, guildID snowflake.ID, cards CardRenderer, lineOpts card.LineOptions, logger *zap.Logger) (*Bot, error) {
	b := &Bot{
		cards:    cards,
		guildID:  guildID,
		lineOpts: lineOpts,
		logger:   logger.Named("discord_bot"),
	}

	b.handlers = map[string]commandHandler{
		StatusCommandName:  b.handleStatus,
		TrackCommandName:   b.handleTrack,
		UntrackCommandName: b.handleUntrack,
		GraphCommandName:   b.handleGraph,
		UsageCommandName:   b.handleUsage,
	}

	client, err := disgo.New(token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMembers,
				gateway.IntentGuildPresences,
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagMembers, cache.FlagPresences),
		),
		bot.WithMemberChunkingFilter(bot.MemberChunkingFilterIncludeGuildIDs(guildID)),
		bot.WithEventListeners(&events.ListenerAdapter{
			OnApplicationCommandInteraction: b.handleApplicationCommandInteraction,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}

	b.client = client
	b.platform = NewPlatform(client, guildID, logger)

	return b, nil
}

// Platform returns the member and presence adapter backed by this bot's caches.
func (b *Bot) Platform() *Platform {
	return b.platform
}

// SetRegistry connects the tracker. Tracking commands fail until it is set.
func (b *Bot) SetRegistry(registry *tracker.Registry) {
	b.registry.Store(registry)
}

// Start registers the guild commands and opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Registering commands", zap.Uint64("guildID", uint64(b.guildID)))

	if _, err := b.client.Rest().SetGuildCommands(b.client.ApplicationID(), b.guildID, Commands()); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("Starting bot")
	return b.client.OpenGateway(ctx)
}

// Close shuts the gateway connection down.
func (b *Bot) Close(ctx context.Context) {
	b.logger.Info("Closing bot")
	b.client.Close(ctx)
}

// handleApplicationCommandInteraction defers the response and runs the
// command in its own goroutine so the gateway is never blocked.
func (b *Bot) handleApplicationCommandInteraction(event *events.ApplicationCommandInteractionCreate) {
	go func() {
		name := event.SlashCommandInteractionData().CommandName()

		handler, ok := b.handlers[name]
		if !ok {
			b.logger.Warn("Unknown command", zap.String("command", name))
			return
		}

		if err := event.DeferCreateMessage(isEphemeral(name)); err != nil {
			b.logger.Error("Failed to defer create message", zap.Error(err))
			return
		}

		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Panic in command handler", zap.String("command", name), zap.Any("panic", r))
				b.respondWithError(event, "Internal error. Please try again later.")
			}
			b.logger.Debug("Command handled",
				zap.String("command", name),
				zap.Uint64("userID", uint64(event.User().ID)),
				zap.Duration("duration", time.Since(start)))
		}()

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		result, err := handler(ctx, event)
		if err != nil {
			b.logger.Error("Command failed", zap.String("command", name), zap.Error(err))
			b.respondWithError(event, errorMessage(err))
			return
		}

		b.respond(event, result)
	}()
}

// respond replaces the deferred response with r.
func (b *Bot) respond(event *events.ApplicationCommandInteractionCreate, r reply) {
	builder := discord.NewMessageUpdateBuilder().SetContent(r.content)
	if r.file != nil {
		builder.AddFiles(discord.NewFile(r.fileName, "", bytes.NewReader(r.file)))
	}

	if _, err := b.client.Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), builder.Build()); err != nil {
		b.logger.Error("Failed to update interaction response", zap.Error(err))
	}
}

// respondWithError replaces the deferred response with an error message.
func (b *Bot) respondWithError(event *events.ApplicationCommandInteractionCreate, message string) {
	messageUpdate := discord.NewMessageUpdateBuilder().
		SetContent("Fatal error: " + message).
		ClearFiles().
		Build()

	_, _ = b.client.Rest().UpdateInteractionResponse(event.ApplicationID(), event.Token(), messageUpdate)
}

// errorMessage maps command failures to text that is safe to show users.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, tracker.ErrInvalidOffset):
		return "invalid UTC offset. Expected " + tracker.OffsetGrammar + "."
	case errors.Is(err, ErrRegistryNotReady):
		return "tracking is not available yet. Please try again in a moment."
	case isNotFound(err):
		return "that user is not a member of this server."
	case errors.Is(err, context.DeadlineExceeded):
		return "the request took too long. Please try again."
	default:
		return "something went wrong while handling this command."
	}
}
