package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redqct/redqct/internal/graph"
	"github.com/redqct/redqct/internal/summary"
	"github.com/redqct/redqct/internal/tracker"
)

// Command and option names.
const (
	StatusCommandName  = "status"
	TrackCommandName   = "track"
	UntrackCommandName = "untrack"
	GraphCommandName   = "graph"
	UsageCommandName   = "usage"

	UserOptionName   = "user"
	OffsetOptionName = "offset"
	DayOptionName    = "day"
)

// Commands returns the guild command definitions.
func Commands() []discord.ApplicationCommandCreate {
	userOption := discord.ApplicationCommandOptionUser{
		Name:        UserOptionName,
		Description: "Member to look at (defaults to you)",
	}

	return []discord.ApplicationCommandCreate{
		discord.SlashCommandCreate{
			Name:        StatusCommandName,
			Description: "Show a status card with current activities",
			Options:     []discord.ApplicationCommandOption{userOption},
		},
		discord.SlashCommandCreate{
			Name:        TrackCommandName,
			Description: "Start recording your daily activity graph",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        OffsetOptionName,
					Description: "Your UTC offset, e.g. +5, -8:30, 10:45",
					Required:    true,
				},
			},
		},
		discord.SlashCommandCreate{
			Name:        UntrackCommandName,
			Description: "Stop recording and delete your activity graphs",
		},
		discord.SlashCommandCreate{
			Name:        GraphCommandName,
			Description: "Show an activity graph",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        DayOptionName,
					Description: "Which day to show",
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "Today", Value: tracker.Today.String()},
						{Name: "Yesterday", Value: tracker.Yesterday.String()},
					},
				},
				userOption,
			},
		},
		discord.SlashCommandCreate{
			Name:        UsageCommandName,
			Description: "Show minutes spent per activity today",
			Options:     []discord.ApplicationCommandOption{userOption},
		},
	}
}

// isEphemeral reports whether a command's response is only shown to the invoker.
func isEphemeral(name string) bool {
	return name == TrackCommandName || name == UntrackCommandName
}

// target returns the user option, or the invoker when it is absent.
func target(event *events.ApplicationCommandInteractionCreate) discord.User {
	if user, ok := event.SlashCommandInteractionData().OptUser(UserOptionName); ok {
		return user
	}
	return event.User()
}

func (b *Bot) handleStatus(ctx context.Context, event *events.ApplicationCommandInteractionCreate) (reply, error) {
	user := target(event)

	attrs, err := b.platform.MemberAttrs(ctx, user.ID, time.Now(), b.lineOpts)
	if err != nil {
		return reply{}, err
	}

	data, err := b.cards.Render(ctx, attrs)
	if err != nil {
		return reply{}, fmt.Errorf("failed to render status card: %w", err)
	}

	return reply{fileName: "status.png", file: data}, nil
}

func (b *Bot) handleTrack(ctx context.Context, event *events.ApplicationCommandInteractionCreate) (reply, error) {
	registry := b.registry.Load()
	if registry == nil {
		return reply{}, ErrRegistryNotReady
	}

	offset, _ := event.SlashCommandInteractionData().OptString(OffsetOptionName)

	snapshot, err := registry.Track(ctx, UserID(event.User().ID), offset, time.Now())
	if errors.Is(err, tracker.ErrAlreadyTracked) {
		return reply{content: "You are already being tracked. Use `/untrack` first to change your offset."}, nil
	}
	if err != nil {
		return reply{}, err
	}

	label := graph.TimezoneLabel(snapshot.Offset.Hours, snapshot.Offset.Minutes)
	return reply{content: fmt.Sprintf("Now tracking your activity (%s). The graph updates every minute.", label)}, nil
}

func (b *Bot) handleUntrack(_ context.Context, event *events.ApplicationCommandInteractionCreate) (reply, error) {
	registry := b.registry.Load()
	if registry == nil {
		return reply{}, ErrRegistryNotReady
	}

	err := registry.Untrack(UserID(event.User().ID))
	if errors.Is(err, tracker.ErrNotTracked) {
		return reply{content: "You are not being tracked."}, nil
	}
	if err != nil {
		return reply{}, err
	}

	return reply{content: "Stopped tracking. Your graphs have been deleted."}, nil
}

func (b *Bot) handleGraph(_ context.Context, event *events.ApplicationCommandInteractionCreate) (reply, error) {
	registry := b.registry.Load()
	if registry == nil {
		return reply{}, ErrRegistryNotReady
	}

	user := target(event)
	dayName, _ := event.SlashCommandInteractionData().OptString(DayOptionName)
	day := tracker.ParseDay(dayName)

	data, err := registry.Graph(UserID(user.ID), day)
	if errors.Is(err, tracker.ErrNotTracked) {
		return reply{content: notTrackedMessage(user.ID, event.User().ID)}, nil
	}
	if err != nil {
		return reply{}, err
	}

	return reply{fileName: "graph_" + day.String() + ".png", file: data}, nil
}

func (b *Bot) handleUsage(_ context.Context, event *events.ApplicationCommandInteractionCreate) (reply, error) {
	registry := b.registry.Load()
	if registry == nil {
		return reply{}, ErrRegistryNotReady
	}

	user := target(event)
	id := UserID(user.ID)

	snapshot, ok := registry.Get(id)
	if !ok {
		return reply{content: notTrackedMessage(user.ID, event.User().ID)}, nil
	}

	data, err := registry.Graph(id, tracker.Today)
	if err != nil {
		return reply{}, err
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return reply{}, fmt.Errorf("failed to decode graph: %w", err)
	}

	usages := summary.Minutes(img, snapshot.Entries)
	usageChart, err := summary.Chart(snapshot.Name+"'s activity today", usages)
	if errors.Is(err, summary.ErrNoActivity) {
		return reply{content: "No activity has been recorded today."}, nil
	}
	if err != nil {
		return reply{}, err
	}

	content := fmt.Sprintf("%d minutes of activity recorded today.", summary.Total(usages))
	return reply{content: content, fileName: "usage.png", file: usageChart}, nil
}

func notTrackedMessage(targetID, invokerID snowflake.ID) string {
	if targetID == invokerID {
		return "You are not being tracked. Use `/track` to start."
	}
	return "That user is not being tracked."
}
