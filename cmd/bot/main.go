package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redqct/redqct/internal/assets"
	"github.com/redqct/redqct/internal/discord"
	"github.com/redqct/redqct/internal/scheduler"
	"github.com/redqct/redqct/internal/setup"
	"github.com/redqct/redqct/internal/setup/telemetry"
	"github.com/redqct/redqct/internal/tracker"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// BotLogDir specifies where bot log files are stored.
	BotLogDir = "logs/bot_logs"

	// shutdownTimeout bounds closing the gateway and flushing traces.
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "bot",
		Usage: "Start the redqct bot and activity tracker",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-tracker",
				Usage: "Serve status cards only, without per-minute tracking",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runBot(ctx, !c.Bool("no-tracker"))
		},
	}

	return app.Run(context.Background(), os.Args)
}

func runBot(ctx context.Context, tracking bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceBot, BotLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		app.Cleanup(cleanupCtx)
	}()

	cfg := app.Config
	if err := cfg.ValidateDiscord(); err != nil {
		return err
	}

	discordBot, err := discord.New(
		cfg.Bot.Discord.Token,
		snowflake.ID(cfg.Bot.Discord.GuildID),
		app.Cards,
		app.LineOptions,
		app.Logger,
	)
	if err != nil {
		return err
	}

	if err := discordBot.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		discordBot.Close(closeCtx)
	}()

	if tracking {
		sched, err := startTracker(ctx, app, discordBot)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	log.Println("Bot has been started. Waiting for interrupt signal to gracefully shutdown...")
	<-ctx.Done()

	return nil
}

// startTracker restores tracked users and starts the per-minute tick. The
// gateway must be open so that stale users can be detected.
func startTracker(ctx context.Context, app *setup.App, discordBot *discord.Bot) (*scheduler.Scheduler, error) {
	registry, err := newRegistry(app, discordBot.Platform())
	if err != nil {
		return nil, err
	}

	if err := registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load tracked users: %w", err)
	}
	discordBot.SetRegistry(registry)

	sched, err := scheduler.New(app.Config.Bot.Tracker.CronSpec, registry.Tick, app.Logger)
	if err != nil {
		return nil, err
	}
	sched.Start(ctx)

	app.Logger.Info("Tracker started",
		zap.Int("users", len(registry.Users())),
		zap.Time("nextTick", sched.Next()))

	return sched, nil
}

// newRegistry wires the tracker with its own log file.
func newRegistry(app *setup.App, platform tracker.Platform) (*tracker.Registry, error) {
	trackerCfg := app.Config.Bot.Tracker

	store, err := tracker.NewStore(trackerCfg.DataDir)
	if err != nil {
		return nil, err
	}

	allocator, err := assets.NewAllocator(trackerCfg.RandomAttempts)
	if err != nil {
		return nil, err
	}

	logger := app.LogManager.GetComponentLogger("tracker")
	return tracker.NewRegistry(store, platform, app.Graphs, allocator, logger), nil
}
