package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redqct/redqct/internal/card"
	"github.com/redqct/redqct/internal/compositor"
	"github.com/redqct/redqct/internal/setup"
	"github.com/redqct/redqct/internal/setup/telemetry"
	"github.com/redqct/redqct/internal/tracker"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const (
	// RenderLogDir specifies where render log files are stored.
	RenderLogDir = "logs/render_logs"

	// CardCommand renders a status card from a JSON attribute file.
	CardCommand = "card"
	// GraphCommand renders an empty timeline graph.
	GraphCommand = "graph"
)

var errMissingInput = errors.New("missing attribute file argument")

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	outputFlag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Value:   "out.png",
		Usage:   "Where to write the PNG",
	}

	app := &cli.Command{
		Name:  "render",
		Usage: "Render cards and graphs offline to check assets",
		Commands: []*cli.Command{
			{
				Name:      CardCommand,
				Usage:     "Render a status card from member attributes",
				ArgsUsage: "<attrs.json>",
				Flags:     []cli.Flag{outputFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() < 1 {
						return errMissingInput
					}
					return renderCard(ctx, c.Args().First(), c.String("output"))
				},
			},
			{
				Name:  GraphCommand,
				Usage: "Render an empty activity graph",
				Flags: []cli.Flag{
					outputFlag,
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name in the title",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "tag",
						Usage: "Discriminator shown after the name",
					},
					&cli.StringFlag{
						Name:  "offset",
						Value: "0",
						Usage: "UTC offset, " + tracker.OffsetGrammar,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return renderGraph(ctx, c.String("name"), c.String("tag"), c.String("offset"), c.String("output"))
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

func renderCard(ctx context.Context, input, output string) error {
	raw, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read attributes: %w", err)
	}

	var attrs card.MemberAttrs
	if err := sonic.Unmarshal(raw, &attrs); err != nil {
		return fmt.Errorf("failed to decode attributes: %w", err)
	}

	app, err := setup.InitializeApp(ctx, telemetry.ServiceRender, RenderLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	start := time.Now()

	data, err := app.Cards.Render(ctx, card.Normalize(attrs, app.LineOptions))
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write card: %w", err)
	}

	app.Logger.Info("Rendered card",
		zap.String("output", output),
		zap.Int("activities", len(attrs.Activities)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

func renderGraph(ctx context.Context, name, tag, offset, output string) error {
	o, err := tracker.ParseOffset(offset)
	if err != nil {
		return err
	}

	app, err := setup.InitializeApp(ctx, telemetry.ServiceRender, RenderLogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(ctx)

	img, err := app.Graphs.Empty(name, tag, o.Apply(time.Now()), o.Hours, o.Minutes)
	if err != nil {
		return err
	}

	data, err := compositor.EncodePNG(img)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}

	app.Logger.Info("Rendered graph", zap.String("output", output), zap.String("offset", o.String()))

	return nil
}
