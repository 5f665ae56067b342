package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fedragon/go-photosort/internal"
	"github.com/fedragon/go-photosort/internal/config"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "go-photosort",
		Usage: "watch a directory for new photos, split them into sharp and blurry, and file them by capture time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "directory to watch for new photos",
				EnvVars:  []string{"SOURCE_DIR"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dest",
				Aliases:  []string{"d"},
				Usage:    "base directory of the organized tree",
				EnvVars:  []string{"DEST_DIR"},
				Required: true,
			},
			&cli.Float64Flag{
				Name:    "base-threshold",
				Value:   config.DefaultBaseThreshold,
				Usage:   "Laplacian variance below which a photo counts as blurry",
				EnvVars: []string{"BASE_THRESHOLD"},
			},
			&cli.Float64Flag{
				Name:    "bouquet-threshold",
				Value:   config.DefaultBouquetThreshold,
				Usage:   "relaxed variance threshold for photos that look like bouquets",
				EnvVars: []string{"BOUQUET_THRESHOLD"},
			},
			&cli.Float64Flag{
				Name:    "bouquet-fraction",
				Value:   config.DefaultBouquetFraction,
				Usage:   "floral pixel ratio above which the relaxed threshold applies",
				EnvVars: []string{"BOUQUET_FRACTION"},
			},
			&cli.DurationFlag{
				Name:    "settle",
				Value:   config.DefaultSettle,
				Usage:   "how long to wait after a file appears before processing it",
				EnvVars: []string{"SETTLE"},
			},
			&cli.BoolFlag{
				Name:  "skip-existing",
				Usage: "do not process files already present in the source directory",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "log what would be moved, without moving anything",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "verbose, human-readable logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf(err.Error())
	}
}

func run(c *cli.Context) error {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg := &config.Config{
		Source:           c.String("source"),
		Dest:             c.String("dest"),
		BaseThreshold:    c.Float64("base-threshold"),
		BouquetThreshold: c.Float64("bouquet-threshold"),
		BouquetFraction:  c.Float64("bouquet-fraction"),
		Settle:           c.Duration("settle"),
		SkipExisting:     c.Bool("skip-existing"),
		DryRun:           c.Bool("dry-run"),
	}
	if err := cfg.Resolve(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return internal.NewRunner(logger, cfg).Run(ctx)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
