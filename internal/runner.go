package internal

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/fedragon/go-photosort/internal/classify"
	"github.com/fedragon/go-photosort/internal/config"
	"github.com/fedragon/go-photosort/internal/meta"
	"github.com/fedragon/go-photosort/internal/models"
	"github.com/fedragon/go-photosort/internal/organize"
	"github.com/fedragon/go-photosort/internal/watch"

	"go.uber.org/zap"
)

// Runner consumes file events one at a time and takes each file through the
// classify-then-organize pipeline. Per-file failures are logged and never
// stop the loop: the tool runs unattended, and one bad file must not block
// the rest.
type Runner struct {
	logger     *zap.Logger
	cfg        *config.Config
	classifier *classify.Classifier
	organizer  *organize.Organizer
}

func NewRunner(logger *zap.Logger, cfg *config.Config) *Runner {
	return &Runner{
		logger: logger,
		cfg:    cfg,
		classifier: &classify.Classifier{
			BaseThreshold:    cfg.BaseThreshold,
			BouquetThreshold: cfg.BouquetThreshold,
			BouquetFraction:  cfg.BouquetFraction,
		},
		organizer: organize.NewOrganizer(cfg.Dest, cfg.DryRun, logger),
	}
}

func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		r.logger.Info("Elapsed time", zap.Duration("elapsed", time.Since(start)))
	}()

	if r.cfg.DryRun {
		r.logger.Info("Running in DRY-RUN mode: files will not be moved")
	}

	if !r.cfg.SkipExisting {
		r.logger.Info("Processing existing files", zap.String("source", r.cfg.Source))

		for ev := range watch.WalkExisting(r.cfg.Source) {
			if ev.Err != nil {
				r.logger.Error("Cannot walk source directory", zap.Error(ev.Err))
				continue
			}
			r.Process(ev.Path)
		}
	}

	events, err := watch.Watch(ctx, r.cfg.Source, r.cfg.Settle, r.logger)
	if err != nil {
		return err
	}

	r.logger.Info("Watching for new photos", zap.String("source", r.cfg.Source))

	for ev := range events {
		if ev.Err != nil {
			r.logger.Error("Watcher error", zap.Error(ev.Err))
			continue
		}
		r.Process(ev.Path)
	}

	return nil
}

// Process runs the pipeline for a single file: verdict, capture time,
// placement, one log record. On failure the file stays where it is.
func (r *Runner) Process(path string) {
	verdict, variance, err := r.classifyFile(path)
	if err != nil {
		r.logger.Error("Cannot read file", zap.String("path", path), zap.Error(err))
		return
	}

	takenAt, err := meta.CaptureTime(path)
	if err != nil {
		info, statErr := os.Stat(path)
		if statErr != nil {
			r.logger.Error("Cannot stat file", zap.String("path", path), zap.Error(statErr))
			return
		}

		r.logger.Warn("No capture time in metadata, using modification time",
			zap.String("path", path),
			zap.Error(err))
		takenAt = info.ModTime()
	}

	target, err := r.organizer.Organize(path, verdict, takenAt)
	if err != nil {
		r.logger.Error("Cannot organize file", zap.String("path", path), zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("source", path),
		zap.String("verdict", verdict.String()),
		zap.String("dest", target),
	}
	// no variance was measured for unanalyzed files
	if verdict != models.Unanalyzed {
		fields = append(fields, zap.Float64("laplacian_variance", variance))
	}

	r.logger.Info("Processed file", fields...)
}

// classifyFile maps undecodable content to Unanalyzed; only a file that
// cannot be read at all is an error.
func (r *Runner) classifyFile(path string) (models.Verdict, float64, error) {
	img, err := classify.Decode(path)
	if errors.Is(err, classify.ErrUndecodable) {
		return models.Unanalyzed, 0, nil
	}
	if err != nil {
		return models.Unanalyzed, 0, err
	}

	verdict, variance := r.classifier.Classify(img)
	return verdict, variance, nil
}
