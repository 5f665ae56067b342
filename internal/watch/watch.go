package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fedragon/go-photosort/internal/models"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	ARW  = ".arw"
	CR2  = ".cr2"
	DNG  = ".dng"
	JPG  = ".jpg"
	JPEG = ".jpeg"
	NEF  = ".nef"
	ORF  = ".orf"
	PNG  = ".png"
	RAW  = ".raw"
	TIF  = ".tif"
	TIFF = ".tiff"
)

var types = []string{ARW, CR2, DNG, JPG, JPEG, NEF, ORF, PNG, RAW, TIF, TIFF}

// Supported reports whether the file at path is one the pipeline handles.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range types {
		if ext == t {
			return true
		}
	}
	return false
}

// WalkExisting emits every supported file already present under root, in walk
// order. A walk failure is delivered as the final event's Err.
func WalkExisting(root string) <-chan models.Event {
	events := make(chan models.Event)

	go func() {
		defer close(events)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && Supported(d.Name()) {
				events <- models.Event{Path: path}
			}

			return nil
		})

		if err != nil {
			events <- models.Event{Err: err}
		}
	}()

	return events
}

// Watch emits an event for every supported file created anywhere under dir,
// including subdirectories created after the watch started, until ctx is
// cancelled. Each event is held back for the settle interval so that a file
// still being uploaded has time to finish.
func Watch(ctx context.Context, dir string, settle time.Duration, logger *zap.Logger) (<-chan models.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := addRecursive(watcher, dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan models.Event)

	go func() {
		defer close(events)
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("Cannot close watcher", zap.Error(err))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Create) {
					continue
				}

				// fsnotify watches are not recursive, so directories created
				// after startup must be added explicitly
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watcher.Add(ev.Name); err != nil {
						logger.Warn("Cannot watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
					continue
				}

				if !Supported(ev.Name) {
					continue
				}

				select {
				case <-ctx.Done():
					return
				case <-time.After(settle):
				}

				select {
				case <-ctx.Done():
					return
				case events <- models.Event{Path: ev.Name}:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				select {
				case <-ctx.Done():
					return
				case events <- models.Event{Err: err}:
				}
			}
		}
	}()

	return events, nil
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
