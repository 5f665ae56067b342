package organize

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fedragon/go-photosort/internal/models"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

// Organizer moves classified photos into <base>/<YYYY-MM-DD>/<HH>/<bucket>/,
// never overwriting anything already there.
type Organizer struct {
	base   string
	dryRun bool
	logger *zap.Logger
}

func NewOrganizer(base string, dryRun bool, logger *zap.Logger) *Organizer {
	return &Organizer{
		base:   base,
		dryRun: dryRun,
		logger: logger,
	}
}

func bucket(v models.Verdict) string {
	switch v {
	case models.Sharp:
		return "sharp"
	case models.Blurry:
		return "blurry"
	default:
		return "unsorted"
	}
}

// Organize moves the file at path into the destination tree and returns the
// resolved destination. The source is left untouched on any failure. In
// dry-run mode it only returns the candidate destination, without resolving
// collisions or touching the filesystem.
func (o *Organizer) Organize(path string, verdict models.Verdict, takenAt time.Time) (string, error) {
	dir := filepath.Join(o.base, takenAt.Format("2006-01-02"), takenAt.Format("15"), bucket(verdict))

	if o.dryRun {
		return filepath.Join(dir, filepath.Base(path)), nil
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating %v: %w", dir, err)
	}

	target, err := reserve(dir, filepath.Base(path))
	if err != nil {
		return "", err
	}

	if err := o.move(path, target); err != nil {
		_ = os.Remove(target)
		return "", err
	}

	return target, nil
}

// reserve claims a free name in dir with O_EXCL, so that a concurrent writer
// resolving the same collision cannot pick the same one. The original name is
// tried first, then name_1.ext, name_2.ext and so on.
func reserve(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)

	for i := 0; ; i++ {
		candidate := filename
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", name, i, ext)
		}

		target := filepath.Join(dir, candidate)
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			if err := f.Close(); err != nil {
				_ = os.Remove(target)
				return "", err
			}
			return target, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("reserving %v: %w", target, err)
		}
	}
}

// move renames src over the reserved target. When the rename fails (typically
// because source and destination live on different filesystems) it falls back
// to an atomic copy, removing the source only once the destination content is
// verified.
func (o *Organizer) move(src, target string) error {
	if err := os.Rename(src, target); err == nil {
		return nil
	}

	o.logger.Debug("Rename failed, copying instead", zap.String("source", src), zap.String("dest", target))
	return copyVerified(src, target)
}

func copyVerified(src, target string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	hasher := blake3.New(32, nil)
	if err := atomic.WriteFile(target, bufio.NewReader(io.TeeReader(in, hasher))); err != nil {
		return fmt.Errorf("writing %v: %w", target, err)
	}

	written, err := hash(target)
	if err != nil {
		return err
	}
	if !bytes.Equal(hasher.Sum(nil), written) {
		_ = os.Remove(target)
		return fmt.Errorf("content mismatch after copying %v to %v", src, target)
	}

	return os.Remove(src)
}

func hash(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}
