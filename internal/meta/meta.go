package meta

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ErrNoCaptureTime means the file carries no usable EXIF timestamp. Callers
// fall back to the filesystem modification time.
var ErrNoCaptureTime = errors.New("no capture time in metadata")

// CaptureTime extracts DateTimeOriginal (or DateTime) from the file's EXIF
// block. TIFF-based RAW formats often carry one too, so it is worth trying
// even for files the classifier cannot decode.
func CaptureTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("%v: %v: %w", path, err, ErrNoCaptureTime)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("%v: %v: %w", path, err, ErrNoCaptureTime)
	}

	taken, err := x.DateTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%v: %v: %w", path, err, ErrNoCaptureTime)
	}

	return taken, nil
}
