package meta

import (
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestCaptureTime(t *testing.T) {
	dir := t.TempDir()

	// a perfectly valid JPEG, just without any EXIF block
	plain := filepath.Join(dir, "plain.jpg")
	f, err := os.Create(plain)
	if err != nil {
		t.Fatalf(err.Error())
	}
	if err := jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf(err.Error())
	}
	if err := f.Close(); err != nil {
		t.Fatalf(err.Error())
	}

	garbage := filepath.Join(dir, "garbage.jpg")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatalf(err.Error())
	}

	cases := []struct {
		name string
		path string
	}{
		{
			name: "jpeg without exif has no capture time",
			path: plain,
		},
		{
			name: "garbage bytes have no capture time",
			path: garbage,
		},
		{
			name: "missing file has no capture time",
			path: filepath.Join(dir, "nope.jpg"),
		},
	}

	for _, c := range cases {
		if _, err := CaptureTime(c.path); !errors.Is(err, ErrNoCaptureTime) {
			t.Errorf("%v\n\tExpected ErrNoCaptureTime but got %v instead", c.name, err)
		}
	}
}
