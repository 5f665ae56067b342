package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir, 10*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf(err.Error())
	}

	path := filepath.Join(dir, "photo.jpg")
	if err := os.WriteFile(path, []byte("pixels"), 0o644); err != nil {
		t.Fatalf(err.Error())
	}
	// ignored: unsupported extension
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatalf(err.Error())
	}

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf(ev.Err.Error())
		}
		if ev.Path != path {
			t.Errorf("Expected %v but got %v instead", path, ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected an event but got none within 5s")
	}

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// the txt creation must not have produced an event
			t.Errorf("Expected the channel to be closed but got an event instead")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected the channel to close after cancellation")
	}
}

func TestWatchPreexistingSubdirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, os.ModePerm); err != nil {
		t.Fatalf(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir, 10*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf(err.Error())
	}

	path := filepath.Join(sub, "photo.jpg")
	if err := os.WriteFile(path, []byte("pixels"), 0o644); err != nil {
		t.Fatalf(err.Error())
	}

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf(ev.Err.Error())
		}
		if ev.Path != path {
			t.Errorf("Expected %v but got %v instead", path, ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected an event for %v but got none within 5s", path)
	}
}

func TestWatchNewSubdirectory(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, dir, 10*time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf(err.Error())
	}

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, os.ModePerm); err != nil {
		t.Fatalf(err.Error())
	}
	// give the watcher a moment to pick up the new directory
	time.Sleep(500 * time.Millisecond)

	path := filepath.Join(sub, "photo.jpg")
	if err := os.WriteFile(path, []byte("pixels"), 0o644); err != nil {
		t.Fatalf(err.Error())
	}

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf(ev.Err.Error())
		}
		if ev.Path != path {
			t.Errorf("Expected %v but got %v instead", path, ev.Path)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected an event for %v but got none within 5s", path)
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := Watch(ctx, filepath.Join(t.TempDir(), "nope"), time.Millisecond, zap.NewNop()); err == nil {
		t.Fatalf("Expected an error but got none")
	}
}
