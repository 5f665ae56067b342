package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")

	cfg := &Config{Source: source, Dest: dest}
	if err := cfg.Resolve(); err != nil {
		t.Fatalf(err.Error())
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("Expected destination base to be created but got %v instead", err)
	}
	if !info.IsDir() {
		t.Errorf("Expected destination base to be a directory")
	}
}

func TestResolveFailures(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "regular")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf(err.Error())
	}

	cases := []struct {
		name string
		cfg  Config
	}{
		{
			name: "missing source directory",
			cfg:  Config{Source: filepath.Join(dir, "nope"), Dest: filepath.Join(dir, "out")},
		},
		{
			name: "source is a regular file",
			cfg:  Config{Source: file, Dest: filepath.Join(dir, "out")},
		},
		{
			name: "destination base occupied by a regular file",
			cfg:  Config{Source: dir, Dest: filepath.Join(file, "out")},
		},
	}

	for _, c := range cases {
		if err := c.cfg.Resolve(); err == nil {
			t.Errorf("%v\n\tExpected an error but got none", c.name)
		}
	}
}

func TestResolveExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := os.Mkdir(filepath.Join(home, "in"), os.ModePerm); err != nil {
		t.Fatalf(err.Error())
	}

	cfg := &Config{Source: "~/in", Dest: "~/out"}
	if err := cfg.Resolve(); err != nil {
		t.Fatalf(err.Error())
	}

	if cfg.Source != filepath.Join(home, "in") {
		t.Errorf("Expected %v but got %v instead", filepath.Join(home, "in"), cfg.Source)
	}
	if cfg.Dest != filepath.Join(home, "out") {
		t.Errorf("Expected %v but got %v instead", filepath.Join(home, "out"), cfg.Dest)
	}
}
