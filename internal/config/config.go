package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
)

const (
	// DefaultBaseThreshold is the Laplacian variance below which a generic
	// photo counts as blurry.
	DefaultBaseThreshold = 100.0
	// DefaultBouquetThreshold is the relaxed variance threshold applied to
	// photos whose colors suggest a bouquet.
	DefaultBouquetThreshold = 70.0
	// DefaultBouquetFraction is the floral pixel ratio above which the
	// relaxed threshold applies.
	DefaultBouquetFraction = 0.15
	// DefaultSettle is how long to wait after a file appears before reading
	// it, so that a file still being uploaded has time to finish.
	DefaultSettle = time.Second
)

// Config carries everything the runner needs, resolved and validated at startup.
type Config struct {
	Source           string
	Dest             string
	BaseThreshold    float64
	BouquetThreshold float64
	BouquetFraction  float64
	Settle           time.Duration
	SkipExisting     bool
	DryRun           bool
}

// Resolve expands ~ in both paths, verifies that the source directory exists
// and creates the destination base if it is missing.
func (c *Config) Resolve() error {
	source, err := homedir.Expand(c.Source)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}

	dest, err := homedir.Expand(c.Dest)
	if err != nil {
		return fmt.Errorf("destination base: %w", err)
	}

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %v is not a directory", source)
	}

	if err := os.MkdirAll(dest, os.ModePerm); err != nil {
		return fmt.Errorf("destination base: %w", err)
	}

	c.Source = source
	c.Dest = dest

	return nil
}
