package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/tinytune/internal/config"
	"github.com/ziadkadry99/tinytune/internal/db"
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/preview"
	"github.com/ziadkadry99/tinytune/internal/progress"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `tinytune init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openDatabase opens the index database under the configured data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// newIndexer builds the indexer for cfg, reporting progress when interactive
// is set.
func newIndexer(cfg *config.Config, store *media.Store, interactive bool) (*media.Indexer, error) {
	scan, err := cfg.ScanConfig()
	if err != nil {
		return nil, err
	}
	if interactive {
		scan.Reporter = progress.NewReporter()
	}
	ix := media.NewIndexer(store, scan, cfg.DataPath())

	if cfg.GeneratePreviews {
		timeout, err := cfg.PreviewTimeoutDuration()
		if err != nil {
			return nil, err
		}
		if ix.Previews, err = preview.New(cfg.PreviewsPath(), timeout); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// runIndex indexes the media folder once and prints a summary.
func runIndex(ctx context.Context, cfg *config.Config, store *media.Store) error {
	ix, err := newIndexer(cfg, store, true)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := ix.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", cfg.MediaDir, err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d entries from %s in %s\n", n, cfg.MediaDir, time.Since(start).Round(time.Millisecond))

	if verbose {
		stats, err := store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("reading index stats: %w", err)
		}
		fmt.Fprintf(os.Stderr, "  %d directories, %d images, %d videos, %d other, %d strips or thumbnails\n",
			stats.Dirs, stats.Images, stats.Videos, stats.Others, stats.Previews)
	}
	return nil
}
