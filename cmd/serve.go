package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tinytune/internal/config"
	"github.com/ziadkadry99/tinytune/internal/events"
	"github.com/ziadkadry99/tinytune/internal/gallery"
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/server"
	"github.com/ziadkadry99/tinytune/internal/watcher"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

var (
	servePort    int
	serveNoIndex bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Index the media folder and serve the gallery",
	Long: `Indexes the configured media folder, then starts the HTTP server with
the gallery pages, the zoom and fit APIs and the live layout channel. When
watching is enabled, changes on disk trigger a rescan that refreshes open
pages.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := media.NewStore(database)
		if !serveNoIndex {
			if err := runIndex(ctx, cfg, store); err != nil {
				return err
			}
		}

		bus := events.NewBus()
		g, err := gallery.New(store, zoom.NewSQLStore(database), bus, gallery.Options{
			MediaDir:    cfg.MediaDir,
			Tiles:       cfg.Tiles.Table(),
			DefaultSort: cfg.DefaultSort,
		})
		if err != nil {
			return fmt.Errorf("creating gallery: %w", err)
		}

		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.CORSAllowAll,
		}, database)
		g.RegisterRoutes(srv.Router())

		if cfg.Watch {
			if err := startWatcher(ctx, cfg, store, bus); err != nil {
				return err
			}
		}

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "tinytune %s serving %s on http://localhost:%d\n", Version, cfg.MediaDir, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// startWatcher reindexes in the background whenever the media folder changes.
func startWatcher(ctx context.Context, cfg *config.Config, store *media.Store, bus *events.Bus) error {
	debounce, err := cfg.Debounce()
	if err != nil {
		return err
	}
	ix, err := newIndexer(cfg, store, false)
	if err != nil {
		return err
	}
	w, err := watcher.New(ix, bus, debounce)
	if err != nil {
		return fmt.Errorf("watching %s: %w", cfg.MediaDir, err)
	}
	go w.Run(ctx)

	if verbose {
		fmt.Fprintf(os.Stderr, "  Watching for changes (debounce %s)\n", debounce)
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides the config)")
	serveCmd.Flags().BoolVar(&serveNoIndex, "no-index", false, "serve the existing index without rescanning first")
	rootCmd.AddCommand(serveCmd)
}
