// Package watcher reindexes the media folder when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ziadkadry99/tinytune/internal/events"
	"github.com/ziadkadry99/tinytune/internal/media"
)

// Watcher follows every directory below the media root. Bursts of changes
// are collapsed into one index run after the debounce delay, and each run
// is announced on the bus as events.TopicContentSwapped.
type Watcher struct {
	indexer  *media.Indexer
	bus      *events.Bus
	debounce time.Duration
	root     string
	skip     []string
	fsw      *fsnotify.Watcher
}

// New starts watching the indexer's media root. Call Run to process changes.
func New(indexer *media.Indexer, bus *events.Bus, debounce time.Duration) (*Watcher, error) {
	root, err := filepath.Abs(indexer.Scan.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving media root: %w", err)
	}
	var skip []string
	for _, d := range indexer.Scan.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip = append(skip, abs)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		indexer:  indexer,
		bus:      bus,
		debounce: debounce,
		root:     root,
		skip:     skip,
		fsw:      fsw,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes change events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						log.Printf("watcher: %v", err)
					}
				}
			}
			fire = time.After(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watcher: %v", err)

		case <-fire:
			fire = nil
			w.reindex(ctx)
		}
	}
}

func (w *Watcher) reindex(ctx context.Context) {
	start := time.Now()
	n, err := w.indexer.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("watcher: reindexing %s: %v", w.root, err)
		}
		return
	}
	log.Printf("watcher: reindexed %d entries in %s", n, time.Since(start).Round(time.Millisecond))
	if w.bus != nil {
		w.bus.Publish(events.Event{Topic: events.TopicContentSwapped, Payload: n})
	}
}

// relevant drops attribute-only changes and anything inside skipped or
// excluded directories.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.skipped(ev.Name) {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if media.ExcludedDir(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) skipped(p string) bool {
	for _, s := range w.skip {
		if p == s || strings.HasPrefix(p, s+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return fmt.Errorf("watching %s: %w", p, err)
			}
			// Vanished or unreadable; the next rescan settles it.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && (media.ExcludedDir(d.Name()) || w.skipped(p)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
