package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"

	"github.com/ziadkadry99/tinytune/internal/preview"
)

// LockFileName is created in the data directory while an index run is active.
const LockFileName = "index.lock"

// Indexer scans the media folder and replaces the stored index. Runs from
// separate processes are serialized through a lock file.
type Indexer struct {
	Store    *Store
	Scan     ScanConfig
	LockPath string
	// LockWait bounds how long Run waits for another process to finish.
	LockWait time.Duration
	// Previews renders the previews the media folder lacks. Nil keeps
	// items as scanned.
	Previews *preview.Generator
	// Workers bounds concurrent preview jobs.
	Workers int
}

// NewIndexer creates an indexer that locks <dataDir>/index.lock.
func NewIndexer(store *Store, scan ScanConfig, dataDir string) *Indexer {
	return &Indexer{
		Store:    store,
		Scan:     scan,
		LockPath: filepath.Join(dataDir, LockFileName),
		LockWait: 30 * time.Second,
		Workers:  max(1, runtime.NumCPU()/2),
	}
}

// Run scans and stores the index, returning the number of entries written.
func (ix *Indexer) Run(ctx context.Context) (int, error) {
	if err := os.MkdirAll(filepath.Dir(ix.LockPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating lock directory: %w", err)
	}

	lock := flock.New(ix.LockPath)
	lockCtx, cancel := context.WithTimeout(ctx, ix.LockWait)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, 250*time.Millisecond)
	if err != nil {
		return 0, fmt.Errorf("acquiring index lock %s: %w", ix.LockPath, err)
	}
	if !locked {
		return 0, fmt.Errorf("index lock %s is held by another process", ix.LockPath)
	}
	defer lock.Unlock()

	items, err := Scan(ix.Scan)
	if err != nil {
		return 0, err
	}
	if ix.Previews != nil {
		if err := ix.renderPreviews(ctx, items); err != nil {
			return 0, err
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := ix.Store.ReplaceAll(ctx, items); err != nil {
		return 0, err
	}
	if ix.Previews != nil {
		ix.prunePreviews(items)
	}
	return len(items), nil
}
