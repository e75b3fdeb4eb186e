package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ziadkadry99/tinytune/internal/progress"
)

// DefaultPreviewSuffix names the filmstrip sidecar of a video:
// "clip.mp4" is previewed by "clip.preview.jpg".
const DefaultPreviewSuffix = ".preview.jpg"

// ScanConfig controls the behaviour of Scan.
type ScanConfig struct {
	Root          string            // media folder
	Include       []string          // glob patterns, only matching files are indexed
	Exclude       []string          // glob patterns, matching files are skipped
	PreviewSuffix string            // sidecar suffix ("" = DefaultPreviewSuffix)
	SkipDirs      []string          // absolute directories never descended into
	MaxFileSize   int64             // larger files are skipped, 0 = no limit
	Reporter      progress.Reporter // nil = no progress output
}

type candidate struct {
	path    string
	relPath string
	isDir   bool
	skipped bool // over MaxFileSize
	info    fs.FileInfo
}

// Scan walks cfg.Root and returns an Item for every directory and file that
// passes filtering. Directories come before their contents.
func Scan(cfg ScanConfig) ([]Item, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("scanner: resolve root: %w", err)
	}
	suffix := cfg.PreviewSuffix
	if suffix == "" {
		suffix = DefaultPreviewSuffix
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	skip := make(map[string]bool, len(cfg.SkipDirs))
	for _, d := range cfg.SkipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[abs] = true
		}
	}

	var candidates []candidate
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			if d != nil && d.IsDir() && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if ExcludedDir(name) || skip[p] {
				return filepath.SkipDir
			}
		} else if !d.Type().IsRegular() || strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
			return nil
		}

		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if !d.IsDir() {
			if !MatchesInclude(relPath, cfg.Include) || MatchesExclude(relPath, cfg.Exclude) {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		candidates = append(candidates, candidate{
			path:    p,
			relPath: relPath,
			isDir:   d.IsDir(),
			skipped: !d.IsDir() && cfg.MaxFileSize > 0 && info.Size() > cfg.MaxFileSize,
			info:    info,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: traversal: %w", err)
	}

	reporter.Start(progress.PhaseScan, len(candidates))
	defer reporter.Finish()

	dirIDs := make(map[string]string)
	items := make([]Item, 0, len(candidates))
	for i, c := range candidates {
		if c.skipped {
			reporter.Update(i+1, progress.Entry{
				Path:    c.relPath,
				Kind:    string(DetectKind(c.info.Name())),
				Size:    c.info.Size(),
				Skipped: true,
			})
			continue
		}

		item := Item{
			ParentID: dirIDs[path.Dir(c.relPath)],
			Name:     c.info.Name(),
			RelPath:  c.relPath,
			ModTime:  c.info.ModTime().UTC(),
		}

		if c.isDir {
			// Directory mtimes change with their contents; keep their URLs stable.
			item.ID = ItemID(c.relPath, time.Time{})
			item.Kind = KindDir
			dirIDs[c.relPath] = item.ID
		} else {
			item.ID = ItemID(c.relPath, c.info.ModTime())
			item.Kind = DetectKind(item.Name)
			item.Size = c.info.Size()
			switch item.Kind {
			case KindImage:
				item.Width, item.Height, _ = imageSize(c.path)
			case KindVideo:
				attachStrip(&item, root, suffix)
			}
		}

		items = append(items, item)
		reporter.Update(i+1, progress.Entry{
			Path:    item.RelPath,
			Kind:    string(item.Kind),
			Size:    item.Size,
			Preview: item.HasStrip(),
		})
	}

	return items, nil
}

// ItemID derives a stable short id from the relative path and modification
// time, so a replaced file gets a fresh id.
func ItemID(relPath string, modTime time.Time) string {
	h := sha256.Sum256([]byte(relPath + modTime.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h[:])[:10]
}

// StripPath returns the sidecar path for a video path.
func StripPath(videoPath, suffix string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + suffix
}

func attachStrip(item *Item, root, suffix string) {
	rel := StripPath(item.RelPath, suffix)
	w, h, err := imageSize(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return
	}
	item.PreviewPath = rel
	item.PreviewWidth = w
	item.PreviewHeight = h
}

func imageSize(p string) (int, int, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
