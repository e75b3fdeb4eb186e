package media

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/tinytune/internal/preview"
	"github.com/ziadkadry99/tinytune/internal/progress"
)

// renderPreviews fills in thumbnails for large images, and strips and
// lengths for videos, that the media folder does not provide. Previews from
// the previous run are kept while their item is unchanged. A failed preview
// leaves its item as scanned.
func (ix *Indexer) renderPreviews(ctx context.Context, items []Item) error {
	gen := ix.Previews
	previous, err := ix.Store.All(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]Item, len(previous))
	for _, it := range previous {
		known[it.ID] = it
	}

	var todo []int
	for i := range items {
		it := &items[i]
		if !needsRender(*it, gen) {
			continue
		}
		if old, ok := known[it.ID]; ok && reusePreview(it, old) {
			continue
		}
		todo = append(todo, i)
	}
	if len(todo) == 0 {
		return nil
	}

	root, err := filepath.Abs(ix.Scan.Root)
	if err != nil {
		return err
	}
	reporter := ix.Scan.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	reporter.Start(progress.PhasePreviews, len(todo))
	defer reporter.Finish()

	var mu sync.Mutex
	done := 0
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, ix.Workers))
	for _, i := range todo {
		eg.Go(func() error {
			it := &items[i]
			err := renderPreview(ctx, gen, filepath.Join(root, filepath.FromSlash(it.RelPath)), it)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				log.Printf("indexer: preview of %s: %v", it.RelPath, err)
			}

			mu.Lock()
			defer mu.Unlock()
			done++
			reporter.Update(done, progress.Entry{
				Path:    it.RelPath,
				Kind:    string(it.Kind),
				Size:    it.Size,
				Preview: err == nil && it.HasPreview(),
				Failed:  err != nil,
			})
			return nil
		})
	}
	return eg.Wait()
}

func needsRender(it Item, gen *preview.Generator) bool {
	switch it.Kind {
	case KindImage:
		return !it.HasPreview() && (it.Width > preview.MaxSide || it.Height > preview.MaxSide)
	case KindVideo:
		return gen.CanVideo() && (!it.HasStrip() || it.Duration == 0)
	}
	return false
}

// reusePreview carries the generated preview and length of an unchanged
// item over from the previous run.
func reusePreview(it *Item, old Item) bool {
	if it.HasStrip() {
		// Sidecar strip; only the length was generated.
		if old.Duration <= 0 {
			return false
		}
		it.Duration = old.Duration
		return true
	}
	if !old.HasPreview() || !filepath.IsAbs(old.PreviewPath) {
		return false
	}
	if _, err := os.Stat(old.PreviewPath); err != nil {
		return false
	}
	it.PreviewPath, it.PreviewWidth, it.PreviewHeight = old.PreviewPath, old.PreviewWidth, old.PreviewHeight
	it.Duration = old.Duration
	return true
}

func renderPreview(ctx context.Context, gen *preview.Generator, src string, it *Item) error {
	var res preview.Result
	var err error
	switch {
	case it.Kind == KindImage:
		res, err = gen.Image(src, it.ID)
	case it.HasStrip():
		var info preview.VideoInfo
		if info, err = gen.Inspect(ctx, src); err == nil {
			it.Duration = info.Duration
		}
		return err
	default:
		res, err = gen.Video(ctx, src, it.ID)
	}
	if err != nil {
		return err
	}
	if res.Path != "" {
		it.PreviewPath, it.PreviewWidth, it.PreviewHeight = res.Path, res.Width, res.Height
	}
	it.Duration = res.Duration
	return nil
}

// prunePreviews drops cached previews no stored item points at.
func (ix *Indexer) prunePreviews(items []Item) {
	keep := make(map[string]bool, len(items))
	for _, it := range items {
		if it.PreviewPath == ix.Previews.Path(it.ID) {
			keep[it.ID] = true
		}
	}
	if err := ix.Previews.Prune(keep); err != nil {
		log.Printf("indexer: %v", err)
	}
}
