package gallery

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/tinytune/internal/media"
)

// handlePreview serves the filmstrip of a video or the thumbnail of an
// image, falling back to the image itself.
func (g *Gallery) handlePreview(w http.ResponseWriter, r *http.Request) {
	item, ok := g.lookupFile(w, r)
	if !ok {
		return
	}
	switch {
	case item.HasPreview():
		g.serveFile(w, r, item.PreviewPath)
	case item.Kind == media.KindImage:
		g.serveFile(w, r, item.RelPath)
	default:
		http.NotFound(w, r)
	}
}

// handleOrigin serves the original file.
func (g *Gallery) handleOrigin(w http.ResponseWriter, r *http.Request) {
	item, ok := g.lookupFile(w, r)
	if !ok {
		return
	}
	g.serveFile(w, r, item.RelPath)
}

func (g *Gallery) lookupFile(w http.ResponseWriter, r *http.Request) (*media.Item, bool) {
	item, err := g.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if item == nil || item.Kind == media.KindDir {
		http.NotFound(w, r)
		return nil, false
	}
	return item, true
}

// serveFile streams a file below the media root, or a generated preview
// given by absolute path, with range support.
func (g *Gallery) serveFile(w http.ResponseWriter, r *http.Request, relPath string) {
	p := filepath.FromSlash(relPath)
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.mediaDir, p)
	}
	f, err := os.Open(p)
	if err != nil {
		// The index can lag behind deletions until the next rescan.
		http.Error(w, "file might be deleted", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Printf("gallery: stat %s: %v", p, err)
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (g *Gallery) handleStyle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(cssContent))
	w.Write([]byte(tileCSS(g.tiles)))
}

func (g *Gallery) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write([]byte(jsContent))
}
