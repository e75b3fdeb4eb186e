package gallery

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/preview"
	"github.com/ziadkadry99/tinytune/internal/search"
	"github.com/ziadkadry99/tinytune/internal/view"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

// crumb is one step of the breadcrumb trail.
type crumb struct {
	Name string
	Href string // empty for the current page
}

// tile is one grid cell.
type tile struct {
	media.Item
	Href         string
	Caption      template.HTML
	HumanSize    string
	Badge        string // duration of a video, else its extension
	StripStyle   template.CSS
	OverlayStyle template.CSS
}

type pageData struct {
	Title      string
	BodyClass  string
	Level      zoom.Level
	CanZoomIn  bool
	CanZoomOut bool
	DirID      string
	Crumbs     []crumb
	Tiles      []tile
	Sorts      []string
	ActiveSort string
	Search     string
	Found      bool
	Notes      template.HTML
}

func (g *Gallery) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dirID := chi.URLParam(r, "dirID")

	var chain []media.Item
	if dirID != "" {
		dir, err := g.store.Get(ctx, dirID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if dir == nil || dir.Kind != media.KindDir {
			http.NotFound(w, r)
			return
		}
		if chain, err = g.store.Ancestors(ctx, dirID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	items, err := g.store.Children(ctx, dirID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := g.newPageData(w, r, dirID, chain, items, "")
	g.attachNotes(&data, chain)
	g.render(w, data)
}

func (g *Gallery) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dirID := chi.URLParam(r, "dirID")
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	if query == "" {
		target := "/"
		if dirID != "" {
			target = "/d/" + dirID
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	var chain []media.Item
	if dirID != "" {
		dir, err := g.store.Get(ctx, dirID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if dir == nil || dir.Kind != media.KindDir {
			http.NotFound(w, r)
			return
		}
		if chain, err = g.store.Ancestors(ctx, dirID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	items, err := g.store.Search(ctx, query, dirID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := g.newPageData(w, r, dirID, chain, items, query)
	data.Crumbs[len(data.Crumbs)-1].Href = dirHref(dirID)
	data.Crumbs = append(data.Crumbs, crumb{Name: "Search"})
	g.render(w, data)
}

// newPageData sorts items, fits their previews at the client's level and
// fills in the page chrome.
func (g *Gallery) newPageData(w http.ResponseWriter, r *http.Request, dirID string, chain, items []media.Item, query string) pageData {
	clientID := g.clientID(w, r)
	level := g.currentLevel(r.Context(), r, clientID)
	active := g.activeSort(r)
	items = media.Sort(items, active)

	v := view.New(level, g.tiles)
	v.Swap(stripElements(items))

	_, canIn := zoom.Next(level, zoom.ActionIn)
	_, canOut := zoom.Next(level, zoom.ActionOut)

	data := pageData{
		Title:      "tinytune",
		BodyClass:  zoom.NewClassList("gallery", level.Class()).String(),
		Level:      level,
		CanZoomIn:  canIn,
		CanZoomOut: canOut,
		DirID:      dirID,
		Crumbs:     []crumb{{Name: "Home", Href: "/"}},
		Sorts:      media.SortNames(),
		ActiveSort: active,
		Search:     query,
		Found:      query != "",
	}

	for _, c := range chain {
		data.Crumbs = append(data.Crumbs, crumb{Name: c.Name, Href: dirHref(c.ID)})
		data.Title = c.Name + " · tinytune"
	}
	// The last crumb is the page itself.
	data.Crumbs[len(data.Crumbs)-1].Href = ""

	data.Tiles = make([]tile, 0, len(items))
	for _, it := range items {
		t := tile{
			Item:    it,
			Href:    "/origin/" + it.ID,
			Caption: search.Caption(it.Name, query),
		}
		if it.Kind == media.KindDir {
			t.Href = dirHref(it.ID)
		} else {
			t.HumanSize = humanize.Bytes(uint64(it.Size))
			t.Badge = badge(it)
		}
		if p, ok := v.Placement(it.ID); ok {
			t.StripStyle = template.CSS(p.Style())
			t.OverlayStyle = template.CSS(p.OverlayStyle())
		}
		data.Tiles = append(data.Tiles, t)
	}
	return data
}

func badge(it media.Item) string {
	if it.Duration > 0 {
		return preview.FormatDuration(it.Duration)
	}
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(it.Name), "."))
}

// attachNotes renders the README of the listed directory, if any.
func (g *Gallery) attachNotes(data *pageData, chain []media.Item) {
	if g.mediaDir == "" {
		return
	}
	dir := g.mediaDir
	if len(chain) > 0 {
		dir = filepath.Join(g.mediaDir, filepath.FromSlash(chain[len(chain)-1].RelPath))
	}
	html, ok, err := g.notes.RenderDir(dir)
	if err != nil {
		log.Printf("gallery: rendering notes for %s: %v", dir, err)
		return
	}
	if ok {
		data.Notes = html
	}
}

func (g *Gallery) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := g.pages.ExecuteTemplate(&buf, "index", data); err != nil {
		log.Printf("gallery: rendering page: %v", err)
		http.Error(w, "rendering page failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func dirHref(id string) string {
	if id == "" {
		return "/"
	}
	return "/d/" + id
}
