// Package gallery serves the media grid: directory and search pages, the
// zoom controls, file downloads and the live layout channel.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziadkadry99/tinytune/internal/events"
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/notes"
	"github.com/ziadkadry99/tinytune/internal/view"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

// ClientCookie identifies a browser across page loads and live sessions.
const ClientCookie = "tinytune_client"

var errDirNotFound = errors.New("directory not found")

// Options configures a Gallery.
type Options struct {
	MediaDir    string
	Tiles       view.TileTable // nil = view.DefaultTiles()
	DefaultSort string         // "" = media.DefaultSort
}

// Gallery wires the media index, zoom preferences and event bus to HTTP.
type Gallery struct {
	store       *media.Store
	prefs       *zoom.SQLStore
	bus         *events.Bus
	notes       *notes.Renderer
	mediaDir    string
	tiles       view.TileTable
	defaultSort string
	pages       *template.Template
}

// New creates a new Gallery.
func New(store *media.Store, prefs *zoom.SQLStore, bus *events.Bus, opts Options) (*Gallery, error) {
	if opts.Tiles == nil {
		opts.Tiles = view.DefaultTiles()
	}
	if err := opts.Tiles.Validate(); err != nil {
		return nil, fmt.Errorf("gallery tiles: %w", err)
	}
	if opts.DefaultSort == "" {
		opts.DefaultSort = media.DefaultSort
	}
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}
	return &Gallery{
		store:       store,
		prefs:       prefs,
		bus:         bus,
		notes:       notes.NewRenderer(),
		mediaDir:    opts.MediaDir,
		tiles:       opts.Tiles,
		defaultSort: opts.DefaultSort,
		pages:       pages,
	}, nil
}

// RegisterRoutes mounts all gallery routes onto the given router.
func (g *Gallery) RegisterRoutes(r chi.Router) {
	r.Get("/", g.handleIndex)
	r.Get("/d/{dirID}", g.handleIndex)
	r.Get("/s", g.handleSearch)
	r.Get("/s/{dirID}", g.handleSearch)
	r.Post("/zoom/{action}", g.handleZoomForm)
	r.Post("/sort", g.handleSort)
	r.Get("/preview/{id}", g.handlePreview)
	r.Get("/origin/{id}", g.handleOrigin)
	r.Get("/static/style.css", g.handleStyle)
	r.Get("/static/app.js", g.handleScript)

	r.Route("/api", func(r chi.Router) {
		r.Post("/zoom/{action}", g.handleZoomAPI)
		r.Get("/fit/{id}", g.handleFit)
	})

	r.Get("/ws/layout", g.handleLayout)
}

// clientID returns the browser's id, issuing a new one when absent.
func (g *Gallery) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ClientCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	if w != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     ClientCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id
}

// zoomLoader reads the client's stored level, then the zoom cookie.
func (g *Gallery) zoomLoader(r *http.Request, clientID string) zoom.Loader {
	return zoom.Loaders(g.prefs.ForClient(clientID), zoom.NewCookieStore(nil, r))
}

// currentLevel resolves the level a request should be rendered at.
func (g *Gallery) currentLevel(ctx context.Context, r *http.Request, clientID string) zoom.Level {
	return zoom.Initial(ctx, g.zoomLoader(r, clientID))
}

// activeSort reads the sort cookie, falling back to the configured default.
func (g *Gallery) activeSort(r *http.Request) string {
	c, err := r.Cookie(media.SortCookie)
	if err != nil {
		return g.defaultSort
	}
	name, err := url.QueryUnescape(c.Value)
	if err != nil {
		return g.defaultSort
	}
	if _, ok := media.LookupSort(name); !ok {
		return g.defaultSort
	}
	return name
}

// stripElements lists the items that carry a filmstrip to fit.
func stripElements(items []media.Item) []view.Element {
	var els []view.Element
	for _, it := range items {
		if it.HasStrip() {
			els = append(els, view.Element{ID: it.ID, Natural: it.StripSize()})
		}
	}
	return els
}

// publishZoom tells other live sessions of the same client about a change.
func (g *Gallery) publishZoom(clientID, session string, level zoom.Level) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(events.Event{
		Topic:    events.TopicZoomChanged,
		ClientID: clientID,
		Payload:  zoomChange{Level: level, Session: session},
	})
}

// zoomChange is the payload of events.TopicZoomChanged.
type zoomChange struct {
	Level   zoom.Level
	Session string // originating live session, empty for page requests
}

// backTo returns the local path of the Referer, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || !strings.HasPrefix(ref.Path, "/") || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
