package gallery

import (
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/tinytune/internal/fit"
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/view"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

// zoomResponse is the JSON response of the zoom API.
type zoomResponse struct {
	Level   zoom.Level       `json:"level"`
	Class   string           `json:"class"`
	Changed bool             `json:"changed"`
	Fits    []view.Placement `json:"fits"`
}

// handleZoomForm serves the plain form buttons: dispatch, persist to the
// cookie and the client's row, then go back to the page.
func (g *Gallery) handleZoomForm(w http.ResponseWriter, r *http.Request) {
	action, ok := zoom.ParseAction(chi.URLParam(r, "action"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown zoom action")
		return
	}

	ctx := r.Context()
	clientID := g.clientID(w, r)
	current := g.currentLevel(ctx, r, clientID)

	ctrl := zoom.Controller{
		Persister: zoom.Persisters(zoom.NewCookieStore(w, r), g.prefs.ForClient(clientID)),
	}
	if next := ctrl.Dispatch(ctx, current, action); next != current {
		g.publishZoom(clientID, "", next)
	}

	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

// handleZoomAPI dispatches like handleZoomForm and answers with the new
// body class and the fits of the directory named by ?dir=.
func (g *Gallery) handleZoomAPI(w http.ResponseWriter, r *http.Request) {
	action, ok := zoom.ParseAction(chi.URLParam(r, "action"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown zoom action")
		return
	}

	ctx := r.Context()
	dirID := r.URL.Query().Get("dir")
	if dirID != "" {
		dir, err := g.store.Get(ctx, dirID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if dir == nil || dir.Kind != media.KindDir {
			writeError(w, http.StatusNotFound, "directory not found")
			return
		}
	}
	items, err := g.store.Children(ctx, dirID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	clientID := g.clientID(w, r)
	current := g.currentLevel(ctx, r, clientID)

	v := view.New(current, g.tiles)
	v.Swap(stripElements(items))
	body := zoom.NewClassList(current.Class())

	ctrl := zoom.Controller{
		Persister: zoom.Persisters(zoom.NewCookieStore(w, r), g.prefs.ForClient(clientID)),
		Reflector: body,
		Recompute: func(level zoom.Level) { v.SetLevel(level) },
	}
	next := ctrl.Dispatch(ctx, current, action)
	if next != current {
		g.publishZoom(clientID, "", next)
	}

	writeJSON(w, http.StatusOK, zoomResponse{
		Level:   next,
		Class:   body.String(),
		Changed: next != current,
		Fits:    v.Placements(),
	})
}

// handleFit computes the fit of one preview. The container defaults to the
// tile of the client's level; ?width= and ?height= override it.
func (g *Gallery) handleFit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := g.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil || !item.HasStrip() {
		writeError(w, http.StatusNotFound, "preview not found")
		return
	}

	level := g.currentLevel(ctx, r, g.clientID(w, r))
	container := g.tiles.Size(level)
	if q := r.URL.Query(); q.Get("width") != "" || q.Get("height") != "" {
		width, werr := strconv.ParseFloat(q.Get("width"), 64)
		height, herr := strconv.ParseFloat(q.Get("height"), 64)
		if werr != nil || herr != nil || !finitePositive(width) || !finitePositive(height) {
			writeError(w, http.StatusBadRequest, "width and height must be positive numbers")
			return
		}
		container = fit.Size{Width: width, Height: height}
	}

	v := view.New(level, g.tiles)
	v.Resize(container)
	p, _ := v.Mount(view.Element{ID: item.ID, Natural: item.StripSize()})
	writeJSON(w, http.StatusOK, p)
}

// handleSort stores the chosen order in the sort cookie.
func (g *Gallery) handleSort(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("sort")
	if _, ok := media.LookupSort(name); !ok {
		writeError(w, http.StatusBadRequest, "unknown sort")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     media.SortCookie,
		Value:    url.QueryEscape(name),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, backTo(r), http.StatusSeeOther)
}

func finitePositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}
