package gallery

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/tinytune/internal/events"
	"github.com/ziadkadry99/tinytune/internal/fit"
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/view"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// layoutRequest is the incoming WebSocket message format.
type layoutRequest struct {
	Type   string  `json:"type"` // "mount", "resize", "zoom" or "fit"
	Dir    string  `json:"dir,omitempty"`
	Query  string  `json:"query,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Action string  `json:"action,omitempty"`
	ID     string  `json:"id,omitempty"`
}

// fitsMessage carries fresh fits for the mounted previews.
type fitsMessage struct {
	Type  string           `json:"type"` // "fits"
	Level zoom.Level       `json:"level"`
	Fits  []view.Placement `json:"fits"`
}

// zoomMessage reports the level after a zoom action.
type zoomMessage struct {
	Type    string     `json:"type"` // "zoom"
	Level   zoom.Level `json:"level"`
	Class   string     `json:"class"`
	Changed bool       `json:"changed"`
}

type errorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// layoutSession is one live grid. It mirrors the page's body class and
// mounted previews and pushes fits whenever the zoom level, the container or
// the directory contents change.
type layoutSession struct {
	g        *Gallery
	conn     *websocket.Conn
	id       string
	clientID string

	writeMu sync.Mutex

	// mu serializes state changes from the reader and bus callbacks.
	mu      sync.Mutex
	view    *view.View
	body    *zoom.ClassList
	dir     string
	query   string
	mounted bool

	subs events.Group
}

func (g *Gallery) handleLayout(w http.ResponseWriter, r *http.Request) {
	clientID := g.clientID(nil, r)
	// The connection outlives the request, so its context is not used.
	ctx := context.Background()
	level := g.currentLevel(ctx, r, clientID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gallery: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	s := &layoutSession{
		g:        g,
		conn:     conn,
		id:       uuid.NewString(),
		clientID: clientID,
		view:     view.New(level, g.tiles),
		body:     zoom.NewClassList(level.Class()),
	}
	s.subscribe()
	defer s.subs.Dispose()

	s.readLoop(ctx)
}

func (s *layoutSession) subscribe() {
	bus := s.g.bus
	if bus == nil {
		return
	}
	s.subs.Add(bus.Subscribe(events.TopicZoomChanged, s.onZoomChanged))
	s.subs.Add(bus.Subscribe(events.TopicContentSwapped, s.onContentSwapped))
}

func (s *layoutSession) readLoop(ctx context.Context) {
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("gallery: websocket read: %v", err)
			}
			return
		}

		var req layoutRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError("invalid message format")
			continue
		}

		switch req.Type {
		case "mount":
			s.handleMount(ctx, req.Dir, req.Query)
		case "resize":
			s.handleResize(fit.Size{Width: req.Width, Height: req.Height})
		case "zoom":
			s.handleZoom(ctx, req.Action)
		case "fit":
			s.handleFit(req.ID)
		default:
			s.sendError("unknown message type: " + req.Type)
		}
	}
}

// handleMount loads the previews a page rendered into the view: the
// directory's children, or its search results when query is set.
func (s *layoutSession) handleMount(ctx context.Context, dirID, query string) {
	items, err := s.loadItems(ctx, dirID, query)
	if err != nil {
		s.sendError(err.Error())
		return
	}

	s.mu.Lock()
	s.dir = dirID
	s.query = query
	s.mounted = true
	fits := s.view.Swap(stripElements(items))
	level := s.view.Level()
	s.mu.Unlock()

	s.sendFits(level, fits)
}

func (s *layoutSession) handleResize(size fit.Size) {
	if !finitePositive(size.Width) || !finitePositive(size.Height) {
		s.sendError("width and height must be positive numbers")
		return
	}

	s.mu.Lock()
	fits := s.view.Resize(size)
	level := s.view.Level()
	s.mu.Unlock()

	s.sendFits(level, fits)
	if s.g.bus != nil {
		s.g.bus.Publish(events.Event{Topic: events.TopicLayoutResized, ClientID: s.clientID, Payload: size})
	}
}

// handleZoom runs the zoom controller against this session: the level is
// persisted for the client, the body class is reflected and the previews
// are refitted, in that order.
func (s *layoutSession) handleZoom(ctx context.Context, raw string) {
	action, ok := zoom.ParseAction(raw)
	if !ok {
		s.sendError("unknown zoom action: " + raw)
		return
	}

	s.mu.Lock()
	current := s.view.Level()
	ctrl := zoom.Controller{
		Persister: s.g.prefs.ForClient(s.clientID),
		Reflector: zoom.ReflectorFunc(func(from, to zoom.Level) {
			s.body.Reflect(from, to)
			s.send(zoomMessage{Type: "zoom", Level: to, Class: to.Class(), Changed: true})
		}),
		Recompute: func(level zoom.Level) {
			s.sendFits(level, s.view.SetLevel(level))
		},
	}
	next := ctrl.Dispatch(ctx, current, action)
	s.mu.Unlock()

	if next == current {
		s.send(zoomMessage{Type: "zoom", Level: current, Class: current.Class(), Changed: false})
		return
	}
	// Published outside mu: other sessions lock their own state in the callback.
	s.g.publishZoom(s.clientID, s.id, next)
}

func (s *layoutSession) handleFit(id string) {
	s.mu.Lock()
	p, ok := s.view.Fit(id)
	level := s.view.Level()
	s.mu.Unlock()

	if !ok {
		s.sendError("preview not mounted: " + id)
		return
	}
	s.sendFits(level, []view.Placement{p})
}

// onZoomChanged follows zoom changes the same client made elsewhere.
func (s *layoutSession) onZoomChanged(ev events.Event) {
	change, ok := ev.Payload.(zoomChange)
	if !ok || ev.ClientID != s.clientID || change.Session == s.id {
		return
	}

	s.mu.Lock()
	from := s.view.Level()
	if from == change.Level {
		s.mu.Unlock()
		return
	}
	s.body.Reflect(from, change.Level)
	fits := s.view.SetLevel(change.Level)
	s.mu.Unlock()

	s.send(zoomMessage{Type: "zoom", Level: change.Level, Class: change.Level.Class(), Changed: true})
	s.sendFits(change.Level, fits)
}

// onContentSwapped remounts the current page after a rescan.
func (s *layoutSession) onContentSwapped(ev events.Event) {
	s.mu.Lock()
	dirID, query, mounted := s.dir, s.query, s.mounted
	s.mu.Unlock()
	if !mounted {
		return
	}
	s.handleMount(context.Background(), dirID, query)
}

func (s *layoutSession) loadItems(ctx context.Context, dirID, query string) ([]media.Item, error) {
	store := s.g.store
	if dirID != "" {
		dir, err := store.Get(ctx, dirID)
		if err != nil {
			return nil, err
		}
		if dir == nil || dir.Kind != media.KindDir {
			return nil, errDirNotFound
		}
	}
	if query = strings.TrimSpace(query); query != "" {
		return store.Search(ctx, query, dirID)
	}
	return store.Children(ctx, dirID)
}

func (s *layoutSession) sendFits(level zoom.Level, fits []view.Placement) {
	if fits == nil {
		fits = []view.Placement{}
	}
	s.send(fitsMessage{Type: "fits", Level: level, Fits: fits})
}

func (s *layoutSession) sendError(message string) {
	s.send(errorMessage{Type: "error", Message: message})
}

func (s *layoutSession) send(v interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(v); err != nil {
		log.Printf("gallery: websocket write: %v", err)
	}
}
