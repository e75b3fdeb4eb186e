package gallery

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/tinytune/internal/db"
	"github.com/ziadkadry99/tinytune/internal/events"
	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/zoom"
)

type fixture struct {
	g      *Gallery
	router chi.Router
	prefs  *zoom.SQLStore
	bus    *events.Bus
	store  *media.Store
	ids    map[string]string // rel path -> id
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupTest indexes this library:
//
//	cover.png                 image 64x48
//	beach.mp4                 video, strip 40x200
//	README.md                 notes for the root
//	clips/night.mp4           video, strip 40x200
func setupTest(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	writePNG(t, filepath.Join(root, "cover.png"), 64, 48)
	writeFile(t, filepath.Join(root, "beach.mp4"), "video bytes")
	writePNG(t, filepath.Join(root, "beach.preview.jpg"), 40, 200)
	writeFile(t, filepath.Join(root, "README.md"), "# Welcome home\n")
	writeFile(t, filepath.Join(root, "clips", "night.mp4"), "video bytes")
	writePNG(t, filepath.Join(root, "clips", "night.preview.jpg"), 40, 200)

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := media.NewStore(database)
	items, err := media.Scan(media.ScanConfig{Root: root})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := store.ReplaceAll(context.Background(), items); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	ids := make(map[string]string)
	for _, it := range items {
		ids[it.RelPath] = it.ID
	}

	prefs := zoom.NewSQLStore(database)
	bus := events.NewBus()
	g, err := New(store, prefs, bus, Options{MediaDir: root})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r := chi.NewRouter()
	g.RegisterRoutes(r)
	return &fixture{g: g, router: r, prefs: prefs, bus: bus, store: store, ids: ids}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func withClient(req *http.Request, clientID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: ClientCookie, Value: clientID})
	return req
}

func cookieValue(w *httptest.ResponseRecorder, name string) (string, bool) {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func TestIndexPage(t *testing.T) {
	f := setupTest(t)

	w := f.do(t, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()

	for _, want := range []string{
		`class="gallery zoom-medium"`,
		// 40x200 strip in a 240x180 tile: one 40x40 frame, height bound.
		`data-strip="` + f.ids["beach.mp4"] + `" style="width:180px;height:180px"`,
		`style="right:30px"`,
		`href="/d/` + f.ids["clips"] + `"`,
		`<h1 id="welcome-home">Welcome home</h1>`,
		`/preview/` + f.ids["cover.png"],
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	if id, ok := cookieValue(w, ClientCookie); !ok || uuid.Validate(id) != nil {
		t.Errorf("expected a client id cookie, got %q", id)
	}
}

func TestDirectoryPage(t *testing.T) {
	f := setupTest(t)

	w := f.do(t, httptest.NewRequest("GET", "/d/"+f.ids["clips"], nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "night.mp4") || strings.Contains(body, "cover.png") {
		t.Error("directory page should list only its own children")
	}
	if !strings.Contains(body, `<span class="current">clips</span>`) {
		t.Error("missing breadcrumb for the directory")
	}

	if w := f.do(t, httptest.NewRequest("GET", "/d/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("unknown dir: expected 404, got %d", w.Code)
	}
	if w := f.do(t, httptest.NewRequest("GET", "/d/"+f.ids["cover.png"], nil)); w.Code != http.StatusNotFound {
		t.Errorf("file as dir: expected 404, got %d", w.Code)
	}
}

func TestSearchPage(t *testing.T) {
	f := setupTest(t)

	w := f.do(t, httptest.NewRequest("GET", "/s?query=NIGHT", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `<mark class="hit">night</mark>.mp4`) {
		t.Errorf("expected highlighted caption in:\n%s", body)
	}
	if !strings.Contains(body, `id="found"`) {
		t.Error("expected results banner")
	}

	w = f.do(t, httptest.NewRequest("GET", "/s/"+f.ids["clips"]+"?query=beach", nil))
	if strings.Contains(w.Body.String(), "beach.mp4") {
		t.Error("search below clips should not find root files")
	}

	w = f.do(t, httptest.NewRequest("GET", "/s?query=", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("empty query: got %d to %q", w.Code, w.Header().Get("Location"))
	}
	w = f.do(t, httptest.NewRequest("GET", "/s/"+f.ids["clips"]+"?query=", nil))
	if w.Header().Get("Location") != "/d/"+f.ids["clips"] {
		t.Errorf("empty query in dir: redirected to %q", w.Header().Get("Location"))
	}
}

func TestZoomForm(t *testing.T) {
	f := setupTest(t)
	clientID := uuid.NewString()

	req := withClient(httptest.NewRequest("POST", "/zoom/in", nil), clientID)
	req.Header.Set("Referer", "http://example.com/d/abc")
	w := f.do(t, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/d/abc" {
		t.Errorf("redirected to %q, want /d/abc", loc)
	}
	if v, _ := cookieValue(w, zoom.CookieName); v != "large" {
		t.Errorf("zoom cookie = %q, want large", v)
	}
	level, ok, err := f.prefs.Get(context.Background(), clientID)
	if err != nil || !ok || level != zoom.LevelLarge {
		t.Errorf("stored level = %s, %v, %v", level, ok, err)
	}

	// The next page load renders at the stored level.
	w = f.do(t, withClient(httptest.NewRequest("GET", "/", nil), clientID))
	if !strings.Contains(w.Body.String(), `class="gallery zoom-large"`) {
		t.Error("page should render at the stored level")
	}
}

func TestZoomFormExtremesAndBadAction(t *testing.T) {
	f := setupTest(t)
	clientID := uuid.NewString()
	ctx := context.Background()
	if err := f.prefs.Set(ctx, clientID, zoom.LevelXL); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, withClient(httptest.NewRequest("POST", "/zoom/in", nil), clientID))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if _, ok := cookieValue(w, zoom.CookieName); ok {
		t.Error("no-op dispatch should not persist")
	}
	if level, _, _ := f.prefs.Get(ctx, clientID); level != zoom.LevelXL {
		t.Errorf("level = %s, want xl", level)
	}

	w = f.do(t, httptest.NewRequest("POST", "/zoom/sideways", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad action: expected 400, got %d", w.Code)
	}
	assertJSONError(t, w, "unknown zoom action")
}

func assertJSONError(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%q)", err, w.Body.String())
	}
	if body["error"] != want {
		t.Errorf("error = %q, want %q", body["error"], want)
	}
}

func TestZoomCookieFallback(t *testing.T) {
	f := setupTest(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: zoom.CookieName, Value: "xs"})
	w := f.do(t, req)
	if !strings.Contains(w.Body.String(), `class="gallery zoom-xs"`) {
		t.Error("cookie level should apply when the client has no stored level")
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: zoom.CookieName, Value: "gigantic"})
	w = f.do(t, req)
	if !strings.Contains(w.Body.String(), `class="gallery zoom-medium"`) {
		t.Error("invalid cookie should fall back to medium")
	}
}

func TestZoomAPI(t *testing.T) {
	f := setupTest(t)
	clientID := uuid.NewString()

	w := f.do(t, withClient(httptest.NewRequest("POST", "/api/zoom/out", nil), clientID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Level   string `json:"level"`
		Class   string `json:"class"`
		Changed bool   `json:"changed"`
		Fits    []struct {
			ID           string  `json:"id"`
			Width        float64 `json:"width"`
			Height       float64 `json:"height"`
			OverlayRight float64 `json:"overlay_right"`
		} `json:"fits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Level != "small" || resp.Class != "zoom-small" || !resp.Changed {
		t.Errorf("unexpected response: %+v", resp)
	}
	// 40x200 strip in a 180x135 tile.
	if len(resp.Fits) != 1 || resp.Fits[0].ID != f.ids["beach.mp4"] ||
		resp.Fits[0].Width != 135 || resp.Fits[0].Height != 135 || resp.Fits[0].OverlayRight != 22.5 {
		t.Errorf("unexpected fits: %+v", resp.Fits)
	}

	w = f.do(t, withClient(httptest.NewRequest("POST", "/api/zoom/out?dir="+f.ids["clips"], nil), clientID))
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Level != "xs" || len(resp.Fits) != 1 || resp.Fits[0].ID != f.ids["clips/night.mp4"] {
		t.Errorf("second zoom out: %+v", resp)
	}

	w = f.do(t, withClient(httptest.NewRequest("POST", "/api/zoom/out", nil), clientID))
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Level != "xs" || resp.Changed || resp.Class != "zoom-xs" {
		t.Errorf("zoom out at xs should be a no-op: %+v", resp)
	}

	if w := f.do(t, httptest.NewRequest("POST", "/api/zoom/reset", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("bad action: expected 400, got %d", w.Code)
	}
	if w := f.do(t, httptest.NewRequest("POST", "/api/zoom/in?dir=nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("unknown dir: expected 404, got %d", w.Code)
	}
}

func TestFitAPI(t *testing.T) {
	f := setupTest(t)
	id := f.ids["beach.mp4"]

	w := f.do(t, httptest.NewRequest("GET", "/api/fit/"+id+"?width=300&height=120", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var p struct {
		ID           string  `json:"id"`
		Width        float64 `json:"width"`
		Height       float64 `json:"height"`
		OverlayRight float64 `json:"overlay_right"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != id || p.Width != 120 || p.Height != 120 || p.OverlayRight != 90 {
		t.Errorf("fit = %+v", p)
	}

	// Without a container the medium tile is used.
	w = f.do(t, httptest.NewRequest("GET", "/api/fit/"+id, nil))
	json.Unmarshal(w.Body.Bytes(), &p)
	if p.Width != 180 || p.Height != 180 {
		t.Errorf("default container fit = %+v", p)
	}

	tests := []struct {
		path string
		code int
	}{
		{"/api/fit/nope", http.StatusNotFound},
		{"/api/fit/" + f.ids["cover.png"], http.StatusNotFound},
		{"/api/fit/" + id + "?width=0&height=100", http.StatusBadRequest},
		{"/api/fit/" + id + "?width=abc&height=100", http.StatusBadRequest},
		{"/api/fit/" + id + "?width=100", http.StatusBadRequest},
		{"/api/fit/" + id + "?width=Inf&height=100", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := f.do(t, httptest.NewRequest("GET", tt.path, nil)); w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.code, w.Code)
		}
	}
}

func TestSort(t *testing.T) {
	f := setupTest(t)

	form := url.Values{"sort": {"Last Modified"}}
	req := httptest.NewRequest("POST", "/sort", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(t, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	v, ok := cookieValue(w, media.SortCookie)
	if !ok || v != url.QueryEscape("Last Modified") {
		t.Errorf("sort cookie = %q", v)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: media.SortCookie, Value: v})
	w = f.do(t, req)
	if !strings.Contains(w.Body.String(), `<option value="Last Modified" selected>`) {
		t.Error("active sort not selected")
	}

	req = httptest.NewRequest("POST", "/sort", strings.NewReader("sort=Shuffle"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = f.do(t, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown sort: expected 400, got %d", w.Code)
	}
	assertJSONError(t, w, "unknown sort")
}

func TestFileServing(t *testing.T) {
	f := setupTest(t)

	w := f.do(t, httptest.NewRequest("GET", "/origin/"+f.ids["cover.png"], nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Errorf("origin: %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	w = f.do(t, httptest.NewRequest("GET", "/origin/"+f.ids["beach.mp4"], nil))
	if w.Code != http.StatusOK || w.Body.String() != "video bytes" {
		t.Errorf("origin video: %d %q", w.Code, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/origin/"+f.ids["beach.mp4"], nil)
	req.Header.Set("Range", "bytes=0-4")
	w = f.do(t, req)
	if w.Code != http.StatusPartialContent || w.Body.String() != "video" {
		t.Errorf("range: %d %q", w.Code, w.Body.String())
	}

	w = f.do(t, httptest.NewRequest("GET", "/preview/"+f.ids["beach.mp4"], nil))
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Errorf("preview strip: %d", w.Code)
	}

	for _, path := range []string{"/origin/nope", "/origin/" + f.ids["clips"], "/preview/" + f.ids["README.md"]} {
		if w := f.do(t, httptest.NewRequest("GET", path, nil)); w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestGeneratedPreviews(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()

	// Previews rendered into the data directory are stored by absolute path.
	cache := t.TempDir()
	thumb := filepath.Join(cache, f.ids["cover.png"]+".jpg")
	writeFile(t, thumb, "thumbnail bytes")
	strip := filepath.Join(cache, f.ids["clips/night.mp4"]+".jpg")
	writePNG(t, strip, 40, 200)

	items, err := f.store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := range items {
		switch items[i].RelPath {
		case "cover.png":
			items[i].PreviewPath, items[i].PreviewWidth, items[i].PreviewHeight = thumb, 32, 24
		case "beach.mp4":
			items[i].Duration = 83 * time.Second
		case "clips/night.mp4":
			items[i].PreviewPath = strip
			items[i].Duration = 2*time.Hour + 5*time.Second
		}
	}
	if err := f.store.ReplaceAll(ctx, items); err != nil {
		t.Fatal(err)
	}

	w := f.do(t, httptest.NewRequest("GET", "/preview/"+f.ids["cover.png"], nil))
	if w.Code != http.StatusOK || w.Body.String() != "thumbnail bytes" {
		t.Errorf("image thumbnail: %d %q", w.Code, w.Body.String())
	}
	w = f.do(t, httptest.NewRequest("GET", "/origin/"+f.ids["cover.png"], nil))
	if w.Header().Get("Content-Type") != "image/png" {
		t.Error("origin should still serve the full image")
	}
	w = f.do(t, httptest.NewRequest("GET", "/preview/"+f.ids["clips/night.mp4"], nil))
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "\x89PNG") {
		t.Errorf("generated strip: %d", w.Code)
	}

	// Videos with a known length show it on the badge.
	body := f.do(t, httptest.NewRequest("GET", "/", nil)).Body.String()
	if !strings.Contains(body, `style="right:30px">01:23</span>`) {
		t.Errorf("beach badge should show its length in:\n%s", body)
	}
	if strings.Contains(body, `data-strip="`+f.ids["cover.png"]+`"`) {
		t.Error("an image thumbnail is not a strip")
	}
	body = f.do(t, httptest.NewRequest("GET", "/d/"+f.ids["clips"], nil)).Body.String()
	if !strings.Contains(body, ">02:00:05</span>") {
		t.Error("night badge should show hours")
	}
}

func TestStaticAssets(t *testing.T) {
	f := setupTest(t)

	w := f.do(t, httptest.NewRequest("GET", "/static/style.css", nil))
	if !strings.Contains(w.Body.String(), "body.zoom-xl .frame { width: 480px; height: 360px; }") {
		t.Errorf("stylesheet missing tile sizes:\n%s", w.Body.String())
	}
	w = f.do(t, httptest.NewRequest("GET", "/static/app.js", nil))
	if !strings.Contains(w.Body.String(), "/ws/layout") {
		t.Error("script should open the layout channel")
	}
}

func TestBackTo(t *testing.T) {
	tests := []struct {
		referer string
		want    string
	}{
		{"", "/"},
		{"http://example.com/d/abc", "/d/abc"},
		{"http://example.com/s?query=x", "/s?query=x"},
		{"http://evil.test/d/abc", "/"},
		{"javascript:alert(1)", "/"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/zoom/in", nil)
		if tt.referer != "" {
			req.Header.Set("Referer", tt.referer)
		}
		if got := backTo(req); got != tt.want {
			t.Errorf("backTo(%q) = %q, want %q", tt.referer, got, tt.want)
		}
	}
}

// --- live layout ---

type wsMessage struct {
	Type    string `json:"type"`
	Level   string `json:"level"`
	Class   string `json:"class"`
	Changed bool   `json:"changed"`
	Message string `json:"message"`
	Fits    []struct {
		ID     string  `json:"id"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"fits"`
}

func dialLayout(t *testing.T, server *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/layout"
	header := http.Header{}
	header.Set("Cookie", ClientCookie+"="+clientID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading message: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLayoutSession(t *testing.T) {
	f := setupTest(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	clientID := uuid.NewString()
	conn := dialLayout(t, server, clientID)

	conn.WriteJSON(map[string]string{"type": "mount", "dir": ""})
	msg := readMessage(t, conn)
	if msg.Type != "fits" || msg.Level != "medium" || len(msg.Fits) != 1 || msg.Fits[0].Width != 180 {
		t.Fatalf("mount: %+v", msg)
	}

	conn.WriteJSON(map[string]interface{}{"type": "resize", "width": 300, "height": 120})
	msg = readMessage(t, conn)
	if msg.Type != "fits" || msg.Fits[0].Width != 120 || msg.Fits[0].Height != 120 {
		t.Errorf("resize: %+v", msg)
	}

	// Zoom: the class is reflected before the refit arrives.
	conn.WriteJSON(map[string]string{"type": "zoom", "action": "in"})
	msg = readMessage(t, conn)
	if msg.Type != "zoom" || msg.Level != "large" || msg.Class != "zoom-large" || !msg.Changed {
		t.Errorf("zoom: %+v", msg)
	}
	msg = readMessage(t, conn)
	// 40x200 strip in a 320x240 tile; the resize override was dropped.
	if msg.Type != "fits" || msg.Level != "large" || msg.Fits[0].Width != 240 || msg.Fits[0].Height != 240 {
		t.Errorf("fits after zoom: %+v", msg)
	}
	if level, _, _ := f.prefs.Get(context.Background(), clientID); level != zoom.LevelLarge {
		t.Errorf("stored level = %s, want large", level)
	}

	conn.WriteJSON(map[string]string{"type": "zoom", "action": "in"})
	readMessage(t, conn) // zoom
	readMessage(t, conn) // fits
	conn.WriteJSON(map[string]string{"type": "zoom", "action": "in"})
	msg = readMessage(t, conn)
	if msg.Type != "zoom" || msg.Level != "xl" || msg.Changed {
		t.Errorf("zoom in at xl should be a no-op: %+v", msg)
	}

	conn.WriteJSON(map[string]string{"type": "fit", "id": f.ids["beach.mp4"]})
	msg = readMessage(t, conn)
	if msg.Type != "fits" || len(msg.Fits) != 1 || msg.Fits[0].ID != f.ids["beach.mp4"] {
		t.Errorf("fit: %+v", msg)
	}

	for _, bad := range []map[string]interface{}{
		{"type": "fit", "id": "nope"},
		{"type": "zoom", "action": "sideways"},
		{"type": "mount", "dir": "nope"},
		{"type": "resize", "width": 0, "height": 10},
		{"type": "dance"},
	} {
		conn.WriteJSON(bad)
		if msg := readMessage(t, conn); msg.Type != "error" || msg.Message == "" {
			t.Errorf("%v: expected error, got %+v", bad, msg)
		}
	}
}

func TestLayoutSessionMountsSearchResults(t *testing.T) {
	f := setupTest(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	// The search page renders the page query on the body for the socket.
	w := f.do(t, httptest.NewRequest("GET", "/s?query=night", nil))
	if !strings.Contains(w.Body.String(), `data-query="night"`) {
		t.Fatal("search page should carry its query for the layout session")
	}

	conn := dialLayout(t, server, uuid.NewString())
	night := f.ids["clips/night.mp4"]

	conn.WriteJSON(map[string]string{"type": "mount", "dir": "", "query": "night"})
	msg := readMessage(t, conn)
	if msg.Type != "fits" || len(msg.Fits) != 1 || msg.Fits[0].ID != night {
		t.Fatalf("search mount should hold the nested result: %+v", msg)
	}

	conn.WriteJSON(map[string]string{"type": "fit", "id": night})
	msg = readMessage(t, conn)
	if msg.Type != "fits" || len(msg.Fits) != 1 || msg.Fits[0].ID != night {
		t.Errorf("fit of a search result: %+v", msg)
	}

	conn.WriteJSON(map[string]string{"type": "zoom", "action": "out"})
	if msg = readMessage(t, conn); msg.Type != "zoom" || msg.Level != "small" {
		t.Fatalf("zoom: %+v", msg)
	}
	msg = readMessage(t, conn)
	// 40x200 strip in a 180x135 tile.
	if msg.Type != "fits" || len(msg.Fits) != 1 || msg.Fits[0].ID != night ||
		msg.Fits[0].Width != 135 || msg.Fits[0].Height != 135 {
		t.Errorf("fits after zoom: %+v", msg)
	}

	// A rescan remounts the same results, not the directory's children.
	f.bus.Publish(events.Event{Topic: events.TopicContentSwapped, Payload: 4})
	msg = readMessage(t, conn)
	if msg.Type != "fits" || len(msg.Fits) != 1 || msg.Fits[0].ID != night {
		t.Errorf("remount after rescan: %+v", msg)
	}

	conn.WriteJSON(map[string]string{"type": "mount", "dir": f.ids["clips"], "query": "beach"})
	if msg = readMessage(t, conn); msg.Type != "fits" || len(msg.Fits) != 0 {
		t.Errorf("search below clips should mount nothing: %+v", msg)
	}
}

func TestLayoutSessionsFollowEachOther(t *testing.T) {
	f := setupTest(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	clientID := uuid.NewString()
	a := dialLayout(t, server, clientID)
	b := dialLayout(t, server, clientID)
	other := dialLayout(t, server, uuid.NewString())

	for _, c := range []*websocket.Conn{a, b, other} {
		c.WriteJSON(map[string]string{"type": "mount", "dir": f.ids["clips"]})
		readMessage(t, c)
	}

	a.WriteJSON(map[string]string{"type": "zoom", "action": "out"})
	readMessage(t, a) // zoom
	readMessage(t, a) // fits

	msg := readMessage(t, b)
	if msg.Type != "zoom" || msg.Level != "small" {
		t.Errorf("second tab should follow the zoom: %+v", msg)
	}
	msg = readMessage(t, b)
	if msg.Type != "fits" || msg.Level != "small" || len(msg.Fits) != 1 || msg.Fits[0].ID != f.ids["clips/night.mp4"] {
		t.Errorf("second tab fits: %+v", msg)
	}

	// A rescan refits every mounted session, including other clients.
	f.bus.Publish(events.Event{Topic: events.TopicContentSwapped})
	if msg := readMessage(t, other); msg.Type != "fits" || msg.Level != "medium" {
		t.Errorf("other client after swap: %+v", msg)
	}
	if msg := readMessage(t, a); msg.Type != "fits" || msg.Level != "small" {
		t.Errorf("first tab after swap: %+v", msg)
	}
}

func TestLayoutSessionDisposesListeners(t *testing.T) {
	f := setupTest(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	for i := 0; i < 3; i++ {
		conn := dialLayout(t, server, uuid.NewString())
		conn.WriteJSON(map[string]string{"type": "mount"})
		readMessage(t, conn)
		if n := f.bus.Count(events.TopicContentSwapped); n != 1 {
			t.Errorf("refresh %d: %d content listeners, want 1", i, n)
		}
		conn.Close()
		waitFor(t, "listeners to be disposed", func() bool {
			return f.bus.Count(events.TopicContentSwapped) == 0 && f.bus.Count(events.TopicZoomChanged) == 0
		})
	}
}

func TestFormZoomReachesLiveSession(t *testing.T) {
	f := setupTest(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	clientID := uuid.NewString()
	conn := dialLayout(t, server, clientID)
	conn.WriteJSON(map[string]string{"type": "mount"})
	readMessage(t, conn)

	f.do(t, withClient(httptest.NewRequest("POST", "/zoom/in", nil), clientID))

	if msg := readMessage(t, conn); msg.Type != "zoom" || msg.Level != "large" {
		t.Errorf("live session should follow form zoom: %+v", msg)
	}
}
