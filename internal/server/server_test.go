package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ziadkadry99/tinytune/internal/db"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(cfg, database)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{Port: 0, AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestTimeoutSkipsUpgrade(t *testing.T) {
	srv := newTestServer(t, Config{Timeout: 10 * time.Millisecond})

	var deadlineSet, upgradeDeadlineSet bool
	srv.Router().Get("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, deadlineSet = r.Context().Deadline()
	})
	srv.Router().Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		_, upgradeDeadlineSet = r.Context().Deadline()
	})

	srv.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/plain", nil))

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	srv.Router().ServeHTTP(httptest.NewRecorder(), req)

	if !deadlineSet {
		t.Error("plain requests should carry the timeout")
	}
	if upgradeDeadlineSet {
		t.Error("upgrade requests should not carry the timeout")
	}
}
