package zoom

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/ziadkadry99/tinytune/internal/db"
)

// CookieName is the cookie holding the level for plain page loads.
const CookieName = "zoom"

const cookieMaxAge = 365 * 24 * 60 * 60

// CookieStore persists the level in a response cookie and reads it back
// from the request.
type CookieStore struct {
	w http.ResponseWriter
	r *http.Request
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{w: w, r: r}
}

func (s *CookieStore) Load(ctx context.Context) (Level, bool, error) {
	if s.r == nil {
		return "", false, nil
	}
	cookie, err := s.r.Cookie(CookieName)
	if err != nil {
		return "", false, nil
	}
	level, ok := ParseLevel(cookie.Value)
	return level, ok, nil
}

func (s *CookieStore) Persist(ctx context.Context, level Level) error {
	if s.w == nil {
		return fmt.Errorf("cookie store has no response writer")
	}
	http.SetCookie(s.w, &http.Cookie{
		Name:     CookieName,
		Value:    string(level),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SQLStore keeps one level per browser client in the zoom_preferences table.
type SQLStore struct {
	db *db.DB
}

// NewSQLStore creates a new zoom preference store.
func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database}
}

// Get returns the stored level for a client. ok is false if there is none.
func (s *SQLStore) Get(ctx context.Context, clientID string) (Level, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT level FROM zoom_preferences WHERE client_id = ?`, clientID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting zoom level: %w", err)
	}
	level, ok := ParseLevel(raw)
	return level, ok, nil
}

// Set upserts the level for a client.
func (s *SQLStore) Set(ctx context.Context, clientID string, level Level) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO zoom_preferences (client_id, level, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(client_id) DO UPDATE SET level = excluded.level, updated_at = excluded.updated_at`,
		clientID, string(level), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting zoom level: %w", err)
	}
	return nil
}

// Delete forgets a client's level.
func (s *SQLStore) Delete(ctx context.Context, clientID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM zoom_preferences WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("deleting zoom level: %w", err)
	}
	return nil
}

// ForClient returns a Loader/Persister bound to one client id.
func (s *SQLStore) ForClient(clientID string) *ClientStore {
	return &ClientStore{store: s, clientID: clientID}
}

// ClientStore is a SQLStore scoped to a single client.
type ClientStore struct {
	store    *SQLStore
	clientID string
}

func (c *ClientStore) Load(ctx context.Context) (Level, bool, error) {
	if c.clientID == "" {
		return "", false, nil
	}
	return c.store.Get(ctx, c.clientID)
}

func (c *ClientStore) Persist(ctx context.Context, level Level) error {
	if c.clientID == "" {
		return nil
	}
	return c.store.Set(ctx, c.clientID, level)
}
