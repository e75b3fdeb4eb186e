package media

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/tinytune/internal/db"
	"github.com/ziadkadry99/tinytune/internal/search"
)

// Store manages persistence of the media index.
type Store struct {
	db *db.DB
}

// NewStore creates a new media store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

const itemColumns = `id, parent_id, name, rel_path, kind, size, mod_time, width, height, preview_path, preview_width, preview_height, duration_ms`

// ReplaceAll swaps the whole index for items in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM media_items`); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO media_items (`+itemColumns+`, indexed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, it := range items {
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.ParentID, it.Name, it.RelPath, it.Kind, it.Size, it.ModTime.UTC(),
			it.Width, it.Height, it.PreviewPath, it.PreviewWidth, it.PreviewHeight, it.Duration.Milliseconds(), now,
		); err != nil {
			return fmt.Errorf("inserting %s: %w", it.RelPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Get retrieves an item by its ID. It returns nil, nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM media_items WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &it, nil
}

// Children lists the direct entries of a directory; "" is the media root.
func (s *Store) Children(ctx context.Context, parentID string) ([]Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM media_items WHERE parent_id = ? ORDER BY name`, parentID)
}

// All lists every indexed entry ordered by path.
func (s *Store) All(ctx context.Context) ([]Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM media_items ORDER BY rel_path`)
}

// Ancestors returns the directory chain from the root down to id, inclusive.
func (s *Store) Ancestors(ctx context.Context, id string) ([]Item, error) {
	var chain []Item
	seen := make(map[string]bool)
	for id != "" && !seen[id] {
		seen[id] = true
		it, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if it == nil {
			return nil, fmt.Errorf("item not found: %s", id)
		}
		chain = append([]Item{*it}, chain...)
		id = it.ParentID
	}
	return chain, nil
}

// Search finds entries whose name contains query. Matching folds case the
// way search.Highlight does, including non-ASCII letters, so it runs in Go
// over the candidate rows rather than through SQLite's ASCII-only LIKE. A
// non-empty underDirID limits the search to that directory's subtree.
func (s *Store) Search(ctx context.Context, query, underDirID string) ([]Item, error) {
	q := `SELECT ` + itemColumns + ` FROM media_items`
	var args []interface{}

	if underDirID != "" {
		dir, err := s.Get(ctx, underDirID)
		if err != nil {
			return nil, err
		}
		if dir == nil {
			return nil, fmt.Errorf("directory not found: %s", underDirID)
		}
		q += ` WHERE rel_path LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(dir.RelPath)+"/%")
	}

	q += ` ORDER BY name`
	candidates, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	var found []Item
	for _, it := range candidates {
		if search.Contains(it.Name, query) {
			found = append(found, it)
		}
	}
	return found, nil
}

// Count returns the number of indexed entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media_items`).Scan(&n)
	return n, err
}

// Stats summarizes the index by kind.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*), COALESCE(SUM(size), 0), SUM(CASE WHEN preview_path != '' THEN 1 ELSE 0 END)
		 FROM media_items GROUP BY kind`)
	if err != nil {
		return st, fmt.Errorf("collecting stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind Kind
		var count, previews int
		var size int64
		if err := rows.Scan(&kind, &count, &size, &previews); err != nil {
			return st, fmt.Errorf("scanning stats: %w", err)
		}
		switch kind {
		case KindDir:
			st.Dirs = count
		case KindImage:
			st.Images = count
		case KindVideo:
			st.Videos = count
		default:
			st.Others += count
		}
		st.Previews += previews
		st.TotalSize += size
	}
	return st, rows.Err()
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(r rowScanner) (Item, error) {
	var it Item
	var durationMS int64
	err := r.Scan(&it.ID, &it.ParentID, &it.Name, &it.RelPath, &it.Kind, &it.Size, &it.ModTime,
		&it.Width, &it.Height, &it.PreviewPath, &it.PreviewWidth, &it.PreviewHeight, &durationMS)
	it.Duration = time.Duration(durationMS) * time.Millisecond
	return it, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
