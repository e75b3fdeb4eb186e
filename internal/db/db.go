package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with tinytune-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// Path returns the file the database lives in.
func (d *DB) Path() string { return d.path }

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	if _, err := d.Exec(schema); err != nil {
		return err
	}
	for _, c := range addedColumns {
		ok, err := d.hasColumn(c.table, c.name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := d.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", c.table, c.name, c.definition)); err != nil {
			return fmt.Errorf("adding %s.%s: %w", c.table, c.name, err)
		}
	}
	return nil
}

func (d *DB) hasColumn(table, column string) (bool, error) {
	rows, err := d.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// addedColumns were added to tables after their first release. Databases
// created earlier get them on open.
var addedColumns = []struct {
	table, name, definition string
}{
	{"media_items", "duration_ms", "INTEGER NOT NULL DEFAULT 0"},
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS media_items (
    id TEXT PRIMARY KEY,
    parent_id TEXT NOT NULL DEFAULT '',
    name TEXT NOT NULL,
    rel_path TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL CHECK(kind IN ('dir','image','video','other')),
    size INTEGER NOT NULL DEFAULT 0,
    mod_time DATETIME NOT NULL,
    width INTEGER NOT NULL DEFAULT 0,
    height INTEGER NOT NULL DEFAULT 0,
    preview_path TEXT NOT NULL DEFAULT '',
    preview_width INTEGER NOT NULL DEFAULT 0,
    preview_height INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    indexed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_media_parent ON media_items(parent_id);
CREATE INDEX IF NOT EXISTS idx_media_name ON media_items(name);
CREATE INDEX IF NOT EXISTS idx_media_kind ON media_items(kind);

CREATE TABLE IF NOT EXISTS zoom_preferences (
    client_id TEXT PRIMARY KEY,
    level TEXT NOT NULL CHECK(level IN ('xs','small','medium','large','xl')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`
