package macro

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record is the stored history entry of one load attempt.
type Record struct {
	ID       int64
	Name     string
	Kind     Kind
	Digest   string
	Path     string
	Status   string
	LoadedAt time.Time
}

// Store keeps the code of every loaded unit in a directory and a record of
// each load attempt in SQLite. Opening a store flushes what a previous
// process left behind.
type Store struct {
	dir string
	db  *sql.DB
	mu  sync.Mutex
}

// OpenStore opens (and flushes) the store rooted at dir.
func OpenStore(dir string) (*Store, error) {
	units := filepath.Join(dir, "units")
	if err := os.RemoveAll(units); err != nil {
		return nil, fmt.Errorf("flushing units: %w", err)
	}
	if err := os.MkdirAll(units, 0o755); err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "macros.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`DROP TABLE IF EXISTS units`); err != nil {
		db.Close()
		return nil, fmt.Errorf("flushing table: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE units (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		digest TEXT NOT NULL,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		loaded_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{dir: dir, db: db}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes u's code under a fresh file name, sets u.Path and records the
// attempt as pending. It returns the record id.
func (s *Store) Save(u *Unit) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "units", uuid.NewString()+u.Kind.extension())
	if err := os.WriteFile(path, u.Code, 0o644); err != nil {
		return 0, fmt.Errorf("writing unit: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO units (name, kind, digest, path, status, loaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Name, string(u.Kind), u.Digest, path, "pending", time.Now().UnixNano(),
	)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("recording unit: %w", err)
	}
	u.Path = path
	return res.LastInsertId()
}

// MarkLoaded records the outcome of loading record id.
func (s *Store) MarkLoaded(id int64, loadErr error) {
	status := "loaded"
	if loadErr != nil {
		status = "failed: " + loadErr.Error()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`UPDATE units SET status = ? WHERE id = ?`, status, id); err != nil {
		log.Errorf("recording status of unit %d: %v", id, err)
	}
}

// History returns every load attempt of name, oldest first.
func (s *Store) History(name string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(
		`SELECT id, name, kind, digest, path, status, loaded_at FROM units WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("querying units: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r    Record
			kind string
			at   int64
		)
		if err := rows.Scan(&r.ID, &r.Name, &kind, &r.Digest, &r.Path, &r.Status, &at); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		r.Kind = Kind(kind)
		r.LoadedAt = time.Unix(0, at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
