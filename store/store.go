// Package store keeps class definitions and member bodies in SQLite and
// serves them to the runtime's autoloader.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/incr/defs"
	"github.com/chazu/incr/oo"
)

var log = commonlog.GetLogger("incr.store")

// ErrNotFound indicates the requested class or body isn't stored.
var ErrNotFound = errors.New("not found in store")

const schema = `
CREATE TABLE IF NOT EXISTS classes (
	name    TEXT PRIMARY KEY,
	def     BLOB NOT NULL,
	updated INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS bodies (
	name    TEXT PRIMARY KEY,
	class   TEXT NOT NULL,
	data    BLOB NOT NULL,
	updated INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS bodies_class ON bodies(class);
`

// Store is a class store backed by a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the store at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	log.Debugf("opened class store %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func qualified(name string) string {
	if strings.HasPrefix(name, "::") {
		return name
	}
	return "::" + name
}

// SaveClass stores def under its fully-qualified name, replacing any
// earlier definition.
func (s *Store) SaveClass(def *defs.ClassDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *def
	stored.Name = qualified(def.Name)
	data, err := MarshalClass(&stored)
	if err != nil {
		return fmt.Errorf("encoding class %s: %w", stored.Name, err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO classes (name, def, updated) VALUES (?, ?, ?)",
		stored.Name, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving class %s: %w", stored.Name, err)
	}
	return nil
}

// LoadClass retrieves a class definition.
func (s *Store) LoadClass(name string) (*defs.ClassDef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT def FROM classes WHERE name = ?", qualified(name)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("class %s: %w", qualified(name), ErrNotFound)
		}
		return nil, fmt.Errorf("querying class: %w", err)
	}
	return UnmarshalClass(data)
}

// DeleteClass removes a class and the bodies stored for its members.
func (s *Store) DeleteClass(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM classes WHERE name = ?", qualified(name)); err != nil {
		return fmt.Errorf("deleting class: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM bodies WHERE class = ?", qualified(name)); err != nil {
		return fmt.Errorf("deleting bodies: %w", err)
	}
	return tx.Commit()
}

// ClassNames lists the stored classes sorted by name.
func (s *Store) ClassNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name FROM classes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing classes: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SaveBody stores the implementation of member "::Class::name". A nil
// args keeps the member's declared parameter list when loaded.
func (s *Store) SaveBody(member string, args *defs.ArgList, body string) error {
	member = qualified(member)
	idx := strings.LastIndex(member, "::")
	if idx <= 0 {
		return fmt.Errorf("bad member name %q: should be ::Class::member", member)
	}
	data, err := marshalBody(&bodyRecord{Args: args, Body: body})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO bodies (name, class, data, updated) VALUES (?, ?, ?, ?)",
		member, member[:idx], data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving body %s: %w", member, err)
	}
	return nil
}

// LoadBody retrieves a stored member implementation.
func (s *Store) LoadBody(member string) (*defs.ArgList, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM bodies WHERE name = ?", qualified(member)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", fmt.Errorf("body %s: %w", qualified(member), ErrNotFound)
		}
		return nil, "", fmt.Errorf("querying body: %w", err)
	}
	rec, err := unmarshalBody(data)
	if err != nil {
		return nil, "", err
	}
	return rec.Args, rec.Body, nil
}

// SaveRuntime stores every class currently defined in r.
func (s *Store) SaveRuntime(r *oo.Runtime) (int, error) {
	n := 0
	for _, c := range r.Classes() {
		def := defs.Export(c)
		if err := s.SaveClass(&def); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
