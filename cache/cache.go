// Package cache stores compiled program images in SQLite, keyed by the
// content hash of the lowered module. Renaming variables or reformatting
// source keeps the key, so such edits hit the cache.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chazu/remix/compiler"
	"github.com/chazu/remix/compiler/hash"
	"github.com/chazu/remix/syntax"
	"github.com/chazu/remix/vm"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("remix.cache")

// ErrMiss indicates no image is stored under the requested key.
var ErrMiss = errors.New("cache miss")

// Entry describes one cached build.
type Entry struct {
	Key     string
	BuildID string
	Created time.Time
	Size    int
}

// Cache is a build cache backed by a SQLite database.
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the cache database at path. Parent directories are
// created as needed.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS builds (
		key TEXT PRIMARY KEY,
		build_id TEXT NOT NULL,
		image BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Key returns the cache key of a lowered module.
func Key(m *syntax.Module) (string, error) {
	h, err := hash.HashModule(m)
	if err != nil {
		return "", err
	}
	return hash.Hex(h), nil
}

// Put stores the image of p under key, replacing any earlier build, and
// returns the new build id.
func (c *Cache) Put(key string, p *vm.Program) (string, error) {
	image, err := vm.MarshalProgram(p)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO builds (key, build_id, image, created_at) VALUES (?, ?, ?, ?)",
		key, id, image, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("saving build: %w", err)
	}
	log.Debugf("stored build %s for %s (%d bytes)", id, short(key), len(image))
	return id, nil
}

// Get loads the image stored under key. It returns ErrMiss when there is
// none.
func (c *Cache) Get(key string) (*vm.Program, string, error) {
	var (
		id    string
		image []byte
	)
	err := c.db.QueryRow("SELECT build_id, image FROM builds WHERE key = ?", key).Scan(&id, &image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrMiss
		}
		return nil, "", fmt.Errorf("querying build: %w", err)
	}
	p, err := vm.UnmarshalProgram(image)
	if err != nil {
		return nil, "", fmt.Errorf("build %s: %w", id, err)
	}
	return p, id, nil
}

// Delete removes the build stored under key, if any.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec("DELETE FROM builds WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting build: %w", err)
	}
	return nil
}

// Entries lists cached builds, newest first.
func (c *Cache) Entries() ([]Entry, error) {
	rows, err := c.db.Query(
		"SELECT key, build_id, created_at, length(image) FROM builds ORDER BY created_at DESC, key")
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.Key, &e.BuildID, &created, &e.Size); err != nil {
			return nil, fmt.Errorf("listing builds: %w", err)
		}
		e.Created = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Compile compiles source, reusing a cached image when the lowered module
// has been built before. The returned flag reports a cache hit.
func (c *Cache) Compile(source string) (*compiler.Unit, bool, error) {
	mod, err := compiler.Parse(source)
	if err != nil {
		return nil, false, err
	}
	lowered, err := compiler.Lower(mod)
	if err != nil {
		return nil, false, err
	}
	key, err := Key(lowered)
	if err != nil {
		return nil, false, err
	}

	unit := &compiler.Unit{AST: mod, Syntax: lowered}
	p, id, err := c.Get(key)
	switch {
	case err == nil:
		log.Infof("cache hit %s (build %s)", short(key), id)
		unit.Program = p
		return unit, true, nil
	case !errors.Is(err, ErrMiss):
		log.Warningf("ignoring unreadable cache entry %s: %s", short(key), err.Error())
	}

	if unit.Program, err = compiler.CodegenModule(lowered); err != nil {
		return nil, false, err
	}
	if _, err := c.Put(key, unit.Program); err != nil {
		return nil, false, err
	}
	return unit, false, nil
}

func short(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
