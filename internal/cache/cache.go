// Package cache remembers the content hash of every input a scan has already
// submitted so unchanged inputs can be skipped on the next run.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	xxhash "github.com/cespare/xxhash/v2"
)

// DB maps the cache key of every input the last scan analyzed to its
// content hash.
type DB struct {
	// settings|source -> content hash (xxhash64 hex)
	Entries map[string]string `json:"entries"`
}

func defaultPath(root string) string {
	// Prefer storing cache under .git to avoid accidental commits
	// Fall back to root if .git does not exist
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "bextractcache.json")
	}
	return filepath.Join(root, ".bextractcache.json")
}

func Load(root string) (DB, error) {
	var db DB
	p := defaultPath(root)
	f, err := os.ReadFile(p)
	if err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if err := json.Unmarshal(f, &db); err != nil {
		return DB{Entries: map[string]string{}}, err
	}
	if db.Entries == nil {
		db.Entries = map[string]string{}
	}
	return db, nil
}

// New returns an empty DB.
func New() DB { return DB{Entries: map[string]string{}} }

func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	p := defaultPath(root)
	b, _ := json.MarshalIndent(db, "", "  ")
	return os.WriteFile(p, b, 0644)
}

// Unchanged reports whether source was last seen with exactly this content.
func (db DB) Unchanged(source string, data []byte) bool {
	h, ok := db.Entries[source]
	return ok && h == Hash(data)
}

// Hash returns the fixed-width hex xxhash64 of b.
func Hash(b []byte) string { return fmt.Sprintf("%016x", xxhash.Sum64(b)) }
