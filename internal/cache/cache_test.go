package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redactyl/bextract/pkg/bulk"
)

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	// initial load should return empty DB and error
	db, _ := Load(dir)
	if db.Entries == nil {
		t.Fatalf("expected entries map initialized")
	}
	db.Entries["a.txt"] = Hash([]byte("demo@api.com"))
	if err := Save(dir, db); err != nil {
		t.Fatalf("save: %v", err)
	}
	// file should exist
	if _, err := os.Stat(filepath.Join(dir, ".bextractcache.json")); err != nil {
		t.Fatalf("cache file not written: %v", err)
	}
	db2, err := Load(dir)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if !db2.Unchanged("a.txt", []byte("demo@api.com")) {
		t.Fatalf("expected a.txt to be unchanged")
	}
	if db2.Unchanged("a.txt", []byte("other@api.com")) {
		t.Fatalf("changed content reported as unchanged")
	}
	if db2.Unchanged("b.txt", []byte("demo@api.com")) {
		t.Fatalf("unknown source reported as unchanged")
	}
}

func TestSaveUnderGitDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, Save(dir, DB{Entries: map[string]string{"x": "y"}}))
	_, err := os.Stat(filepath.Join(dir, ".git", "bextractcache.json"))
	assert.NoError(t, err)
}

func TestHash(t *testing.T) {
	assert.Len(t, Hash(nil), 16)
	assert.Len(t, Hash([]byte("x")), 16)
	assert.Equal(t, Hash([]byte("x")), Hash([]byte("x")))
	assert.NotEqual(t, Hash([]byte("x")), Hash([]byte("y")))
}

func TestResultsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	recs := []bulk.Record{{Kind: "feature", Recorder: "email", Position: "9", Source: "a.txt", Feature: bulk.Bytes("demo@api.com")}}
	r := NewResults("v1")
	r.Add("a.txt", recs)
	r.Add("b.txt", nil)
	require.NoError(t, SaveResults(dir, r))

	got, err := LoadResults(dir)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Settings)
	assert.False(t, got.Saved.IsZero())

	rs, ok := got.Lookup("v1", "a.txt")
	require.True(t, ok)
	assert.Equal(t, recs, rs)

	rs, ok = got.Lookup("v1", "b.txt")
	assert.True(t, ok, "inputs without events are remembered")
	assert.Empty(t, rs)

	_, ok = got.Lookup("v2", "a.txt")
	assert.False(t, ok, "records are tied to the settings they were produced under")
	_, ok = got.Lookup("v1", "c.txt")
	assert.False(t, ok)
}

func TestLoadResults_Missing(t *testing.T) {
	_, err := LoadResults(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
