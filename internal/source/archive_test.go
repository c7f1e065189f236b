package source

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipOf(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write(files[n])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tgzOf(t *testing.T, name string, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(body))}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func expandAll(t *testing.T, name string, data []byte, l Limits) map[string]string {
	t.Helper()
	got := map[string]string{}
	require.NoError(t, Expand(name, data, l, func(in Input) error {
		got[in.Name] = string(in.Data)
		return nil
	}))
	return got
}

func TestExpand_ZipWithNestedTarGz(t *testing.T) {
	inner := tgzOf(t, "notes/contact.txt", []byte("demo@api.com"))
	outer := zipOf(t, map[string][]byte{
		"readme.txt":   []byte("outer file"),
		"inner.tar.gz": inner,
		"photo.jpg":    {0xff, 0xd8, 0xff, 0xe0, 0xff, 0xd9},
	})

	got := expandAll(t, "evidence.zip", outer, Limits{MaxDepth: 2})
	assert.Equal(t, "outer file", got["evidence.zip::readme.txt"])
	assert.Equal(t, "demo@api.com", got["evidence.zip::inner.tar.gz::notes/contact.txt"])
	assert.Contains(t, got, "evidence.zip::photo.jpg", "binary members are kept for carving")
	assert.NotContains(t, got, "evidence.zip::inner.tar.gz")
}

func TestExpand_DepthLimitSubmitsNestedArchiveWhole(t *testing.T) {
	inner := tgzOf(t, "a.txt", []byte("x"))
	mid := zipOf(t, map[string][]byte{"inner.tgz": inner})
	outer := zipOf(t, map[string][]byte{"mid.zip": mid})

	got := expandAll(t, "e.zip", outer, Limits{})
	assert.Equal(t, map[string]string{"e.zip::mid.zip::inner.tgz::a.txt": "x"}, got, "zero depth means unlimited")

	got = expandAll(t, "e.zip", outer, Limits{MaxDepth: 1})
	require.Len(t, got, 1)
	assert.Equal(t, string(inner), got["e.zip::mid.zip::inner.tgz"])
}

func TestExpand_EntryBudget(t *testing.T) {
	outer := zipOf(t, map[string][]byte{"a.txt": []byte("a"), "b.txt": []byte("b"), "c.txt": []byte("c")})
	got := expandAll(t, "e.zip", outer, Limits{MaxEntries: 2})
	assert.Len(t, got, 2)
}

func TestExpand_ByteBudget(t *testing.T) {
	outer := zipOf(t, map[string][]byte{"a.txt": []byte("12345"), "b.txt": []byte("67890")})

	got := expandAll(t, "b.zip", outer, Limits{MaxArchiveBytes: 10})
	assert.Equal(t, map[string]string{"b.zip::a.txt": "12345", "b.zip::b.txt": "67890"}, got)

	got = expandAll(t, "b.zip", outer, Limits{MaxArchiveBytes: 9})
	assert.Equal(t, map[string]string{"b.zip::a.txt": "12345"}, got)
}

func TestExpand_Malformed(t *testing.T) {
	err := Expand("bad.zip", []byte("not a zip"), Limits{}, func(Input) error { return nil })
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestExpand_PropagatesEmitError(t *testing.T) {
	outer := zipOf(t, map[string][]byte{"a.txt": []byte("a")})
	err := Expand("e.zip", outer, Limits{}, func(Input) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestFiles_ExpandsArchives(t *testing.T) {
	root := t.TempDir()
	write(t, root, "bundle.zip", string(zipOf(t, map[string][]byte{"m.txt": []byte("617-555-1212")})))
	write(t, root, "broken.zip", "garbage")

	got := collect(t, []string{root}, Filter{Archives: &Limits{MaxDepth: 1}})
	require.Len(t, got, 2)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "broken.zip")), got[0])
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "bundle.zip"))+"::m.txt", got[1])
}
