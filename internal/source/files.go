package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
)

// Files walks each path and calls emit for every eligible regular file.
// Binary files are submitted too; carving depends on them. A path that is a
// file is submitted regardless of the globs.
func Files(ctx context.Context, paths []string, f Filter, emit func(Input) error) error {
	for _, root := range paths {
		st, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !st.IsDir() {
			if f.tooBig(st.Size()) {
				continue
			}
			b, err := os.ReadFile(root)
			if err != nil {
				return err
			}
			if err := f.submit(Input{Name: root, Data: b}, emit); err != nil {
				return err
			}
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if p != root && f.DefaultExcludes && defaultExcludeDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || (f.DefaultExcludes && defaultExcludeFiles[d.Name()]) {
				return nil
			}
			rel, _ := filepath.Rel(root, p)
			if !f.Allowed(rel) {
				return nil
			}
			info, _ := d.Info()
			if info != nil && f.tooBig(info.Size()) {
				return nil
			}
			b, err := os.ReadFile(p)
			if err != nil {
				return nil
			}
			return f.submit(Input{Name: p, Data: b}, emit)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// submit expands archives when enabled. An archive that fails to decode is
// submitted whole.
func (f Filter) submit(in Input, emit func(Input) error) error {
	if f.Archives == nil || !IsArchive(in.Name) {
		return emit(in)
	}
	err := Expand(in.Name, in.Data, *f.Archives, emit)
	if errors.Is(err, ErrMalformed) {
		slog.Debug("archive not expanded", "source", in.Name, "err", err)
		return emit(in)
	}
	return err
}

// Text wraps literal text as an input.
func Text(name, s string) Input {
	return Input{Name: name, Data: []byte(s)}
}

// Reader reads r fully, failing when it holds more than max bytes (max <= 0
// means unbounded).
func Reader(name string, r io.Reader, max int64) (Input, error) {
	if max > 0 {
		r = io.LimitReader(r, max+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return Input{}, fmt.Errorf("read %s: %w", name, err)
	}
	if max > 0 && int64(len(b)) > max {
		return Input{}, fmt.Errorf("read %s: input exceeds %d bytes", name, max)
	}
	return Input{Name: name, Data: b}, nil
}

// Clipboard returns the current clipboard text.
func Clipboard() (Input, error) {
	s, err := clipboard.ReadAll()
	if err != nil {
		return Input{}, fmt.Errorf("read clipboard: %w", err)
	}
	return Text("clipboard", s), nil
}
