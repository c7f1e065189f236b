package source

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Limits bounds archive expansion. Zero fields are unlimited.
type Limits struct {
	MaxArchiveBytes int64
	MaxEntries      int
	MaxDepth        int
	TimeBudget      time.Duration
}

var errBudget = errors.New("archive budget exceeded")

// ErrMalformed wraps archive decoding failures.
var ErrMalformed = errors.New("malformed archive")

type emitError struct{ err error }

func (e *emitError) Error() string { return e.err.Error() }

// IsArchive reports whether name has an extension Expand understands.
func IsArchive(name string) bool {
	l := strings.ToLower(name)
	for _, ext := range []string{".zip", ".tar", ".tgz", ".gz", ".jar"} {
		if strings.HasSuffix(l, ext) {
			return true
		}
	}
	return false
}

type expander struct {
	limits       Limits
	deadline     time.Time
	decompressed int64
	entries      int
	emit         func(Input) error
}

// Expand emits every member of the archive in data, descending into nested
// archives up to MaxDepth. Members are named "<name>::<member>". Binary
// members are emitted as well since carving operates on them. On budget
// exhaustion the members emitted so far stand and Expand returns nil.
// Decoding failures match ErrMalformed; errors from emit are returned as-is.
func Expand(name string, data []byte, limits Limits, emit func(Input) error) error {
	x := &expander{limits: limits, emit: emit}
	if limits.TimeBudget > 0 {
		x.deadline = time.Now().Add(limits.TimeBudget)
	}
	err := x.archive(name, path.Base(name), data, 0)
	var ee *emitError
	switch {
	case err == nil, errors.Is(err, errBudget):
		return nil
	case errors.As(err, &ee):
		return ee.err
	default:
		return fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
}

func (x *expander) archive(chain, name string, data []byte, depth int) error {
	l := strings.ToLower(name)
	switch {
	case strings.HasSuffix(l, ".zip") || strings.HasSuffix(l, ".jar"):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return err
		}
		for _, f := range zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				continue
			}
			b, err := x.read(rc)
			_ = rc.Close()
			if err != nil {
				return err
			}
			if err := x.member(chain, f.Name, b, depth); err != nil {
				return err
			}
		}
		return nil
	case strings.HasSuffix(l, ".tar.gz") || strings.HasSuffix(l, ".tgz"):
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer gz.Close()
		return x.tar(chain, gz, depth)
	case strings.HasSuffix(l, ".tar"):
		return x.tar(chain, bytes.NewReader(data), depth)
	case strings.HasSuffix(l, ".gz"):
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer gz.Close()
		inner := gz.Name
		if inner == "" {
			inner = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		b, err := x.read(gz)
		if err != nil {
			return err
		}
		return x.member(chain, inner, b, depth)
	}
	return nil
}

func (x *expander) tar(chain string, r io.Reader, depth int) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}
		b, err := x.read(tr)
		if err != nil {
			return err
		}
		if err := x.member(chain, hdr.Name, b, depth); err != nil {
			return err
		}
	}
}

func (x *expander) member(chain, name string, b []byte, depth int) error {
	vp := BuildVirtualPath(chain, name)
	if IsArchive(name) && (x.limits.MaxDepth <= 0 || depth < x.limits.MaxDepth) {
		err := x.archive(vp, name, b, depth+1)
		var ee *emitError
		if err == nil || errors.Is(err, errBudget) || errors.As(err, &ee) {
			return err
		}
		// Not a valid archive after all; scan it as-is.
	}
	if x.limits.MaxEntries > 0 && x.entries >= x.limits.MaxEntries {
		return errBudget
	}
	x.entries++
	if err := x.emit(Input{Name: vp, Data: b}); err != nil {
		return &emitError{err}
	}
	return nil
}

// read copies r in chunks, enforcing the byte and time budgets.
func (x *expander) read(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	const chunk = 32 << 10
	for {
		if !x.deadline.IsZero() && time.Now().After(x.deadline) {
			return nil, errBudget
		}
		sz := int64(chunk)
		if x.limits.MaxArchiveBytes > 0 {
			remain := x.limits.MaxArchiveBytes - x.decompressed
			if remain <= 0 {
				// A member that ends exactly at the budget still fits.
				var one [1]byte
				if _, err := io.ReadFull(r, one[:]); errors.Is(err, io.EOF) {
					return buf.Bytes(), nil
				}
				return nil, errBudget
			}
			sz = min(sz, remain)
		}
		n, err := io.CopyN(&buf, r, sz)
		x.decompressed += n
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
