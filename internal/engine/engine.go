package engine

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/redactyl/bextract/internal/abi"
	"github.com/redactyl/bextract/internal/native"
)

const (
	// DefaultContextWindow is the number of bytes reported on each side of
	// a feature.
	DefaultContextWindow = 16
	// DefaultMaxCarveBytes caps the size of one carved object.
	DefaultMaxCarveBytes = 16 << 20

	// StatusClosed is returned by Analyze on a closed session.
	StatusClosed = 2
)

// Options selects what the builtin engine reports.
type Options struct {
	// Recorders restricts feature recorders by name; empty means all.
	Recorders     []string
	Histograms    bool
	Carve         bool
	ContextWindow int
	MaxCarveBytes int
}

// Library is the builtin engine. The zero value scans with every feature
// recorder and no histograms or carving.
type Library struct {
	opts      Options
	recorders []Recorder
}

var _ native.Library = (*Library)(nil)

// New returns a builtin engine configured by opts.
func New(opts Options) *Library {
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = DefaultContextWindow
	}
	if opts.MaxCarveBytes <= 0 {
		opts.MaxCarveBytes = DefaultMaxCarveBytes
	}
	return &Library{opts: opts, recorders: selectRecorders(opts.Recorders)}
}

func (l *Library) Name() string { return "builtin" }

func (l *Library) Open(cb native.Callback) native.Session {
	if cb == nil {
		return nil
	}
	return &session{lib: l, cb: cb}
}

type session struct {
	lib    *Library
	cb     abi.Callback
	closed bool
}

type bucket struct {
	feature []byte
	first   int
	count   uint32
}

// featureHash picks the histogram slot of a feature. Features sharing a slot
// are told apart by their bytes.
var featureHash = xxhash.Sum64

// histogram counts distinct feature values.
type histogram map[uint64][]*bucket

func (h histogram) add(feature []byte, at int) {
	k := featureHash(feature)
	for _, b := range h[k] {
		if bytes.Equal(b.feature, feature) {
			b.count++
			return
		}
	}
	h[k] = append(h[k], &bucket{feature: feature, first: at, count: 1})
}

// Analyze reports features in buffer order per recorder, then one histogram
// event per distinct feature value, then carved objects. The first non-zero
// callback status stops the scan and is returned.
func (s *session) Analyze(buf []byte) int {
	if s.closed {
		return StatusClosed
	}
	opts := s.lib.opts
	for _, r := range s.lib.recorders {
		hist := histogram{}
		for _, loc := range r.Pattern.FindAllIndex(buf, -1) {
			feature := buf[loc[0]:loc[1]]
			if r.Validate != nil && !r.Validate(feature) {
				continue
			}
			st := s.cb.Invoke(abi.RawEvent{
				Flag:     abi.FlagFeature,
				Recorder: r.Name,
				Position: strconv.Itoa(loc[0]),
				Feature:  feature,
				Context:  window(buf, loc[0], loc[1], opts.ContextWindow),
			})
			if st != abi.StatusContinue {
				return int(st)
			}
			if opts.Histograms {
				hist.add(feature, loc[0])
			}
		}
		if st := s.emitHistogram(r.Name, hist); st != abi.StatusContinue {
			return int(st)
		}
	}
	if opts.Carve {
		for _, c := range carveAll(buf, opts.MaxCarveBytes) {
			st := s.cb.Invoke(abi.RawEvent{
				Flag:     abi.FlagCarve,
				Recorder: c.carver.name,
				Position: strconv.Itoa(c.offset),
				Feature:  c.data,
				Context:  []byte(fmt.Sprintf("%s/%08d.%s", c.carver.name, c.offset, c.carver.ext)),
			})
			if st != abi.StatusContinue {
				return int(st)
			}
		}
	}
	return 0
}

// emitHistogram reports buckets by descending count, ties broken by first
// appearance.
func (s *session) emitHistogram(recorder string, hist histogram) abi.Status {
	if len(hist) == 0 {
		return abi.StatusContinue
	}
	bs := make([]*bucket, 0, len(hist))
	for _, slot := range hist {
		bs = append(bs, slot...)
	}
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].count != bs[j].count {
			return bs[i].count > bs[j].count
		}
		return bs[i].first < bs[j].first
	})
	for _, b := range bs {
		st := s.cb.Invoke(abi.RawEvent{
			Flag:     abi.FlagHistogram,
			Aux:      b.count,
			Recorder: recorder + "_histogram",
			Position: strconv.Itoa(b.first),
			Feature:  b.feature,
		})
		if st != abi.StatusContinue {
			return st
		}
	}
	return abi.StatusContinue
}

func (s *session) Close() int {
	s.closed = true
	s.cb = nil
	return 0
}

func window(buf []byte, start, end, n int) []byte {
	lo, hi := start-n, end+n
	if lo < 0 {
		lo = 0
	}
	if hi > len(buf) {
		hi = len(buf)
	}
	return buf[lo:hi]
}
