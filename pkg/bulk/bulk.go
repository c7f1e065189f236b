package bulk

import (
	"fmt"

	"github.com/redactyl/bextract/internal/abi"
	"github.com/redactyl/bextract/internal/demux"
	"github.com/redactyl/bextract/internal/engine"
	"github.com/redactyl/bextract/internal/handle"
	"github.com/redactyl/bextract/internal/marshal"
	"github.com/redactyl/bextract/internal/native"
)

// Re-exported so callers depend on one import path.
type (
	Flag           = abi.Flag
	Status         = abi.Status
	Callback       = abi.Callback
	Event          = demux.Event
	FeatureEvent   = demux.FeatureEvent
	HistogramEvent = demux.HistogramEvent
	CarveEvent     = demux.CarveEvent
	Handlers       = demux.Handlers
	Collector      = demux.Collector
	Library        = native.Library
	Session        = native.Session
	EngineOptions  = engine.Options

	OpenError          = handle.OpenError
	UseAfterCloseError = handle.UseAfterCloseError
	CloseError         = handle.CloseError
	AnalysisError      = marshal.AnalysisError
)

const (
	FlagFeature   = abi.FlagFeature
	FlagHistogram = abi.FlagHistogram
	FlagCarve     = abi.FlagCarve

	Continue  = abi.StatusContinue
	Unhandled = abi.StatusUnhandled

	// StatusNested is the AnalysisError code of a Submit on a native handle
	// made from inside another native handle's handler.
	StatusNested = native.StatusNested
)

var (
	ErrUseAfterClose = handle.ErrUseAfterClose
	ErrBusy          = handle.ErrBusy
	ErrNullSession   = handle.ErrNullSession
	ErrUnavailable   = native.ErrUnavailable
)

// Handle is an open engine session.
type Handle struct {
	h *handle.Handle
}

// Builtin returns the pure-Go engine.
func Builtin(opts EngineOptions) Library { return engine.New(opts) }

// RecorderNames lists the builtin engine's feature recorders.
func RecorderNames() []string { return engine.RecorderNames() }

// CarverNames lists the builtin engine's carving recorders.
func CarverNames() []string { return engine.CarverNames() }

// LoadNative loads libbulk_extractor from path. It returns ErrUnavailable in
// builds without the bulk_extractor tag.
func LoadNative(path string) (Library, error) { return native.Load(path) }

// Open starts a session on lib with h wrapped into the engine callback.
func Open(lib Library, h Handlers) (*Handle, error) {
	return OpenRaw(lib, demux.Wrap(h))
}

// Chain runs each handler set in order for every event. The first non-zero
// status stops the chain and is returned to the engine.
func Chain(hs ...Handlers) Handlers { return demux.Chain(hs...) }

// OpenRaw starts a session with an undemultiplexed callback.
func OpenRaw(lib Library, cb Callback) (*Handle, error) {
	hd, err := handle.New(lib, cb)
	if err != nil {
		return nil, err
	}
	return &Handle{h: hd}, nil
}

// With opens a session, runs fn and closes the session on every exit path,
// including a panic in fn. A close failure is reported only when fn
// succeeded.
func With(lib Library, h Handlers, fn func(*Handle) error) (err error) {
	hd, err := Open(lib, h)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := hd.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close session: %w", cerr)
		}
	}()
	return fn(hd)
}

// Submit scans buf. Handlers run before Submit returns.
func (h *Handle) Submit(buf []byte) error { return h.h.Submit(marshal.From(buf)) }

// SubmitString scans the UTF-8 bytes of s.
func (h *Handle) SubmitString(s string) error { return h.h.Submit(marshal.From(s)) }

// Close ends the session. It is safe to call more than once.
func (h *Handle) Close() error { return h.h.Close() }

// ID returns the session identifier.
func (h *Handle) ID() string { return h.h.ID() }

// Closed reports whether Close has run.
func (h *Handle) Closed() bool { return h.h.State() == handle.Closed }
