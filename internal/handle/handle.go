// Package handle owns one engine session and the callback registered with
// it, and enforces the Unopened -> Open -> Closed lifecycle.
package handle

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/redactyl/bextract/internal/abi"
	"github.com/redactyl/bextract/internal/marshal"
	"github.com/redactyl/bextract/internal/native"
)

// State is the lifecycle position of a Handle.
type State int32

const (
	Unopened State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "invalid"
	}
}

// Handle is one open engine session. It is not safe for concurrent Submit;
// parallel scans need one Handle each.
type Handle struct {
	id     string
	engine string

	mu      sync.Mutex
	state   State
	session native.Session
	// cb is the registration the engine references between Open and Close.
	cb abi.Callback

	busy atomic.Bool
}

// New opens a session on lib with cb registered for its lifetime.
func New(lib native.Library, cb abi.Callback) (*Handle, error) {
	h := &Handle{id: uuid.NewString(), engine: lib.Name(), cb: cb}
	s := lib.Open(cb)
	if s == nil {
		return nil, &OpenError{Engine: h.engine, Err: ErrNullSession}
	}
	h.session = s
	h.state = Open
	slog.Debug("engine session opened", "session", h.id, "engine", h.engine)
	return h, nil
}

// ID returns the session identifier used in logs and metrics.
func (h *Handle) ID() string { return h.id }

// Engine returns the library name the session was opened on.
func (h *Handle) Engine() string { return h.engine }

// State reports the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Submit scans b synchronously. Handlers run on the calling goroutine before
// Submit returns. A non-zero engine status is returned as
// *marshal.AnalysisError and leaves the handle usable.
func (h *Handle) Submit(b marshal.Buffer) error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer h.busy.Store(false)

	h.mu.Lock()
	state, s := h.state, h.session
	h.mu.Unlock()
	if state != Open {
		return &UseAfterCloseError{ID: h.id, Op: "submit"}
	}
	if err := marshal.Submit(s, b); err != nil {
		slog.Warn("analysis returned non-zero status", "session", h.id, "err", err)
		return err
	}
	return nil
}

// Close releases the session. Calling Close on a closed handle is a no-op.
// Close fails with ErrBusy while a Submit is running, including when called
// from inside a handler.
func (h *Handle) Close() error {
	if !h.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer h.busy.Store(false)

	h.mu.Lock()
	if h.state != Open {
		h.mu.Unlock()
		return nil
	}
	s := h.session
	h.session = nil
	h.state = Closed
	h.mu.Unlock()

	rc := s.Close()
	h.cb = nil
	slog.Debug("engine session closed", "session", h.id, "status", rc)
	if rc != 0 {
		return &CloseError{Code: rc}
	}
	return nil
}
