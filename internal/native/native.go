// Package native describes the boundary with the extraction engine and
// provides a cgo adapter for libbulk_extractor.
//
// The adapter is compiled only with the bulk_extractor build tag and cgo
// enabled; otherwise Load returns ErrUnavailable and callers fall back to the
// builtin engine.
package native

import "errors"

// StatusNested is returned by a native Analyze called from inside a callback
// of a native session. The engine is not re-entered; the nested Submit fails
// with an AnalysisError carrying this code. Close from inside a callback is
// allowed and releases the session immediately.
const StatusNested = -3

// ErrUnavailable is returned by Load when the binary was built without the
// native adapter.
var ErrUnavailable = errors.New("native engine support not compiled in (build with -tags bulk_extractor)")

// Session is one open engine session.
//
// Analyze scans buf synchronously, invoking the session's callback zero or
// more times on the calling goroutine before it returns. The engine must not
// retain buf after Analyze returns; the binding cannot detect a violation.
// Sessions are not safe for concurrent use. Native sessions additionally
// serialize with each other: analyses on different goroutines wait their
// turn, and a nested Analyze from a handler returns StatusNested instead of
// waiting.
type Session interface {
	Analyze(buf []byte) int
	Close() int
}

// Library opens sessions. Open returns nil when the engine cannot allocate
// a session, mirroring a null handle from the C API.
type Library interface {
	Name() string
	Open(cb Callback) Session
}
