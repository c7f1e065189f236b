// Package marshal converts caller-owned bytes and text into the contiguous
// region handed to an engine session, and keeps that region alive for exactly
// one Analyze call.
package marshal

import (
	"fmt"
	"runtime"

	"github.com/redactyl/bextract/internal/native"
)

// Buffer is a byte region submitted for scanning. It is borrowed, not owned:
// callers must not mutate it while a Submit using it is in flight.
type Buffer []byte

// From builds a Buffer from bytes or text. Strings are converted to their
// UTF-8 bytes with one copy; byte slices are borrowed as-is.
func From[T ~[]byte | ~string](v T) Buffer {
	return Buffer(v)
}

// Len reports the exact length passed to the engine.
func (b Buffer) Len() int { return len(b) }

// AnalysisError carries a non-zero status returned by the engine's analyze
// call. The meaning of Code is engine-defined.
type AnalysisError struct {
	Code int
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed with engine status %d", e.Code)
}

// Submit passes b to s.Analyze and surfaces a non-zero result as an
// *AnalysisError. The region stays reachable until Analyze returns.
func Submit(s native.Session, b Buffer) error {
	var region []byte
	if len(b) > 0 {
		region = b
	}
	rc := s.Analyze(region)
	runtime.KeepAlive(b)
	if rc != 0 {
		return &AnalysisError{Code: rc}
	}
	return nil
}
