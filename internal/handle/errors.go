package handle

import (
	"errors"
	"fmt"
)

var (
	// ErrNullSession is the cause of an OpenError when the library returned
	// no session.
	ErrNullSession = errors.New("engine returned a null session")
	// ErrUseAfterClose matches any *UseAfterCloseError.
	ErrUseAfterClose = errors.New("use of closed engine handle")
	// ErrBusy is returned when Submit is called while another Submit on the
	// same handle is still running, including from inside a handler.
	ErrBusy = errors.New("engine handle busy: concurrent submit on one handle")
)

// OpenError reports that a session could not be created.
type OpenError struct {
	Engine string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Engine, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// UseAfterCloseError reports an operation on a closed handle. It always
// indicates a programming error in the caller.
type UseAfterCloseError struct {
	ID string
	Op string
}

func (e *UseAfterCloseError) Error() string {
	return fmt.Sprintf("%s on closed engine handle %s", e.Op, e.ID)
}

func (e *UseAfterCloseError) Is(target error) bool { return target == ErrUseAfterClose }

// CloseError carries a non-zero status from the engine's close call. The
// handle is closed regardless.
type CloseError struct {
	Code int
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close failed with engine status %d", e.Code)
}
