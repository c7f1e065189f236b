package handle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redactyl/bextract/internal/abi"
	"github.com/redactyl/bextract/internal/marshal"
	"github.com/redactyl/bextract/internal/native"
)

type fakeSession struct {
	cb       abi.Callback
	analyzed int
	closed   int
	closeRC  int
}

func (s *fakeSession) Analyze(buf []byte) int {
	s.analyzed++
	return int(s.cb(abi.FlagFeature, 0, "fake", "0", buf, buf))
}

func (s *fakeSession) Close() int {
	s.closed++
	return s.closeRC
}

type fakeLib struct {
	null    bool
	session *fakeSession
}

func (l *fakeLib) Name() string { return "fake" }

func (l *fakeLib) Open(cb native.Callback) native.Session {
	if l.null {
		return nil
	}
	l.session = &fakeSession{cb: cb}
	return l.session
}

func noop(abi.Flag, uint32, string, string, []byte, []byte) abi.Status { return 0 }

func TestNew_NullSessionIsOpenError(t *testing.T) {
	h, err := New(&fakeLib{null: true}, noop)
	assert.Nil(t, h)
	var oe *OpenError
	require.True(t, errors.As(err, &oe))
	assert.ErrorIs(t, err, ErrNullSession)
	assert.Equal(t, "fake", oe.Engine)
}

func TestHandle_Lifecycle(t *testing.T) {
	lib := &fakeLib{}
	h, err := New(lib, noop)
	require.NoError(t, err)
	assert.Equal(t, Open, h.State())
	assert.NotEmpty(t, h.ID())

	require.NoError(t, h.Submit(marshal.From("abc")))
	assert.Equal(t, 1, lib.session.analyzed)

	require.NoError(t, h.Close())
	assert.Equal(t, Closed, h.State())
	require.NoError(t, h.Close(), "second close must be a no-op")
	assert.Equal(t, 1, lib.session.closed, "native close must run once")
}

func TestHandle_SubmitAfterClose(t *testing.T) {
	lib := &fakeLib{}
	h, err := New(lib, noop)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	err = h.Submit(marshal.From("abc"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUseAfterClose)
	var ue *UseAfterCloseError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "submit", ue.Op)
	assert.Zero(t, lib.session.analyzed, "closed session must not be touched")
}

func TestHandle_AnalysisErrorKeepsHandleUsable(t *testing.T) {
	var fail bool
	cb := func(abi.Flag, uint32, string, string, []byte, []byte) abi.Status {
		if fail {
			return 9
		}
		return 0
	}
	h, err := New(&fakeLib{}, cb)
	require.NoError(t, err)
	defer h.Close()

	fail = true
	err = h.Submit(marshal.From("x"))
	var ae *marshal.AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 9, ae.Code)

	fail = false
	assert.NoError(t, h.Submit(marshal.From("x")))
}

func TestHandle_ReentrantSubmitIsBusy(t *testing.T) {
	var h *Handle
	var inner, innerClose error
	cb := func(abi.Flag, uint32, string, string, []byte, []byte) abi.Status {
		inner = h.Submit(marshal.From("nested"))
		innerClose = h.Close()
		return 0
	}
	h, err := New(&fakeLib{}, cb)
	require.NoError(t, err)
	require.NoError(t, h.Submit(marshal.From("outer")))
	assert.ErrorIs(t, inner, ErrBusy)
	assert.ErrorIs(t, innerClose, ErrBusy)
	assert.Equal(t, Open, h.State())
	require.NoError(t, h.Close())
}

func TestHandle_CloseError(t *testing.T) {
	lib := &fakeLib{}
	h, err := New(lib, noop)
	require.NoError(t, err)
	lib.session.closeRC = 4
	err = h.Close()
	var ce *CloseError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 4, ce.Code)
	assert.Equal(t, Closed, h.State())
	assert.NoError(t, h.Close())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unopened", Unopened.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closed", Closed.String())
}
