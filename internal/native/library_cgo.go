//go:build bulk_extractor && cgo

package native

/*
#include <stdint.h>
#include <stdlib.h>

void *be_dlopen(const char *path);
const char *be_dlerror(void);
void *be_dlsym(void *lib, const char *sym);
void be_dlclose(void *lib);
int be_in_callback(void);
void *be_call_open(void *fn);
int be_call_analyze(void *fn, void *h, const uint8_t *buf, size_t len);
int be_call_close(void *fn, void *h);
*/
import "C"

import (
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/redactyl/bextract/internal/abi"
)

// The C callback carries no user pointer, so the engine cannot tell us which
// session it is calling back for. Every native Analyze holds callMu and
// publishes its callback in active for the duration of the call; callbacks
// arrive synchronously on that same goroutine.
//
// A handler that calls back into the engine already holds callMu through
// its outer Analyze. be_in_callback reports that case from a C thread-local,
// which is reliable because a goroutine stays on its thread for the whole
// duration of a cgo callback.
var (
	callMu sync.Mutex
	active abi.Callback
)

//export goBulkCallback
func goBulkCallback(flag C.int32_t, arg C.uint32_t, name, pos *C.char, feature *C.char, featureLen C.size_t, context *C.char, contextLen C.size_t) C.int {
	cb := active
	if cb == nil {
		return C.int(abi.StatusUnhandled)
	}
	st := abi.Guard(cb, nil)(
		abi.Flag(flag),
		uint32(arg),
		goString(name),
		goString(pos),
		goBytes(feature, featureLen),
		goBytes(context, contextLen),
	)
	return C.int(st)
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// goBytes copies exactly n bytes; feature and context are not NUL-terminated.
func goBytes(p *C.char, n C.size_t) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return bytes.Clone(unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n)))
}

type cLibrary struct {
	path    string
	open    unsafe.Pointer
	analyze unsafe.Pointer
	close   unsafe.Pointer
}

// Load dlopens the engine shared library at path and resolves the three
// entry points.
func Load(path string) (Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.be_dlopen(cpath)
	if h == nil {
		return nil, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.be_dlerror()))
	}
	lib := &cLibrary{path: path}
	for sym, dst := range map[string]*unsafe.Pointer{
		"bulk_extractor_open":        &lib.open,
		"bulk_extractor_analyze_buf": &lib.analyze,
		"bulk_extractor_close":       &lib.close,
	} {
		csym := C.CString(sym)
		p := C.be_dlsym(h, csym)
		C.free(unsafe.Pointer(csym))
		if p == nil {
			C.be_dlclose(h)
			return nil, fmt.Errorf("dlsym %s in %s: symbol not found", sym, path)
		}
		*dst = p
	}
	return lib, nil
}

func (l *cLibrary) Name() string { return "native:" + filepath.Base(l.path) }

func (l *cLibrary) Open(cb Callback) Session {
	h := C.be_call_open(l.open)
	if h == nil {
		return nil
	}
	return &cSession{lib: l, handle: h, cb: cb}
}

type cSession struct {
	lib    *cLibrary
	handle unsafe.Pointer
	// cb stays referenced here from Open until Close.
	cb abi.Callback
}

func (s *cSession) Analyze(buf []byte) int {
	if C.be_in_callback() != 0 {
		return StatusNested
	}
	callMu.Lock()
	defer callMu.Unlock()
	prev := active
	active = s.cb
	defer func() { active = prev }()

	var p *C.uint8_t
	if len(buf) > 0 {
		p = (*C.uint8_t)(unsafe.Pointer(&buf[0]))
	}
	rc := C.be_call_analyze(s.lib.analyze, s.handle, p, C.size_t(len(buf)))
	runtime.KeepAlive(buf)
	return int(rc)
}

func (s *cSession) Close() int {
	if C.be_in_callback() == 0 {
		callMu.Lock()
		defer callMu.Unlock()
	}
	rc := C.be_call_close(s.lib.close, s.handle)
	s.handle = nil
	s.cb = nil
	return int(rc)
}
