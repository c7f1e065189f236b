//go:build bulk_extractor && cgo

package native

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef int (*be_callback_t)(int32_t flag, uint32_t arg, const char *name, const char *pos,
                             const char *feature, size_t feature_len,
                             const char *context, size_t context_len);
typedef void *(*be_open_t)(be_callback_t cb);
typedef int (*be_analyze_t)(void *handle, const uint8_t *buf, size_t len);
typedef int (*be_close_t)(void *handle);

extern int goBulkCallback(int32_t, uint32_t, char *, char *, char *, size_t, char *, size_t);

static __thread int be_depth;

int be_trampoline(int32_t flag, uint32_t arg, const char *name, const char *pos,
                  const char *feature, size_t feature_len,
                  const char *context, size_t context_len) {
	be_depth++;
	int rc = goBulkCallback(flag, arg, (char *)name, (char *)pos,
	                        (char *)feature, feature_len, (char *)context, context_len);
	be_depth--;
	return rc;
}

int be_in_callback(void) { return be_depth; }

void *be_dlopen(const char *path) { return dlopen(path, RTLD_NOW | RTLD_LOCAL); }
const char *be_dlerror(void) { return dlerror(); }
void *be_dlsym(void *lib, const char *sym) { return dlsym(lib, sym); }
void be_dlclose(void *lib) { dlclose(lib); }

void *be_call_open(void *fn) { return ((be_open_t)fn)(be_trampoline); }
int be_call_analyze(void *fn, void *h, const uint8_t *buf, size_t len) { return ((be_analyze_t)fn)(h, buf, len); }
int be_call_close(void *fn, void *h) { return ((be_close_t)fn)(h); }
*/
import "C"

// The C definitions above live apart from the //export in library_cgo.go;
// cgo forbids definitions in a preamble of a file that exports Go functions.
