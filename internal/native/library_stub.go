//go:build !bulk_extractor || !cgo

package native

// Load always fails in builds without the native adapter.
func Load(path string) (Library, error) {
	return nil, ErrUnavailable
}
