//go:build !bulk_extractor || !cgo

package native

import (
	"errors"
	"testing"
)

func TestLoad_Unavailable(t *testing.T) {
	lib, err := Load("./libbulk_extractor.so")
	if lib != nil {
		t.Fatalf("expected nil library, got %v", lib)
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
