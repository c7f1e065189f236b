package source

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// Image streams the layers of a remote image and emits each regular file
// in them, named image::layer-digest::path. Layers are read one at a time
// and never written to disk. Local Docker credentials are used when present.
func Image(ctx context.Context, imageRef string, f Filter, emit func(Input) error) error {
	ref, err := name.ParseReference(imageRef)
	if err != nil {
		return fmt.Errorf("invalid image reference %q: %w", imageRef, err)
	}
	img, err := remote.Image(ref, remote.WithAuthFromKeychain(authn.DefaultKeychain), remote.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to fetch image metadata for %q: %w", imageRef, err)
	}
	layers, err := img.Layers()
	if err != nil {
		return fmt.Errorf("failed to get layers for %q: %w", imageRef, err)
	}
	for _, layer := range layers {
		digest, err := layer.Digest()
		if err != nil {
			return fmt.Errorf("layer digest for %q: %w", imageRef, err)
		}
		rc, err := layer.Uncompressed()
		if err != nil {
			return fmt.Errorf("failed to read layer %s: %w", digest, err)
		}
		err = tarEntries(BuildVirtualPath(imageRef, digest.String()), rc, f, emit)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func tarEntries(prefix string, r io.Reader, f Filter, emit func(Input) error) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", prefix, err)
		}
		if !hdr.FileInfo().Mode().IsRegular() || f.tooBig(hdr.Size) || !f.Allowed(hdr.Name) {
			continue
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("read %s: %w", BuildVirtualPath(prefix, hdr.Name), err)
		}
		if err := emit(Input{Name: BuildVirtualPath(prefix, hdr.Name), Data: b}); err != nil {
			return err
		}
	}
}
