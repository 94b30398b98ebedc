package port

import (
	"context"
	"io"
)

type BlobStore interface {
	// PutBlob stores size bytes from r under name in container and returns
	// the object's URL.
	PutBlob(ctx context.Context, container, name string, r io.Reader, size int64, contentType string) (string, error)
}

type FileShare interface {
	// WriteFile creates or replaces dir/name within the share.
	WriteFile(ctx context.Context, dir, name string, data []byte) error
}
