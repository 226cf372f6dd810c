package driven

import (
	"context"
	"io"
)

// FileBlob is an opened stored file ready for streaming to a client.
type FileBlob struct {
	// FileName is the original upload name.
	FileName string

	// Size is the byte size, -1 when unknown.
	Size int64

	// ContentType is the MIME type, empty when undetected.
	ContentType string

	// Content streams the bytes. The caller must close it.
	Content io.ReadCloser
}

// BlobStore resolves file ids to stored bytes. Authorization happens before
// this layer; implementations only locate and open content.
type BlobStore interface {
	// Open returns the blob for uuid, or domain.ErrNotFound.
	Open(ctx context.Context, uuid string) (*FileBlob, error)
}
