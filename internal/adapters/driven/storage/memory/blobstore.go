package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// BlobStore is an in-memory blob store.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

type blob struct {
	name        string
	contentType string
	data        []byte
}

var _ driven.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates an empty blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]blob)}
}

// Put stores content under uuid.
func (s *BlobStore) Put(uuid, name, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[uuid] = blob{name: name, contentType: contentType, data: data}
}

// Open returns the blob for uuid, or domain.ErrNotFound.
func (s *BlobStore) Open(_ context.Context, uuid string) (*driven.FileBlob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[uuid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &driven.FileBlob{
		FileName:    b.name,
		Size:        int64(len(b.data)),
		ContentType: b.contentType,
		Content:     io.NopCloser(bytes.NewReader(b.data)),
	}, nil
}
