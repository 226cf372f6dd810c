package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// FileAccessService authorizes view/download of individual files. The same
// predicates that scope search results gate direct access, so a leaked file
// id grants nothing.
type FileAccessService struct {
	tickets driven.TicketFileStore
	chats   driven.ChatFileStore
	blobs   driven.BlobStore
}

// NewFileAccessService wires file authorization over both corpora.
func NewFileAccessService(tickets driven.TicketFileStore, chats driven.ChatFileStore, blobs driven.BlobStore) *FileAccessService {
	return &FileAccessService{tickets: tickets, chats: chats, blobs: blobs}
}

// Authorize verifies the principal may access the file identified by uuid.
// Returns domain.ErrNotFound when no corpus knows the id, and
// domain.ErrAccessDenied when the file exists but the predicate fails.
func (s *FileAccessService) Authorize(ctx context.Context, uuid, principal string) error {
	if principal == "" {
		return domain.ErrUnauthenticated
	}
	if uuid == "" {
		return fmt.Errorf("%w: empty file id", domain.ErrInvalidInput)
	}

	ok, err := s.tickets.ExistsAccessible(ctx, uuid, principal)
	if err != nil {
		return fmt.Errorf("checking ticket file access: %w", err)
	}
	if ok {
		return nil
	}
	ok, err = s.chats.ExistsAccessible(ctx, uuid, principal)
	if err != nil {
		return fmt.Errorf("checking chat file access: %w", err)
	}
	if ok {
		return nil
	}

	// Distinguish a missing file from a forbidden one.
	if _, err := s.tickets.Get(ctx, uuid); err == nil {
		return domain.ErrAccessDenied
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("loading ticket file: %w", err)
	}
	if _, err := s.chats.Get(ctx, uuid); err == nil {
		return domain.ErrAccessDenied
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("loading chat file: %w", err)
	}
	return domain.ErrNotFound
}

// Open authorizes the principal and opens the file content for streaming.
func (s *FileAccessService) Open(ctx context.Context, uuid, principal string) (*driven.FileBlob, error) {
	if err := s.Authorize(ctx, uuid, principal); err != nil {
		return nil, err
	}
	blob, err := s.blobs.Open(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", uuid, err)
	}
	return blob, nil
}
