package driving

import (
	"context"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// FileSearchService answers natural-language file queries for one principal.
type FileSearchService interface {
	// Chat runs the full retrieval pipeline for one user turn and returns
	// at most ten accessible files plus an outcome message. The answer is
	// never nil on success; "no results" is a successful answer.
	Chat(ctx context.Context, principal string, req domain.ChatRequest) (*domain.Answer, error)
}

// FileAccessService authorizes and opens individual files for view/download.
type FileAccessService interface {
	// Authorize verifies the principal may access the file.
	// Returns domain.ErrNotFound for unknown ids and domain.ErrAccessDenied
	// when the file exists but the access predicate fails.
	Authorize(ctx context.Context, uuid, principal string) error

	// Open authorizes and opens the file for streaming.
	Open(ctx context.Context, uuid, principal string) (*driven.FileBlob, error)
}
