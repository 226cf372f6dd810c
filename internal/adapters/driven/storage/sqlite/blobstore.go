package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// blobStore implements driven.BlobStore over the local blob directory.
// The path column holds a relative location under the blob dir.
type blobStore struct {
	store *Store
}

var _ driven.BlobStore = (*blobStore)(nil)

// Open locates the file's metadata in either corpus and opens its content.
func (s *blobStore) Open(ctx context.Context, uuid string) (*driven.FileBlob, error) {
	name, relPath, size, err := s.lookup(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if relPath == "" {
		return nil, fmt.Errorf("%w: file %s has no stored content", domain.ErrNotFound, uuid)
	}

	full := filepath.Join(s.store.blobDir, filepath.FromSlash(relPath))
	content, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: content of file %s is missing", domain.ErrNotFound, uuid)
		}
		return nil, fmt.Errorf("opening blob: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &driven.FileBlob{
		FileName:    name,
		Size:        size,
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *blobStore) lookup(ctx context.Context, uuid string) (name, relPath string, size int64, err error) {
	var path sql.NullString
	row := s.store.db.QueryRowContext(ctx,
		"SELECT file_name, path, file_size FROM ticket_files WHERE uuid = ?", uuid)
	err = row.Scan(&name, &path, &size)
	if errors.Is(err, sql.ErrNoRows) {
		row = s.store.db.QueryRowContext(ctx,
			"SELECT file_name, path, file_size FROM chat_files WHERE uuid = ?", uuid)
		err = row.Scan(&name, &path, &size)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", 0, domain.ErrNotFound
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("looking up file %s: %w", uuid, err)
	}
	return name, path.String, size, nil
}
