package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// chatFileStore implements driven.ChatFileStore.
type chatFileStore struct {
	store *Store
}

var _ driven.ChatFileStore = (*chatFileStore)(nil)

// chatAccessPredicate scopes rows to files uploaded while the bound member
// was in the room: joined before the upload and not yet left.
const chatAccessPredicate = `EXISTS (SELECT 1 FROM chat_participants p
	WHERE p.room_id = f.room_id
	  AND p.member_email = ?
	  AND p.joined_at <= f.created_at
	  AND (p.left_at IS NULL OR f.created_at <= p.left_at))`

// chatCounterPredicate checks bare room membership. Unlike the access
// predicate it carries no time window: the counterparty only has to share
// the room, not to have been present when the file was uploaded.
const chatCounterPredicate = `EXISTS (SELECT 1 FROM chat_participants cp
	WHERE cp.room_id = f.room_id
	  AND cp.member_email = ?)`

const chatSelectColumns = `f.uuid, f.file_name, f.file_size, f.writer_email, f.receiver_email, f.created_at,
	c.id, c.name, f.message_seq, IFNULL(w.nickname, '')`

const chatFromClause = `FROM chat_files f
	JOIN chat_rooms c ON c.id = f.room_id
	LEFT JOIN members w ON w.email = f.writer_email`

// SearchForAI returns an access-filtered page of chat attachments.
func (s *chatFileStore) SearchForAI(ctx context.Context, principal string, f driven.FileFilter) ([]domain.ChatHit, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + chatSelectColumns + " " + chatFromClause + " WHERE " + chatAccessPredicate)
	args := []any{principal}

	if f.Keyword != "" {
		sb.WriteString(` AND lower(f.file_name || ' ' || c.name || ' ' || IFNULL(w.nickname, ''))
			LIKE '%' || lower(?) || '%'`)
		args = append(args, f.Keyword)
	}
	if f.From != nil {
		sb.WriteString(" AND f.created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		sb.WriteString(" AND f.created_at <= ?")
		args = append(args, *f.To)
	}
	if f.CounterEmail != "" {
		sb.WriteString(" AND " + chatCounterPredicate)
		args = append(args, f.CounterEmail)
	}
	if f.Department != "" {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM chat_participants dp
			JOIN members dm ON dm.email = dp.member_email
			WHERE dp.room_id = f.room_id AND dm.department = ? AND dp.member_email <> ?)`)
		args = append(args, string(f.Department), principal)
	}

	sb.WriteString(" ORDER BY f.created_at DESC, f.uuid ASC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying chat files: %w", err)
	}
	defer rows.Close()

	var hits []domain.ChatHit
	for rows.Next() {
		hit, err := scanChatHit(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat files: %w", err)
	}
	return hits, nil
}

// ExistsAccessible reports whether the file exists and the principal was in
// the room when it was uploaded.
func (s *chatFileStore) ExistsAccessible(ctx context.Context, uuid, principal string) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 " + chatFromClause + " WHERE f.uuid = ? AND " + chatAccessPredicate + ")"
	var exists bool
	if err := s.store.db.QueryRowContext(ctx, query, uuid, principal).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking chat file access: %w", err)
	}
	return exists, nil
}

// Get returns the attachment regardless of access.
func (s *chatFileStore) Get(ctx context.Context, uuid string) (*domain.ChatHit, error) {
	query := "SELECT " + chatSelectColumns + " " + chatFromClause + " WHERE f.uuid = ?"
	row := s.store.db.QueryRowContext(ctx, query, uuid)
	hit, err := scanChatHit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &hit, nil
}

func scanChatHit(row rowScanner) (domain.ChatHit, error) {
	var h domain.ChatHit
	var writer, receiver sql.NullString
	var created sql.NullTime
	err := row.Scan(
		&h.UUID, &h.FileName, &h.FileSize, &writer, &receiver, &created,
		&h.RoomID, &h.RoomName, &h.MessageSeq, &h.WriterNickname,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("scanning chat file: %w", err)
	}
	h.Writer = writer.String
	h.Receiver = receiver.String
	if created.Valid {
		h.CreatedAt = created.Time
	}
	return h, nil
}
