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

// ticketFileStore implements driven.TicketFileStore.
type ticketFileStore struct {
	store *Store
}

var _ driven.TicketFileStore = (*ticketFileStore)(nil)

// ticketAccessPredicate scopes rows to tickets the principal wrote or
// received. Bind the principal twice.
const ticketAccessPredicate = `(t.writer_email = ?
	OR EXISTS (SELECT 1 FROM ticket_receivers r WHERE r.tno = t.tno AND r.receiver_email = ?))`

const ticketSelectColumns = `f.uuid, f.file_name, f.file_size, f.writer_email, f.receiver_email, f.created_at,
	t.tno, t.title, IFNULL(t.content, ''), IFNULL(t.purpose, ''), IFNULL(t.requirement, ''),
	t.writer_email, IFNULL(w.nickname, '')`

const ticketFromClause = `FROM ticket_files f
	JOIN tickets t ON t.tno = f.tno
	LEFT JOIN members w ON w.email = t.writer_email`

// SearchForAI returns an access-filtered page of ticket attachments.
func (s *ticketFileStore) SearchForAI(ctx context.Context, principal string, f driven.FileFilter) ([]domain.TicketHit, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + ticketSelectColumns + " " + ticketFromClause + " WHERE " + ticketAccessPredicate)
	args := []any{principal, principal}

	if f.Keyword != "" {
		sb.WriteString(` AND lower(f.file_name || ' ' || t.title || ' ' || IFNULL(t.content, '') || ' ' ||
			IFNULL(t.purpose, '') || ' ' || IFNULL(t.requirement, '')) LIKE '%' || lower(?) || '%'`)
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
		sb.WriteString(` AND (t.writer_email = ?
			OR EXISTS (SELECT 1 FROM ticket_receivers r2 WHERE r2.tno = t.tno AND r2.receiver_email = ?))`)
		args = append(args, f.CounterEmail, f.CounterEmail)
	}
	if f.Department != "" {
		sb.WriteString(" AND w.department = ?")
		args = append(args, string(f.Department))
	}

	sb.WriteString(" ORDER BY f.created_at DESC, f.uuid ASC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying ticket files: %w", err)
	}
	defer rows.Close()

	var hits []domain.TicketHit
	for rows.Next() {
		hit, err := scanTicketHit(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ticket files: %w", err)
	}

	if err := s.attachReceivers(ctx, hits); err != nil {
		return nil, err
	}
	return hits, nil
}

// ExistsAccessible reports whether the file exists and the principal passes
// the ticket access predicate.
func (s *ticketFileStore) ExistsAccessible(ctx context.Context, uuid, principal string) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 " + ticketFromClause + " WHERE f.uuid = ? AND " + ticketAccessPredicate + ")"
	var exists bool
	if err := s.store.db.QueryRowContext(ctx, query, uuid, principal, principal).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking ticket file access: %w", err)
	}
	return exists, nil
}

// Get returns the attachment regardless of access.
func (s *ticketFileStore) Get(ctx context.Context, uuid string) (*domain.TicketHit, error) {
	query := "SELECT " + ticketSelectColumns + " " + ticketFromClause + " WHERE f.uuid = ?"
	row := s.store.db.QueryRowContext(ctx, query, uuid)
	hit, err := scanTicketHit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	hits := []domain.TicketHit{hit}
	if err := s.attachReceivers(ctx, hits); err != nil {
		return nil, err
	}
	return &hits[0], nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketHit(row rowScanner) (domain.TicketHit, error) {
	var h domain.TicketHit
	var writer, receiver sql.NullString
	var created sql.NullTime
	err := row.Scan(
		&h.UUID, &h.FileName, &h.FileSize, &writer, &receiver, &created,
		&h.TicketNo, &h.TicketTitle, &h.TicketContent, &h.TicketPurpose, &h.TicketRequirement,
		&h.TicketWriter.Email, &h.TicketWriter.Nickname,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return h, err
		}
		return h, fmt.Errorf("scanning ticket file: %w", err)
	}
	h.Writer = writer.String
	h.Receiver = receiver.String
	if created.Valid {
		h.CreatedAt = created.Time
	}
	return h, nil
}

// attachReceivers loads the personal receivers for every distinct ticket on
// the page in one query.
func (s *ticketFileStore) attachReceivers(ctx context.Context, hits []domain.TicketHit) error {
	if len(hits) == 0 {
		return nil
	}
	tnos := make(map[int64]struct{})
	for _, h := range hits {
		tnos[h.TicketNo] = struct{}{}
	}
	placeholders := make([]string, 0, len(tnos))
	args := make([]any, 0, len(tnos))
	for tno := range tnos {
		placeholders = append(placeholders, "?")
		args = append(args, tno)
	}

	query := `SELECT r.tno, r.receiver_email, IFNULL(m.nickname, '')
		FROM ticket_receivers r
		LEFT JOIN members m ON m.email = r.receiver_email
		WHERE r.tno IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying ticket receivers: %w", err)
	}
	defer rows.Close()

	byTicket := make(map[int64][]domain.Person)
	for rows.Next() {
		var tno int64
		var p domain.Person
		if err := rows.Scan(&tno, &p.Email, &p.Nickname); err != nil {
			return fmt.Errorf("scanning ticket receiver: %w", err)
		}
		byTicket[tno] = append(byTicket[tno], p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating ticket receivers: %w", err)
	}

	for i := range hits {
		hits[i].TicketReceivers = byTicket[hits[i].TicketNo]
	}
	return nil
}
