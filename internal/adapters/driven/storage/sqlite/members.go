package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// memberStore implements driven.MemberStore.
type memberStore struct {
	store *Store
}

var _ driven.MemberStore = (*memberStore)(nil)

// FindByEmail looks a member up by principal id.
func (s *memberStore) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT email, nickname, department FROM members WHERE email = ?", email)
	return scanMember(row)
}

// FindByNickname looks a member up by exact display name. With duplicate
// nicknames the active member wins.
func (s *memberStore) FindByNickname(ctx context.Context, nickname string) (*domain.Member, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT email, nickname, department FROM members WHERE nickname = ? ORDER BY active DESC LIMIT 1", nickname)
	return scanMember(row)
}

// ActiveNicknames lists the display names of all active members.
func (s *memberStore) ActiveNicknames(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT nickname FROM members WHERE active = 1")
	if err != nil {
		return nil, fmt.Errorf("querying active nicknames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning nickname: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nicknames: %w", err)
	}
	return names, nil
}

func scanMember(row *sql.Row) (*domain.Member, error) {
	var m domain.Member
	var dept string
	if err := row.Scan(&m.Email, &m.Nickname, &dept); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning member: %w", err)
	}
	m.Department = domain.Department(dept)
	return &m, nil
}
