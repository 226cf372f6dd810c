package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// MemberStore is an in-memory member directory.
type MemberStore struct {
	mu       sync.RWMutex
	members  map[string]domain.Member // keyed by email
	inactive map[string]bool
}

var _ driven.MemberStore = (*MemberStore)(nil)

// NewMemberStore creates a directory holding the given members, all active.
func NewMemberStore(members ...domain.Member) *MemberStore {
	s := &MemberStore{
		members:  make(map[string]domain.Member, len(members)),
		inactive: make(map[string]bool),
	}
	for _, m := range members {
		s.members[m.Email] = m
	}
	return s
}

// Add inserts or replaces a member.
func (s *MemberStore) Add(m domain.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.Email] = m
}

// Deactivate marks a member inactive; they stay resolvable by nickname but
// drop out of ActiveNicknames.
func (s *MemberStore) Deactivate(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactive[email] = true
}

// FindByEmail looks a member up by principal id.
func (s *MemberStore) FindByEmail(_ context.Context, email string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.members[email]; ok {
		return &m, nil
	}
	return nil, domain.ErrNotFound
}

// FindByNickname looks a member up by exact display name.
func (s *MemberStore) FindByNickname(_ context.Context, nickname string) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.Nickname == nickname {
			return &m, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ActiveNicknames lists the display names of all active members.
func (s *MemberStore) ActiveNicknames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for email, m := range s.members {
		if s.inactive[email] {
			continue
		}
		names = append(names, m.Nickname)
	}
	return names, nil
}
