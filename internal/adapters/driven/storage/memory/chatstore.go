package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// Participant is one membership window of a chat room.
type Participant struct {
	Email    string
	JoinedAt time.Time
	LeftAt   *time.Time
}

// ChatFileStore is an in-memory chat attachment corpus with per-room
// participant windows.
type ChatFileStore struct {
	mu           sync.RWMutex
	hits         []domain.ChatHit
	participants map[int64][]Participant
	members      *MemberStore
}

var _ driven.ChatFileStore = (*ChatFileStore)(nil)

// NewChatFileStore creates an empty corpus. members resolves participant
// departments; it may be nil when no department queries run.
func NewChatFileStore(members *MemberStore) *ChatFileStore {
	return &ChatFileStore{
		participants: make(map[int64][]Participant),
		members:      members,
	}
}

// Join records a membership window for a room.
func (s *ChatFileStore) Join(roomID int64, p Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[roomID] = append(s.participants[roomID], p)
}

// Add appends an attachment.
func (s *ChatFileStore) Add(h domain.ChatHit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = append(s.hits, h)
}

// everInRoom reports whether email has any membership window in the room,
// past or present. The counterparty filter only requires sharing the room.
func (s *ChatFileStore) everInRoom(roomID int64, email string) bool {
	for _, p := range s.participants[roomID] {
		if strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

// inRoomAt reports whether email was a room member at the given instant.
func (s *ChatFileStore) inRoomAt(roomID int64, email string, at time.Time) bool {
	for _, p := range s.participants[roomID] {
		if !strings.EqualFold(p.Email, email) {
			continue
		}
		if p.JoinedAt.After(at) {
			continue
		}
		if p.LeftAt != nil && at.After(*p.LeftAt) {
			continue
		}
		return true
	}
	return false
}

// SearchForAI returns an access-filtered page matching the filter.
func (s *ChatFileStore) SearchForAI(ctx context.Context, principal string, f driven.FileFilter) ([]domain.ChatHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ChatHit
	for _, h := range s.hits {
		if !s.inRoomAt(h.RoomID, principal, h.CreatedAt) {
			continue
		}
		if f.Keyword != "" && !strings.Contains(chatFacetText(h), strings.ToLower(f.Keyword)) {
			continue
		}
		if f.From != nil && h.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && h.CreatedAt.After(*f.To) {
			continue
		}
		if f.CounterEmail != "" && !s.everInRoom(h.RoomID, f.CounterEmail) {
			continue
		}
		if f.Department != "" && !s.deptInRoom(ctx, h.RoomID, principal, f.Department) {
			continue
		}
		out = append(out, h)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UUID < out[j].UUID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ExistsAccessible reports whether the file exists and the principal was in
// the room when it was uploaded.
func (s *ChatFileStore) ExistsAccessible(_ context.Context, uuid, principal string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hits {
		if h.UUID == uuid {
			return s.inRoomAt(h.RoomID, principal, h.CreatedAt), nil
		}
	}
	return false, nil
}

// Get returns the attachment regardless of access.
func (s *ChatFileStore) Get(_ context.Context, uuid string) (*domain.ChatHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hits {
		if h.UUID == uuid {
			hit := h
			return &hit, nil
		}
	}
	return nil, domain.ErrNotFound
}

// chatFacetText mirrors the SQL LIKE scope.
func chatFacetText(h domain.ChatHit) string {
	return strings.ToLower(strings.Join([]string{h.FileName, h.RoomName, h.WriterNickname}, " "))
}

// deptInRoom reports whether any other participant of the room belongs to
// the department.
func (s *ChatFileStore) deptInRoom(ctx context.Context, roomID int64, principal string, dept domain.Department) bool {
	if s.members == nil {
		return false
	}
	for _, p := range s.participants[roomID] {
		if strings.EqualFold(p.Email, principal) {
			continue
		}
		m, err := s.members.FindByEmail(ctx, p.Email)
		if err == nil && m.Department == dept {
			return true
		}
	}
	return false
}
