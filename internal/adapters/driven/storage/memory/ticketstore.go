package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// TicketFileStore is an in-memory ticket attachment corpus. Access checks
// run against the flattened ticket writer/receiver snapshots on each hit.
type TicketFileStore struct {
	mu      sync.RWMutex
	hits    []domain.TicketHit
	members *MemberStore
}

var _ driven.TicketFileStore = (*TicketFileStore)(nil)

// NewTicketFileStore creates a corpus. members resolves uploader departments
// for department filtering; it may be nil when no department queries run.
func NewTicketFileStore(members *MemberStore, hits ...domain.TicketHit) *TicketFileStore {
	return &TicketFileStore{hits: hits, members: members}
}

// Add appends an attachment.
func (s *TicketFileStore) Add(h domain.TicketHit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = append(s.hits, h)
}

func ticketAccessible(h domain.TicketHit, principal string) bool {
	if strings.EqualFold(h.TicketWriter.Email, principal) {
		return true
	}
	for _, r := range h.TicketReceivers {
		if strings.EqualFold(r.Email, principal) {
			return true
		}
	}
	return false
}

// SearchForAI returns an access-filtered page matching the filter.
func (s *TicketFileStore) SearchForAI(ctx context.Context, principal string, f driven.FileFilter) ([]domain.TicketHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TicketHit
	for _, h := range s.hits {
		if !ticketAccessible(h, principal) {
			continue
		}
		if f.Keyword != "" && !strings.Contains(ticketFacetText(h), strings.ToLower(f.Keyword)) {
			continue
		}
		if f.From != nil && h.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && h.CreatedAt.After(*f.To) {
			continue
		}
		if f.CounterEmail != "" && !ticketAccessible(h, f.CounterEmail) {
			continue
		}
		if f.Department != "" && !s.uploaderInDept(ctx, h, f.Department) {
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

// ExistsAccessible reports whether the file exists and is visible.
func (s *TicketFileStore) ExistsAccessible(_ context.Context, uuid, principal string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, h := range s.hits {
		if h.UUID == uuid {
			return ticketAccessible(h, principal), nil
		}
	}
	return false, nil
}

// Get returns the attachment regardless of access.
func (s *TicketFileStore) Get(_ context.Context, uuid string) (*domain.TicketHit, error) {
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

// ticketFacetText mirrors the SQL LIKE scope.
func ticketFacetText(h domain.TicketHit) string {
	return strings.ToLower(strings.Join([]string{
		h.FileName, h.TicketTitle, h.TicketContent, h.TicketPurpose, h.TicketRequirement,
	}, " "))
}

func (s *TicketFileStore) uploaderInDept(ctx context.Context, h domain.TicketHit, dept domain.Department) bool {
	if s.members == nil {
		return false
	}
	m, err := s.members.FindByEmail(ctx, h.TicketWriter.Email)
	return err == nil && m.Department == dept
}
