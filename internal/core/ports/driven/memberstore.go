package driven

import (
	"context"

	"github.com/custodia-labs/deskfind/internal/core/domain"
)

// MemberStore reads the member directory for nickname and department
// resolution. Implementations return domain.ErrNotFound for missing members.
type MemberStore interface {
	// FindByEmail looks a member up by principal id.
	FindByEmail(ctx context.Context, email string) (*domain.Member, error)

	// FindByNickname looks a member up by exact display name.
	FindByNickname(ctx context.Context, nickname string) (*domain.Member, error)

	// ActiveNicknames lists the display names of all active members.
	// Feeds the parser's nickname cache.
	ActiveNicknames(ctx context.Context) ([]string, error)
}
