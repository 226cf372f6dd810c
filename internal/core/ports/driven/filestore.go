package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/deskfind/internal/core/domain"
)

// FileFilter carries the structured predicates pushed down to storage.
// Empty/nil fields mean "no constraint". The keyword is a single LIKE seed;
// multi-token AND matching happens in memory on the returned page.
type FileFilter struct {
	// Keyword is matched case-insensitively as a substring of the entity's
	// text facets. Empty matches everything.
	Keyword string

	// From/To bound createdAt inclusively.
	From *time.Time
	To   *time.Time

	// CounterEmail requires this principal to participate in the same
	// ticket or room.
	CounterEmail string

	// Department filters by uploader department (tickets) or by any other
	// room participant's department (chat).
	Department domain.Department

	// Limit caps the page size. Results are sorted createdAt descending.
	Limit int
}

// TicketFileStore reads ticket attachments visible to a principal.
//
// Access predicate for every returned row: the principal wrote the parent
// ticket or appears among its personal receivers.
type TicketFileStore interface {
	// SearchForAI returns an access-filtered page matching the filter.
	SearchForAI(ctx context.Context, principal string, f FileFilter) ([]domain.TicketHit, error)

	// ExistsAccessible reports whether the file exists and is visible to
	// the principal. Used to authorize view/download.
	ExistsAccessible(ctx context.Context, uuid, principal string) (bool, error)

	// Get returns the attachment regardless of access, or domain.ErrNotFound.
	Get(ctx context.Context, uuid string) (*domain.TicketHit, error)
}

// ChatFileStore reads chat attachments visible to a principal.
//
// Access predicate for every returned row: the principal has a participant
// row in the room whose joined-at precedes the file's creation and whose
// left-at (when set) follows it.
type ChatFileStore interface {
	SearchForAI(ctx context.Context, principal string, f FileFilter) ([]domain.ChatHit, error)
	ExistsAccessible(ctx context.Context, uuid, principal string) (bool, error)
	Get(ctx context.Context, uuid string) (*domain.ChatHit, error)
}
