package services

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deskfind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/deskfind/internal/core/domain"
)

func newAccessFixture(t *testing.T) *FileAccessService {
	t.Helper()

	tickets := memory.NewTicketFileStore(nil,
		domain.TicketHit{
			UUID: "t-0001", FileName: "신제품_기획서_v2.pdf",
			TicketNo:        1001,
			TicketWriter:    domain.Person{Email: leeEmail},
			TicketReceivers: []domain.Person{{Email: demoEmail}},
		},
		domain.TicketHit{
			UUID: "t-9999", FileName: "기밀_기획서.pdf",
			TicketNo:     1002,
			TicketWriter: domain.Person{Email: leeEmail},
		},
	)
	chats := memory.NewChatFileStore(nil)
	chats.Join(7, memory.Participant{Email: demoEmail, JoinedAt: daysAgo(30)})
	chats.Add(domain.ChatHit{
		UUID: "c-0001", FileName: "로고_최종.ai",
		CreatedAt: daysAgo(7), RoomID: 7,
	})

	blobs := memory.NewBlobStore()
	blobs.Put("t-0001", "신제품_기획서_v2.pdf", "application/pdf", []byte("pdf-bytes"))

	return NewFileAccessService(tickets, chats, blobs)
}

func TestAuthorize(t *testing.T) {
	svc := newAccessFixture(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "t-0001", demoEmail))
	assert.NoError(t, svc.Authorize(ctx, "c-0001", demoEmail))

	// Exists in the ticket corpus, but the predicate fails.
	assert.ErrorIs(t, svc.Authorize(ctx, "t-9999", demoEmail), domain.ErrAccessDenied)

	assert.ErrorIs(t, svc.Authorize(ctx, "no-such-file", demoEmail), domain.ErrNotFound)
	assert.ErrorIs(t, svc.Authorize(ctx, "t-0001", ""), domain.ErrUnauthenticated)
	assert.ErrorIs(t, svc.Authorize(ctx, "", demoEmail), domain.ErrInvalidInput)
}

func TestOpen_StreamsAuthorizedContent(t *testing.T) {
	svc := newAccessFixture(t)

	blob, err := svc.Open(context.Background(), "t-0001", demoEmail)
	require.NoError(t, err)
	defer blob.Content.Close()

	assert.Equal(t, "신제품_기획서_v2.pdf", blob.FileName)
	data, err := io.ReadAll(blob.Content)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))

	_, err = svc.Open(context.Background(), "t-9999", demoEmail)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
