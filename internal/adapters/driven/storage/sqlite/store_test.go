package sqlite

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.SeedDemo(context.Background()))
	return s
}

// ticketFileUUID resolves a seeded ticket file id by name.
func ticketFileUUID(t *testing.T, s *Store, name string) string {
	t.Helper()
	var uuid string
	err := s.db.QueryRow("SELECT uuid FROM ticket_files WHERE file_name = ?", name).Scan(&uuid)
	require.NoError(t, err)
	return uuid
}

func chatFileUUID(t *testing.T, s *Store, name string) string {
	t.Helper()
	var uuid string
	err := s.db.QueryRow("SELECT uuid FROM chat_files WHERE file_name = ?", name).Scan(&uuid)
	require.NoError(t, err)
	return uuid
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestMemberStore_Lookups(t *testing.T) {
	s := newSeededStore(t)
	members := s.MemberStore()
	ctx := context.Background()

	m, err := members.FindByNickname(ctx, "김철수")
	require.NoError(t, err)
	assert.Equal(t, "kim.cheolsu@example.com", m.Email)
	assert.Equal(t, domain.DeptDesign, m.Department)

	_, err = members.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	names, err := members.ActiveNicknames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 5)
	assert.Contains(t, names, "이영희")
}

func TestTicketSearch_AccessControl(t *testing.T) {
	s := newSeededStore(t)
	tickets := s.TicketFileStore()
	ctx := context.Background()

	// 데모 receives both seeded tickets: four attachments in total.
	hits, err := tickets.SearchForAI(ctx, "demo@example.com", driven.FileFilter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, hits, 4)

	// 최지우 is on neither ticket.
	hits, err = tickets.SearchForAI(ctx, "choi.jiwoo@example.com", driven.FileFilter{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTicketSearch_KeywordAndReceivers(t *testing.T) {
	s := newSeededStore(t)
	tickets := s.TicketFileStore()

	hits, err := tickets.SearchForAI(context.Background(), "demo@example.com",
		driven.FileFilter{Keyword: "시장조사", Limit: 50})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	h := hits[0]
	assert.Equal(t, "시장조사_요약.xlsx", h.FileName)
	assert.Equal(t, "신제품 기획서 검토 요청", h.TicketTitle)
	assert.Equal(t, "이영희", h.TicketWriter.Nickname)
	require.Len(t, h.TicketReceivers, 1)
	assert.Equal(t, "demo@example.com", h.TicketReceivers[0].Email)
}

func TestTicketSearch_DepartmentAndDateFilters(t *testing.T) {
	s := newSeededStore(t)
	tickets := s.TicketFileStore()
	ctx := context.Background()

	// Only 김철수 (DESIGN) uploaded ticket files: the two 시안 images.
	hits, err := tickets.SearchForAI(ctx, "demo@example.com",
		driven.FileFilter{Department: domain.DeptDesign, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = tickets.SearchForAI(ctx, "demo@example.com",
		driven.FileFilter{Department: domain.DeptSales, Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// The 기획서 files are 12 days old, the 시안 files 5 days old.
	from := time.Now().AddDate(0, 0, -6)
	to := time.Now()
	hits, err = tickets.SearchForAI(ctx, "demo@example.com",
		driven.FileFilter{From: &from, To: &to, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	for _, h := range hits {
		assert.Contains(t, h.FileName, "디자인_시안")
	}
}

func TestChatSearch_MembershipWindow(t *testing.T) {
	s := newSeededStore(t)
	chats := s.ChatFileStore()
	ctx := context.Background()

	// 최지우 is only in room 2, which holds two files.
	hits, err := chats.SearchForAI(ctx, "choi.jiwoo@example.com", driven.FileFilter{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	// 이영희 joins room 2 today: both files predate the membership.
	_, err = s.db.Exec(
		"INSERT INTO chat_participants (room_id, member_email, joined_at) VALUES (2, 'lee.younghee@example.com', ?)",
		time.Now())
	require.NoError(t, err)
	hits, err = chats.SearchForAI(ctx, "lee.younghee@example.com", driven.FileFilter{Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Backdate the join and leave before the newest file: only the logo
	// (7 days old) falls inside the window.
	_, err = s.db.Exec(
		"UPDATE chat_participants SET joined_at = ?, left_at = ? WHERE member_email = 'lee.younghee@example.com'",
		time.Now().AddDate(0, 0, -40), time.Now().AddDate(0, 0, -5))
	require.NoError(t, err)
	hits, err = chats.SearchForAI(ctx, "lee.younghee@example.com", driven.FileFilter{Limit: 50})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "로고_최종.ai", hits[0].FileName)
}

func TestChatSearch_CounterFilterIgnoresJoinWindow(t *testing.T) {
	s := newSeededStore(t)
	chats := s.ChatFileStore()

	// 이영희 joins room 2 today, after both of its files were shared. The
	// counterparty filter only requires room membership, not presence at
	// upload time.
	_, err := s.db.Exec(
		"INSERT INTO chat_participants (room_id, member_email, joined_at) VALUES (2, 'lee.younghee@example.com', ?)",
		time.Now())
	require.NoError(t, err)

	hits, err := chats.SearchForAI(context.Background(), "demo@example.com",
		driven.FileFilter{CounterEmail: "lee.younghee@example.com", Limit: 50})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.EqualValues(t, 2, h.RoomID)
	}
}

func TestChatSearch_CounterpartSharesRoom(t *testing.T) {
	s := newSeededStore(t)
	chats := s.ChatFileStore()

	// 데모 is in both rooms, but only room 2 is shared with 최지우.
	hits, err := chats.SearchForAI(context.Background(), "demo@example.com",
		driven.FileFilter{CounterEmail: "choi.jiwoo@example.com", Limit: 50})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.EqualValues(t, 2, h.RoomID)
	}
}

func TestExistsAccessible(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	ticketUUID := ticketFileUUID(t, s, "시장조사_요약.xlsx")
	ok, err := s.TicketFileStore().ExistsAccessible(ctx, ticketUUID, "demo@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.TicketFileStore().ExistsAccessible(ctx, ticketUUID, "choi.jiwoo@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	chatUUID := chatFileUUID(t, s, "배포_체크리스트.md")
	ok, err = s.ChatFileStore().ExistsAccessible(ctx, chatUUID, "park.minsu@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ChatFileStore().ExistsAccessible(ctx, chatUUID, "choi.jiwoo@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_UnknownFile(t *testing.T) {
	s := newSeededStore(t)

	_, err := s.TicketFileStore().Get(context.Background(), "no-such-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.ChatFileStore().Get(context.Background(), "no-such-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlobStore_Open(t *testing.T) {
	s := newSeededStore(t)
	blobs := s.BlobStore()
	ctx := context.Background()

	uuid := chatFileUUID(t, s, "배포_체크리스트.md")

	// Seeded metadata has no stored content yet.
	_, err := blobs.Open(ctx, uuid)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Place content under the blob dir and point the row at it.
	rel := filepath.Join("docs", "checklist.md")
	full := filepath.Join(s.BlobDir(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0700))
	require.NoError(t, os.WriteFile(full, []byte("- run the deploy\n"), 0600))
	_, err = s.db.Exec("UPDATE chat_files SET path = ? WHERE uuid = ?", "docs/checklist.md", uuid)
	require.NoError(t, err)

	blob, err := blobs.Open(ctx, uuid)
	require.NoError(t, err)
	defer blob.Content.Close()

	assert.Equal(t, "배포_체크리스트.md", blob.FileName)
	content, err := io.ReadAll(blob.Content)
	require.NoError(t, err)
	assert.Equal(t, "- run the deploy\n", string(content))

	_, err = blobs.Open(ctx, "no-such-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
