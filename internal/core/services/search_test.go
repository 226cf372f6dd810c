package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deskfind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
	"github.com/custodia-labs/deskfind/internal/korean"
)

const (
	demoEmail = "demo@example.com"
	kimEmail  = "kim.cheolsu@example.com"
	leeEmail  = "lee.younghee@example.com"
)

// stubLLM plays back scripted completions in order.
type stubLLM struct {
	responses []string
	calls     int
}

func (s *stubLLM) GenerateJSON(context.Context, string) (string, error) {
	s.calls++
	if len(s.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *stubLLM) ModelName() string          { return "stub" }
func (s *stubLLM) Ping(context.Context) error { return nil }
func (s *stubLLM) Close() error               { return nil }

var _ driven.LLMService = (*stubLLM)(nil)

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

// newSearchFixture builds a service over a small two-corpus world:
//
//   - ticket 1001 (이영희 -> 데모): 신제품 기획서, 12 days old
//   - ticket 1002 (김철수 -> 데모, 이영희): 디자인 시안, 5 days old
//   - a ticket visible only to 이영희, 2 days old
//   - room 7 (데모, 김철수): a logo file from 김철수, 7 days old
func newSearchFixture(t *testing.T, llm driven.LLMService) (*SearchService, *memory.TicketFileStore, *memory.ChatFileStore) {
	t.Helper()

	members := memory.NewMemberStore(
		domain.Member{Email: demoEmail, Nickname: "데모", Department: domain.DeptDevelopment},
		domain.Member{Email: kimEmail, Nickname: "김철수", Department: domain.DeptDesign},
		domain.Member{Email: leeEmail, Nickname: "이영희", Department: domain.DeptPlanning},
	)

	tickets := memory.NewTicketFileStore(members,
		domain.TicketHit{
			UUID: "t-0001", FileName: "신제품_기획서_v2.pdf", FileSize: 120_000,
			CreatedAt: daysAgo(12),
			Writer:    leeEmail, Receiver: demoEmail,
			TicketNo: 1001, TicketTitle: "신제품 기획서 검토 요청",
			TicketContent:   "첨부한 기획서 검토 부탁드립니다",
			TicketWriter:    domain.Person{Email: leeEmail, Nickname: "이영희"},
			TicketReceivers: []domain.Person{{Email: demoEmail, Nickname: "데모"}},
		},
		domain.TicketHit{
			UUID: "t-0002", FileName: "디자인_시안_A.png", FileSize: 45_000,
			CreatedAt: daysAgo(5),
			Writer:    kimEmail, Receiver: demoEmail,
			TicketNo: 1002, TicketTitle: "홈페이지 디자인 시안 공유",
			TicketWriter: domain.Person{Email: kimEmail, Nickname: "김철수"},
			TicketReceivers: []domain.Person{
				{Email: demoEmail, Nickname: "데모"},
				{Email: leeEmail, Nickname: "이영희"},
			},
		},
		domain.TicketHit{
			UUID: "t-9999", FileName: "기밀_기획서.pdf", FileSize: 80_000,
			CreatedAt: daysAgo(2),
			Writer:    leeEmail,
			TicketNo:  1003, TicketTitle: "내부 기획서",
			TicketWriter: domain.Person{Email: leeEmail, Nickname: "이영희"},
		},
	)

	chats := memory.NewChatFileStore(members)
	chats.Join(7, memory.Participant{Email: demoEmail, JoinedAt: daysAgo(30)})
	chats.Join(7, memory.Participant{Email: kimEmail, JoinedAt: daysAgo(30)})
	chats.Add(domain.ChatHit{
		UUID: "c-0001", FileName: "로고_최종.ai", FileSize: 2_000_000,
		CreatedAt: daysAgo(7),
		Writer:    kimEmail,
		RoomID:    7, RoomName: "프로젝트 단톡", WriterNickname: "김철수",
	})

	cache := NewNicknameCache(members, 0)
	parser := NewQueryParser(members, cache)
	parser.SetClock(func() time.Time { return testNow })

	svc := NewSearchService(tickets, chats, members, llm, parser, korean.NewTokenizer(nil))
	svc.SetClock(func() time.Time { return testNow })
	return svc, tickets, chats
}

func TestChat_KeywordOnly_ExcludesInaccessibleFiles(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	ans, err := svc.Chat(context.Background(), demoEmail, domain.ChatRequest{UserInput: "기획서"})

	require.NoError(t, err)
	require.Len(t, ans.Results, 1)
	// The confidential planning doc matches the keyword but belongs to 이영희.
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
	assert.Equal(t, successMessage(1), ans.Message)
}

func TestChat_CounterAndKeyword_RankedBySimilarity(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{UserInput: "김철수한테 받은 시안"})

	require.NoError(t, err)
	require.Len(t, ans.Results, 1)
	// The logo file shares the room with 김철수 but no facet resembles 시안.
	assert.Equal(t, "t-0002", ans.Results[0].UUID)
	assert.Equal(t, successMessage(1), ans.Message)
}

func TestChat_SenderOnlyFiltersOutReceivedFiles(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	// 데모 never uploaded anything; even the descent rungs stay empty.
	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{UserInput: "김철수한테 보낸 시안"})

	require.NoError(t, err)
	assert.Empty(t, ans.Results)
	assert.Equal(t, notFoundMessage(), ans.Message)
}

func TestChat_PartialDescentDropsDateCondition(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{UserInput: "2025-01-01 기획서"})

	require.NoError(t, err)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
	assert.Contains(t, ans.Message, "내용 '기획서'")
	assert.Contains(t, ans.Message, "기준으로 검색된 결과")
}

func TestChat_WeakParseConsultsLLMFirst(t *testing.T) {
	llm := &stubLLM{responses: []string{`{"keyword": "기획서"}`}}
	svc, _, _ := newSearchFixture(t, llm)

	ans, err := svc.Chat(context.Background(), demoEmail, domain.ChatRequest{UserInput: "찾아줘"})

	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
}

func TestChat_LLMReparseRescuesWrongDate(t *testing.T) {
	start := daysAgo(14).Format("2006-01-02")
	end := testNow.Format("2006-01-02")
	llm := &stubLLM{responses: []string{
		fmt.Sprintf(`{"startDate": %q, "endDate": %q, "keyword": "기획서"}`, start, end),
	}}
	svc, _, _ := newSearchFixture(t, llm)

	// January has no files; the re-parse moves the window to the last two weeks.
	ans, err := svc.Chat(context.Background(), demoEmail, domain.ChatRequest{UserInput: "1월 기획서"})

	require.NoError(t, err)
	assert.Equal(t, 1, llm.calls)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
	assert.Equal(t, successMessage(1), ans.Message)
}

func TestChat_KeywordRefinementRung(t *testing.T) {
	llm := &stubLLM{responses: []string{
		`{}`,                      // re-parse adds nothing
		`{"keyword": "기획서"}`, // refinement lands
	}}
	svc, _, _ := newSearchFixture(t, llm)

	// 미영 is nobody in the directory; tokenisation leaves only a 2-rune
	// fragment, which is exactly what the refinement rung is for.
	ans, err := svc.Chat(context.Background(), demoEmail, domain.ChatRequest{UserInput: "미영씨한테"})

	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
}

func TestChat_CompoundKeywordReachesRefinement(t *testing.T) {
	llm := &stubLLM{responses: []string{
		`{}`,                 // re-parse adds nothing
		`{"keyword": "기획서"}`, // refinement lands
	}}
	svc, _, _ := newSearchFixture(t, llm)

	// 신제품기획서 tokenises into long prefixes, but the corpus only holds the
	// spaced form, so no token set AND-matches and the refinement rung fires.
	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{UserInput: "신제품기획서"})

	require.NoError(t, err)
	assert.Equal(t, 2, llm.calls)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
}

func TestChat_SimilarityComparesTokenPhrase(t *testing.T) {
	svc, tickets, _ := newSearchFixture(t, nil)
	tickets.Add(domain.TicketHit{
		UUID: "t-0003", FileName: "배너디자인.png", FileSize: 300_000,
		CreatedAt: daysAgo(3),
		Writer:    kimEmail, Receiver: demoEmail,
		TicketNo: 1004, TicketTitle: "홍보 배너",
		TicketWriter:    domain.Person{Email: kimEmail, Nickname: "김철수"},
		TicketReceivers: []domain.Person{{Email: demoEmail, Nickname: "데모"}},
	})

	// The raw keyword alone would resemble the file name closely enough, but
	// ranking compares the joined token list, which no facet clears the
	// cutoff for. The descent then lands on the keyword condition instead.
	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{UserInput: "김철수한테 받은 배너디자인"})

	require.NoError(t, err)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0003", ans.Results[0].UUID)
	assert.NotEqual(t, successMessage(1), ans.Message)
	assert.Contains(t, ans.Message, "기준으로 검색된 결과")
	assert.Contains(t, ans.Message, "배너디자인")
}

func TestChat_CounterpartMatchesFilesBeforeTheyJoined(t *testing.T) {
	svc, _, chats := newSearchFixture(t, nil)
	// 이영희 joins the room long after the logo was shared; counterparty
	// filtering only requires sharing the room.
	chats.Join(7, memory.Participant{Email: leeEmail, JoinedAt: daysAgo(2)})

	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{UserInput: "이영희랑 나눈 파일"})

	require.NoError(t, err)
	require.Len(t, ans.Results, 3)
	uuids := []string{ans.Results[0].UUID, ans.Results[1].UUID, ans.Results[2].UUID}
	assert.Equal(t, []string{"t-0002", "c-0001", "t-0001"}, uuids)
}

func TestChat_WithoutLLMWeakParseGetsTip(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	ans, err := svc.Chat(context.Background(), demoEmail, domain.ChatRequest{UserInput: "찾아줘"})

	require.NoError(t, err)
	assert.Empty(t, ans.Results)
	assert.Equal(t, searchTip, ans.Message)
}

func TestChat_EmptyInputGetsTip(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	ans, err := svc.Chat(context.Background(), demoEmail,
		domain.ChatRequest{ConversationID: "conv-1", UserInput: "   "})

	require.NoError(t, err)
	assert.Equal(t, "conv-1", ans.ConversationID)
	assert.Equal(t, searchTip, ans.Message)
}

func TestChat_EmptyPrincipalIsUnauthenticated(t *testing.T) {
	svc, _, _ := newSearchFixture(t, nil)

	_, err := svc.Chat(context.Background(), "", domain.ChatRequest{UserInput: "기획서"})

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestChat_CapsAtTenNewestResults(t *testing.T) {
	svc, tickets, _ := newSearchFixture(t, nil)
	for i := 0; i < 12; i++ {
		tickets.Add(domain.TicketHit{
			UUID:      fmt.Sprintf("t-b-%02d", i),
			FileName:  fmt.Sprintf("주간_보고서_%02d.pdf", i),
			CreatedAt: testNow.Add(-time.Duration(i+1) * time.Hour),
			Writer:    leeEmail, Receiver: demoEmail,
			TicketNo: 2000 + int64(i), TicketTitle: "주간 보고서",
			TicketWriter:    domain.Person{Email: leeEmail, Nickname: "이영희"},
			TicketReceivers: []domain.Person{{Email: demoEmail, Nickname: "데모"}},
		})
	}

	ans, err := svc.Chat(context.Background(), demoEmail, domain.ChatRequest{UserInput: "보고서"})

	require.NoError(t, err)
	require.Len(t, ans.Results, maxResults)
	assert.Equal(t, "t-b-00", ans.Results[0].UUID)
	for i := 1; i < len(ans.Results); i++ {
		assert.False(t, ans.Results[i].CreatedAt.After(ans.Results[i-1].CreatedAt))
	}
	assert.Equal(t, successMessage(maxResults), ans.Message)
}

func TestMergeHits_DeduplicatesAndSinksUnknownTimes(t *testing.T) {
	tickets := []domain.TicketHit{
		{UUID: "a", CreatedAt: daysAgo(1)},
		{UUID: "b"}, // unknown timestamp
	}
	chats := []domain.ChatHit{
		{UUID: "a", CreatedAt: daysAgo(1)}, // duplicate id across corpora
		{UUID: "c", CreatedAt: daysAgo(3)},
	}

	merged := mergeHits(tickets, chats)

	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].FileID())
	assert.Equal(t, "c", merged[1].FileID())
	assert.Equal(t, "b", merged[2].FileID())
}

func TestDescribeRange(t *testing.T) {
	single := dayRange(day(2025, 7, 15), day(2025, 7, 15))
	assert.Equal(t, "7월 15일", describeRange(*single))

	month := dayRange(day(2025, 5, 1), day(2025, 5, 31))
	assert.Equal(t, "2025년 5월", describeRange(*month))

	span := dayRange(day(2025, 3, 1), day(2025, 4, 15))
	assert.Equal(t, "3월 1일 ~ 4월 15일", describeRange(*span))

	crossYear := dayRange(day(2024, 12, 20), day(2025, 1, 5))
	assert.Equal(t, "2024-12-20 ~ 2025-01-05", describeRange(*crossYear))
}

func TestCounterDisplayLabel(t *testing.T) {
	assert.Equal(t, "김철수님", counterDisplayLabel("김철수", kimEmail))
	assert.Equal(t, "kim.cheolsu님", counterDisplayLabel("", kimEmail))
}

func TestShouldRefineKeyword(t *testing.T) {
	// Weak tokenisation always consults the model.
	assert.True(t, shouldRefineKeyword("미영씨한테", []string{"미영"}))
	assert.True(t, shouldRefineKeyword("수진누나가", nil))
	assert.True(t, shouldRefineKeyword("짤", nil))

	// A space-less Hangul compound consults even when long tokens came out.
	assert.True(t, shouldRefineKeyword("신제품기획서",
		[]string{"신제품기획서", "신제품기", "신제품"}))

	assert.False(t, shouldRefineKeyword("", nil))
	assert.False(t, shouldRefineKeyword("기획서", []string{"기획서"}))
	assert.False(t, shouldRefineKeyword("디자인 시안 초안", []string{"디자인", "시안", "초안"}))
	assert.False(t, shouldRefineKeyword("abcdef", []string{"abcdef"}))
}
