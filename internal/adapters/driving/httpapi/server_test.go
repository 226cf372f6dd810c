package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deskfind/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/services"
	"github.com/custodia-labs/deskfind/internal/korean"
)

const (
	testToken = "test-token"
	demoEmail = "demo@example.com"
	kimEmail  = "kim.cheolsu@example.com"
)

var pdfContent = []byte("%PDF-1.4 fake")

// newTestServer wires the API over in-memory stores: one ticket file the demo
// user received, one only its writer can see.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	members := memory.NewMemberStore(
		domain.Member{Email: demoEmail, Nickname: "데모", Department: domain.DeptDevelopment},
		domain.Member{Email: kimEmail, Nickname: "김철수", Department: domain.DeptDesign},
	)

	tickets := memory.NewTicketFileStore(members,
		domain.TicketHit{
			UUID: "t-0001", FileName: "신제품_기획서_v2.pdf", FileSize: int64(len(pdfContent)),
			CreatedAt: time.Now().AddDate(0, 0, -3),
			Writer:    kimEmail, Receiver: demoEmail,
			TicketNo: 1001, TicketTitle: "신제품 기획서 검토 요청",
			TicketWriter:    domain.Person{Email: kimEmail, Nickname: "김철수"},
			TicketReceivers: []domain.Person{{Email: demoEmail, Nickname: "데모"}},
		},
		domain.TicketHit{
			UUID: "t-9999", FileName: "기밀_기획서.pdf", FileSize: 10,
			CreatedAt: time.Now().AddDate(0, 0, -1),
			Writer:    kimEmail,
			TicketNo:  1002, TicketTitle: "내부 기획서",
			TicketWriter: domain.Person{Email: kimEmail, Nickname: "김철수"},
		},
	)
	chats := memory.NewChatFileStore(members)

	blobs := memory.NewBlobStore()
	blobs.Put("t-0001", "신제품_기획서_v2.pdf", "application/pdf", pdfContent)

	cache := services.NewNicknameCache(members, 0)
	parser := services.NewQueryParser(members, cache)
	search := services.NewSearchService(tickets, chats, members, nil, parser, korean.NewTokenizer(nil))
	files := services.NewFileAccessService(tickets, chats, blobs)
	auth := NewStaticTokenAuthenticator(map[string]string{testToken: demoEmail})

	return NewServer(search, files, auth)
}

func doRequest(t *testing.T, srv *Server, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestChat_ReturnsAccessibleResults(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/ai/file/chat", testToken,
		`{"conversationId": "conv-1", "userInput": "기획서"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var ans domain.Answer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ans))
	assert.Equal(t, "conv-1", ans.ConversationID)
	require.Len(t, ans.Results, 1)
	assert.Equal(t, "t-0001", ans.Results[0].UUID)
	assert.Contains(t, ans.Message, "검색 결과 1건")
}

func TestChat_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/ai/file/chat", "", `{"userInput": "기획서"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/ai/file/chat", "wrong-token", `{"userInput": "기획서"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChat_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/ai/file/chat", testToken, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_StreamsWithAttachmentDisposition(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/ai/file/download/t-0001", testToken, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, "attachment"), disposition)
	assert.Contains(t, disposition, "filename")
	assert.Equal(t, pdfContent, rec.Body.Bytes())
}

func TestView_StreamsInline(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/ai/file/view/t-0001", testToken, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "inline"))
}

func TestDownload_ForbiddenForNonParticipant(t *testing.T) {
	srv := newTestServer(t)

	// The file exists, but the demo user is neither writer nor receiver.
	rec := doRequest(t, srv, http.MethodGet, "/api/ai/file/download/t-9999", testToken, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownload_UnknownFile(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/ai/file/download/no-such-file", testToken, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/ai/file/download/t-0001", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
