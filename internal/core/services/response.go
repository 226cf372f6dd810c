package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/deskfind/internal/core/domain"
)

// maxResults caps the final answer; the client renders at most ten rows.
const maxResults = 10

const searchTip = "팁: 기간, 부서, 이름, 업무내용을 적어주세요. 예) 1월, 디자인팀, 김철수, 신제품 기획서"

func successMessage(n int) string {
	return fmt.Sprintf("검색 결과 %d건입니다. 우측 목록에서 다운로드할 파일을 선택하세요.", n)
}

func notFoundMessage() string {
	return "원하시는 조건에 모두 일치하는 파일을 찾지 못했습니다.\n(" + searchTip + ")"
}

func matchedOnlyMessage(matched string) string {
	return fmt.Sprintf("요청하신 조건에 모두 일치하는 파일을 찾지 못해, %s 기준으로 검색된 결과를 보여드릴게요.\n(%s)", matched, searchTip)
}

// mergeHits combines both corpora, drops duplicate file ids, sorts newest
// first (unknown timestamps sink to the bottom, ties break on file id) and
// truncates to the answer cap.
func mergeHits(tickets []domain.TicketHit, chats []domain.ChatHit) []domain.Hit {
	merged := make([]domain.Hit, 0, len(tickets)+len(chats))
	seen := make(map[string]struct{}, len(tickets)+len(chats))
	add := func(h domain.Hit) {
		if _, ok := seen[h.FileID()]; ok {
			return
		}
		seen[h.FileID()] = struct{}{}
		merged = append(merged, h)
	}
	for _, h := range tickets {
		add(h)
	}
	for _, h := range chats {
		add(h)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		ci, cj := merged[i].Created(), merged[j].Created()
		switch {
		case ci.IsZero() && cj.IsZero():
			return merged[i].FileID() < merged[j].FileID()
		case ci.IsZero():
			return false
		case cj.IsZero():
			return true
		case !ci.Equal(cj):
			return ci.After(cj)
		}
		return merged[i].FileID() < merged[j].FileID()
	})

	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}

// describeConds renders the kept condition subset the way a person would name
// it, for the partial-match message. counterLabel is the pre-resolved display
// name of the counterparty.
func describeConds(set domain.CondSet, q domain.ParsedQuery, tokens []string, counterLabel string) string {
	var parts []string
	if set.Date && q.Range != nil {
		parts = append(parts, describeRange(*q.Range))
	}
	if set.Dept && q.Department != "" {
		parts = append(parts, q.Department.KoreanName())
	}
	if set.Counter && counterLabel != "" {
		parts = append(parts, counterLabel)
	}
	if set.Keyword && len(tokens) > 0 {
		top := tokens
		if len(top) > 3 {
			top = top[:3]
		}
		quoted := make([]string, len(top))
		for i, t := range top {
			quoted[i] = "'" + t + "'"
		}
		parts = append(parts, "내용 "+strings.Join(quoted, ", "))
	}
	return strings.Join(parts, ", ")
}

// describeRange renders a date window compactly: a single day as "M월 D일",
// a whole calendar month as "YYYY년 M월", a same-year span day-to-day, and
// anything crossing years in ISO form.
func describeRange(r domain.DateRange) string {
	from, to := r.From, r.To
	sameDay := from.Year() == to.Year() && from.Month() == to.Month() && from.Day() == to.Day()
	if sameDay {
		return fmt.Sprintf("%d월 %d일", int(from.Month()), from.Day())
	}
	if from.Year() == to.Year() && from.Month() == to.Month() &&
		from.Day() == 1 && to.AddDate(0, 0, 1).Day() == 1 {
		return fmt.Sprintf("%d년 %d월", from.Year(), int(from.Month()))
	}
	if from.Year() == to.Year() {
		return fmt.Sprintf("%d월 %d일 ~ %d월 %d일",
			int(from.Month()), from.Day(), int(to.Month()), to.Day())
	}
	return from.Format("2006-01-02") + " ~ " + to.Format("2006-01-02")
}

// counterDisplayLabel renders the counterparty for messages: nickname with an
// honorific when known, otherwise the email local part.
func counterDisplayLabel(nickname, email string) string {
	if nickname != "" {
		return nickname + "님"
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at] + "님"
	}
	return email
}
