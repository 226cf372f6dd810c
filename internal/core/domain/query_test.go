package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresentConds(t *testing.T) {
	q := ParsedQuery{
		Range:        &DateRange{},
		CounterEmail: "kim.cheolsu@example.com",
	}

	set := PresentConds(q, nil)

	assert.Equal(t, CondSet{Date: true, Counter: true}, set)
	assert.Equal(t, 2, set.Size())

	set = PresentConds(q, []string{"기획서"})
	assert.True(t, set.Keyword)
	assert.Equal(t, 3, set.Size())
}

func TestCondSet_Weight(t *testing.T) {
	keyword := CondSet{Keyword: true}
	everythingElse := CondSet{Date: true, Dept: true, Counter: true}

	// A lone keyword outweighs all structured conditions combined.
	assert.Greater(t, keyword.Weight(), everythingElse.Weight())
	assert.Greater(t, CondSet{Counter: true}.Weight(), CondSet{Dept: true, Date: true}.Weight())
	assert.Greater(t, CondSet{Dept: true}.Weight(), CondSet{Date: true}.Weight())
}

func TestCondSet_SubsetsOfSize(t *testing.T) {
	full := CondSet{Date: true, Dept: true, Counter: true, Keyword: true}

	assert.Len(t, full.SubsetsOfSize(3), 4)
	assert.Len(t, full.SubsetsOfSize(2), 6)
	assert.Len(t, full.SubsetsOfSize(1), 4)

	for _, sub := range full.SubsetsOfSize(2) {
		assert.Equal(t, 2, sub.Size())
	}

	pair := CondSet{Date: true, Keyword: true}
	singles := pair.SubsetsOfSize(1)
	assert.Equal(t, []CondSet{{Date: true}, {Keyword: true}}, singles)
}

func TestMatchesAllTokens(t *testing.T) {
	h := TicketHit{
		FileName:    "신제품_기획서_v2.pdf",
		TicketTitle: "신제품 기획서 검토 요청",
	}

	assert.True(t, MatchesAllTokens(h, []string{"신제품", "기획서"}))
	assert.True(t, MatchesAllTokens(h, []string{"V2"})) // case-insensitive
	assert.False(t, MatchesAllTokens(h, []string{"신제품", "보고서"}))
	assert.True(t, MatchesAllTokens(h, nil))
}
