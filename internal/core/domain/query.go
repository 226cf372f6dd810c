package domain

import "time"

// DateRange is an inclusive timestamp window.
// From is the start of its day, To the last instant of its day.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParsedQuery is the structured tuple extracted from free-form user text.
// Zero values mean "condition absent".
type ParsedQuery struct {
	// Range is the requested date window, nil when no date was recognised.
	Range *DateRange

	// CounterEmail is the resolved counterparty principal.
	CounterEmail string

	// Department filters by team membership.
	Department Department

	// Keyword is the residual free text after all structured parts were
	// stripped. Tokenisation happens later.
	Keyword string

	// SenderOnly keeps only files the principal uploaded ("보낸").
	SenderOnly bool

	// ReceiverOnly keeps only files the principal received ("받은").
	ReceiverOnly bool
}

// Cond identifies one recognised search condition.
type Cond uint8

// Conditions, in descending subset-score priority.
const (
	CondKeyword Cond = iota
	CondCounter
	CondDept
	CondDate
)

// String returns a short identifier for logging.
func (c Cond) String() string {
	switch c {
	case CondKeyword:
		return "KEYWORD"
	case CondCounter:
		return "COUNTER"
	case CondDept:
		return "DEPT"
	case CondDate:
		return "DATE"
	}
	return "UNKNOWN"
}

// CondSet is a subset of the four search conditions.
type CondSet struct {
	Date    bool
	Dept    bool
	Counter bool
	Keyword bool
}

// PresentConds returns the set of conditions actually present in the query,
// given its tokenised keyword.
func PresentConds(q ParsedQuery, tokens []string) CondSet {
	return CondSet{
		Date:    q.Range != nil,
		Dept:    q.Department != "",
		Counter: q.CounterEmail != "",
		Keyword: len(tokens) > 0,
	}
}

// Size returns the number of conditions in the set.
func (s CondSet) Size() int {
	n := 0
	for _, b := range []bool{s.Date, s.Dept, s.Counter, s.Keyword} {
		if b {
			n++
		}
	}
	return n
}

// Weight ranks subsets by which conditions they preserve:
// KEYWORD dominates COUNTER dominates DEPT dominates DATE.
func (s CondSet) Weight() int {
	w := 0
	if s.Keyword {
		w += 1000
	}
	if s.Counter {
		w += 100
	}
	if s.Dept {
		w += 10
	}
	if s.Date {
		w++
	}
	return w
}

// Conds lists the members of the set in declaration order.
func (s CondSet) Conds() []Cond {
	var out []Cond
	if s.Date {
		out = append(out, CondDate)
	}
	if s.Dept {
		out = append(out, CondDept)
	}
	if s.Counter {
		out = append(out, CondCounter)
	}
	if s.Keyword {
		out = append(out, CondKeyword)
	}
	return out
}

// SubsetsOfSize enumerates every subset of exactly k conditions.
func (s CondSet) SubsetsOfSize(k int) []CondSet {
	items := s.Conds()
	var out []CondSet
	var backtrack func(idx int, cur []Cond)
	backtrack = func(idx int, cur []Cond) {
		if len(cur) == k {
			out = append(out, fromConds(cur))
			return
		}
		if idx >= len(items) {
			return
		}
		backtrack(idx+1, append(cur, items[idx]))
		backtrack(idx+1, cur)
	}
	backtrack(0, nil)
	return out
}

func fromConds(conds []Cond) CondSet {
	var s CondSet
	for _, c := range conds {
		switch c {
		case CondDate:
			s.Date = true
		case CondDept:
			s.Dept = true
		case CondCounter:
			s.Counter = true
		case CondKeyword:
			s.Keyword = true
		}
	}
	return s
}
