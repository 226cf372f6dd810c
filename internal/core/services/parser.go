package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
	"github.com/custodia-labs/deskfind/internal/korean"
	"github.com/custodia-labs/deskfind/internal/logger"
)

// QueryParser extracts the structured search tuple from free-form Korean
// text. It is deterministic and rule-based; the LLM only supplements it
// through MergeLLM.
type QueryParser struct {
	members   driven.MemberStore
	nicknames *NicknameCache
	now       func() time.Time
}

// NewQueryParser creates a parser over the member directory.
func NewQueryParser(members driven.MemberStore, nicknames *NicknameCache) *QueryParser {
	return &QueryParser{members: members, nicknames: nicknames, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (p *QueryParser) SetClock(now func() time.Time) {
	p.now = now
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	exchangedPattern = regexp.MustCompile(`주고\s*받은|건네\s*받은`)
	sentPattern      = regexp.MustCompile(`보낸|전송한|전달한`)
	receivedPattern  = regexp.MustCompile(`받은|수신한`)

	deptEnglishPattern = regexp.MustCompile(`(?i)\b(DESIGN|DEVELOPMENT|SALES|HR|FINANCE|PLANNING)\b`)

	fuzzyDatePattern = regexp.MustCompile(`쯤|정도`)
)

// deptKorean maps the Korean team stem to its department. A 팀/부서 suffix is
// required so "디자인 시안" does not turn into a department filter.
var deptKorean = []struct {
	stem string
	dept domain.Department
}{
	{"디자인", domain.DeptDesign},
	{"개발", domain.DeptDevelopment},
	{"영업", domain.DeptSales},
	{"인사", domain.DeptHR},
	{"재무", domain.DeptFinance},
	{"기획", domain.DeptPlanning},
}

// Parse runs the rule-based extraction pass over one user utterance.
func (p *QueryParser) Parse(ctx context.Context, input string) domain.ParsedQuery {
	var q domain.ParsedQuery
	work := korean.CollapseSpaces(input)
	if work == "" {
		return q
	}

	q.Range, work = p.parseDateRange(work)
	work = p.parseRoleFlags(work, &q)
	work = p.parseCounterpart(ctx, work, &q)
	work = p.parseDepartment(work, &q)

	q.Keyword = korean.CollapseSpaces(korean.StripNoise(work))
	logger.Debug("Parsed query: range=%v counter=%q dept=%q keyword=%q sender=%v receiver=%v",
		q.Range != nil, q.CounterEmail, q.Department, q.Keyword, q.SenderOnly, q.ReceiverOnly)
	return q
}

// NeedsLLM reports whether the rule-based result is too weak to search with
// and the LLM should be consulted before the first retrieval attempt. A
// single-rune keyword remnant cannot produce tokens and counts as absent.
func (p *QueryParser) NeedsLLM(input string, q domain.ParsedQuery) bool {
	if q.Range == nil && q.Department == "" && q.CounterEmail == "" &&
		utf8.RuneCountInString(q.Keyword) < 2 {
		return true
	}
	if q.Range == nil {
		base := korean.CollapseSpaces(input)
		if fuzzyDatePattern.MatchString(base) ||
			strings.Contains(base, "한달전") || strings.Contains(base, "한달 전") ||
			strings.Contains(base, "두달전") || strings.Contains(base, "두달 전") {
			return true
		}
	}
	return false
}

// --- role flags -------------------------------------------------------------

// parseRoleFlags detects direction markers. Exchange words ("주고받은") are
// stripped first: they mean both directions, so neither flag is set.
func (p *QueryParser) parseRoleFlags(work string, q *domain.ParsedQuery) string {
	work = exchangedPattern.ReplaceAllString(work, " ")
	if sentPattern.MatchString(work) {
		q.SenderOnly = true
		work = sentPattern.ReplaceAllString(work, " ")
	}
	if receivedPattern.MatchString(work) {
		q.ReceiverOnly = true
		work = receivedPattern.ReplaceAllString(work, " ")
	}
	return korean.CollapseSpaces(work)
}

// --- counterpart ------------------------------------------------------------

func (p *QueryParser) parseCounterpart(ctx context.Context, work string, q *domain.ParsedQuery) string {
	if email := emailPattern.FindString(work); email != "" {
		q.CounterEmail = email
		return korean.CollapseSpaces(strings.Replace(work, email, " ", 1))
	}

	for _, nick := range p.nicknames.Active(ctx) {
		if utf8.RuneCountInString(nick) < 2 {
			continue
		}
		if !strings.Contains(work, nick) {
			continue
		}
		member, err := p.members.FindByNickname(ctx, nick)
		if err != nil {
			logger.Warn("Nickname %q matched but lookup failed: %v", nick, err)
			continue
		}
		q.CounterEmail = member.Email
		removal := regexp.MustCompile(regexp.QuoteMeta(nick) + `(님|씨)?(이랑|랑|과|와|한테|에게)?`)
		return korean.CollapseSpaces(removal.ReplaceAllString(work, " "))
	}
	return work
}

// --- department -------------------------------------------------------------

func (p *QueryParser) parseDepartment(work string, q *domain.ParsedQuery) string {
	if m := deptEnglishPattern.FindString(work); m != "" {
		if dept, ok := domain.ParseDepartment(m); ok {
			q.Department = dept
			return korean.CollapseSpaces(strings.Replace(work, m, " ", 1))
		}
	}
	for _, entry := range deptKorean {
		pattern := regexp.MustCompile(entry.stem + `\s*(팀|부서)(이랑|랑|과|와)?`)
		if pattern.MatchString(work) {
			q.Department = entry.dept
			return korean.CollapseSpaces(pattern.ReplaceAllString(work, " "))
		}
	}
	return work
}

// --- dates ------------------------------------------------------------------

var (
	isoDatePattern    = regexp.MustCompile(`(\d{4})[-./](\d{1,2})[-./](\d{1,2})`)
	monthSpanPattern  = regexp.MustCompile(`(\d{1,2})월(?:부터|에서)?\s*(?:~|부터)?\s*.*?(\d{1,2})월(?:까지)?`)
	monthOnlyPattern  = regexp.MustCompile(`(\d{1,2})월`)
	numericAgoPattern = regexp.MustCompile(`(\d{1,3})\s*(일|주|달|개월|년)\s*(전|후|남음)`)
)

// today returns the current wall-clock date truncated to midnight local time.
func (p *QueryParser) today() time.Time {
	n := p.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.Local)
}

// parseDateRange recognises the date grammar and returns the range plus the
// input with the recognised tokens removed. Recognition order is fixed:
// explicit ISO dates win over month expressions, which win over literals,
// which win over relative offsets.
func (p *QueryParser) parseDateRange(input string) (*domain.DateRange, string) {
	work := fuzzyDatePattern.ReplaceAllString(input, "")
	today := p.today()

	// 1. Explicit ISO-style dates: one is a single day, two form a span.
	if matches := isoDatePattern.FindAllStringSubmatch(work, 2); len(matches) > 0 {
		first, ok1 := dateOf(matches[0])
		if ok1 {
			from, to := first, first
			if len(matches) == 2 {
				if second, ok2 := dateOf(matches[1]); ok2 {
					to = second
				}
			}
			if to.Before(from) {
				from, to = to, from
			}
			return dayRange(from, to), korean.CollapseSpaces(isoDatePattern.ReplaceAllString(work, " "))
		}
	}

	// 2. A month span like "3월부터 5월까지". The year is whichever placement
	// contains today, else the closest one in the past.
	if m := monthSpanPattern.FindStringSubmatch(work); m != nil {
		m1, _ := strconv.Atoi(m[1])
		m2, _ := strconv.Atoi(m[2])
		if validMonth(m1) && validMonth(m2) {
			r := p.placeMonthSpan(m1, m2, today)
			return r, korean.CollapseSpaces(monthSpanPattern.ReplaceAllString(work, " "))
		}
	}

	// 3. A bare month. Future months without 내년 mean the previous year.
	if m := monthOnlyPattern.FindStringSubmatch(work); m != nil {
		month, _ := strconv.Atoi(m[1])
		if validMonth(month) {
			year := today.Year()
			switch {
			case strings.Contains(work, "작년"):
				year--
			case strings.Contains(work, "내년") || strings.Contains(work, "다음해") || strings.Contains(work, "다음 해"):
				year++
			case month > int(today.Month()):
				year--
			}
			from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
			to := lastDayOfMonth(from)
			rest := monthOnlyPattern.ReplaceAllString(work, " ")
			rest = strings.NewReplacer("작년", " ", "내년", " ", "다음해", " ", "다음 해", " ").Replace(rest)
			return dayRange(from, to), korean.CollapseSpaces(rest)
		}
	}

	// 4. Date word literals.
	if r, rest, ok := p.parseDateLiteral(work, today); ok {
		return r, rest
	}

	// 5. Numeric offsets: "3일 전", "2주 후", "6개월 전".
	if m := numericAgoPattern.FindStringSubmatch(work); m != nil {
		n, _ := strconv.Atoi(m[1])
		r := p.offsetRange(today, n, m[2], m[3])
		if r != nil {
			return r, korean.CollapseSpaces(numericAgoPattern.ReplaceAllString(work, " "))
		}
	}

	// 6. Word quantities relative to today.
	if r, rest, ok := p.parseWordQuantity(work, today); ok {
		return r, rest
	}

	return nil, korean.CollapseSpaces(work)
}

// placeMonthSpan chooses the year placement of a month span: the candidate
// interval containing today if one exists, otherwise the candidate whose
// distance to today is smallest.
func (p *QueryParser) placeMonthSpan(m1, m2 int, today time.Time) *domain.DateRange {
	var best *domain.DateRange
	var bestDist time.Duration
	for startYear := today.Year() - 1; startYear <= today.Year()+1; startYear++ {
		endYear := startYear
		if m2 < m1 {
			endYear++
		}
		from := time.Date(startYear, time.Month(m1), 1, 0, 0, 0, 0, time.Local)
		to := lastDayOfMonth(time.Date(endYear, time.Month(m2), 1, 0, 0, 0, 0, time.Local))
		if !today.Before(from) && !today.After(to) {
			return dayRange(from, to)
		}
		var dist time.Duration
		if today.Before(from) {
			dist = from.Sub(today)
		} else {
			dist = today.Sub(to)
		}
		if best == nil || dist < bestDist {
			best = dayRange(from, to)
			bestDist = dist
		}
	}
	return best
}

// dateLiterals are fixed expressions resolved against today. Ordered so that
// longer literals ("그저께") are tried before their prefixes.
var dateLiterals = []string{
	"그저께", "그제", "어제", "오늘",
	"이번주", "지난주", "저번주",
	"이번달", "지난달", "저번달",
	"재작년", "작년", "올해",
}

func (p *QueryParser) parseDateLiteral(work string, today time.Time) (*domain.DateRange, string, bool) {
	for _, lit := range dateLiterals {
		if !strings.Contains(work, lit) {
			continue
		}
		var from, to time.Time
		switch lit {
		case "오늘":
			from, to = today, today
		case "어제":
			from = today.AddDate(0, 0, -1)
			to = from
		case "그제", "그저께":
			from = today.AddDate(0, 0, -2)
			to = from
		case "이번주":
			from = mondayOf(today)
			to = from.AddDate(0, 0, 6)
		case "지난주", "저번주":
			from = mondayOf(today).AddDate(0, 0, -7)
			to = from.AddDate(0, 0, 6)
		case "이번달":
			from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
			to = lastDayOfMonth(from)
		case "지난달", "저번달":
			from = addMonthsClamped(time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local), -1)
			to = lastDayOfMonth(from)
		case "올해":
			from = time.Date(today.Year(), 1, 1, 0, 0, 0, 0, time.Local)
			to = time.Date(today.Year(), 12, 31, 0, 0, 0, 0, time.Local)
		case "작년":
			from = time.Date(today.Year()-1, 1, 1, 0, 0, 0, 0, time.Local)
			to = time.Date(today.Year()-1, 12, 31, 0, 0, 0, 0, time.Local)
		case "재작년":
			from = time.Date(today.Year()-2, 1, 1, 0, 0, 0, 0, time.Local)
			to = time.Date(today.Year()-2, 12, 31, 0, 0, 0, 0, time.Local)
		}
		rest := korean.CollapseSpaces(strings.Replace(work, lit, " ", 1))
		return dayRange(from, to), rest, true
	}
	return nil, work, false
}

// offsetRange resolves "N일/주/달/년 전|후|남음". A day offset names a single
// day; coarser units span from that point to today (or today to that point).
func (p *QueryParser) offsetRange(today time.Time, n int, unit, direction string) *domain.DateRange {
	past := direction == "전"
	var point time.Time
	switch unit {
	case "일":
		if past {
			point = today.AddDate(0, 0, -n)
		} else {
			point = today.AddDate(0, 0, n)
		}
		return dayRange(point, point)
	case "주":
		if past {
			point = today.AddDate(0, 0, -7*n)
		} else {
			point = today.AddDate(0, 0, 7*n)
		}
	case "달", "개월":
		if past {
			point = addMonthsClamped(today, -n)
		} else {
			point = addMonthsClamped(today, n)
		}
	case "년":
		if past {
			point = addYearsClamped(today, -n)
		} else {
			point = addYearsClamped(today, n)
		}
	default:
		return nil
	}
	if past {
		return dayRange(point, today)
	}
	return dayRange(today, point)
}

// wordQuantities are spelled-out durations measured back from today.
type wordQuantity struct {
	word string
	days int  // days back when >= 0
	mons int  // months back when days < 0
}

var wordQuantities = []wordQuantity{
	{word: "일주일", days: 6},
	{word: "1주일", days: 6},
	{word: "이주일", days: 13},
	{word: "2주일", days: 13},
	{word: "사흘", days: 2},
	{word: "나흘", days: 3},
	{word: "한달전", days: -1, mons: 1},
	{word: "한달 전", days: -1, mons: 1},
	{word: "두달전", days: -1, mons: 2},
	{word: "두달 전", days: -1, mons: 2},
}

func (p *QueryParser) parseWordQuantity(work string, today time.Time) (*domain.DateRange, string, bool) {
	for _, wq := range wordQuantities {
		if !strings.Contains(work, wq.word) {
			continue
		}
		var from time.Time
		if wq.days >= 0 {
			from = today.AddDate(0, 0, -wq.days)
		} else {
			from = addMonthsClamped(today, -wq.mons)
		}
		rest := korean.CollapseSpaces(strings.Replace(work, wq.word, " ", 1))
		return dayRange(from, today), rest, true
	}
	return nil, work, false
}

// --- date helpers -----------------------------------------------------------

func dateOf(m []string) (time.Time, bool) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if !validMonth(month) || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	// Reject normalised overflow like Feb 30.
	if int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func validMonth(m int) bool { return m >= 1 && m <= 12 }

// dayRange widens calendar days into an inclusive timestamp window.
func dayRange(from, to time.Time) *domain.DateRange {
	return &domain.DateRange{
		From: time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local),
		To:   time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, time.Local),
	}
}

// mondayOf returns the Monday of t's ISO week.
func mondayOf(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, 1-wd)
}

// addMonthsClamped shifts by whole months, clamping the day-of-month to the
// target month's length instead of letting Jan 31 + 1 month roll into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, months, 0)
	day := t.Day()
	if last := lastDayOfMonth(anchor).Day(); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, 0, 0, 0, 0, time.Local)
}

// addYearsClamped shifts by whole years, clamping Feb 29 to Feb 28.
func addYearsClamped(t time.Time, years int) time.Time {
	return addMonthsClamped(t, years*12)
}

func lastDayOfMonth(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
	return first.AddDate(0, 1, -1)
}

// --- LLM supplementation ----------------------------------------------------

// llmParse is the JSON shape the model is asked to emit.
type llmParse struct {
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Counterpart  string `json:"counterpart"`
	Department   string `json:"department"`
	Keyword      string `json:"keyword"`
	SenderOnly   *bool  `json:"senderOnly"`
	ReceiverOnly *bool  `json:"receiverOnly"`
}

// MergeLLM folds a model completion into the rule-based result. The model
// never overrides a condition the rules already extracted, except dates
// (when both endpoints parse) and a strictly longer keyword. Any malformed
// field is skipped; a malformed document returns the query unchanged.
func (p *QueryParser) MergeLLM(ctx context.Context, q domain.ParsedQuery, raw string) domain.ParsedQuery {
	var parsed llmParse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err != nil {
		logger.Warn("LLM parse response is not valid JSON: %v", err)
		return q
	}

	if from, err1 := time.ParseInLocation("2006-01-02", cleanLLMString(parsed.StartDate), time.Local); err1 == nil {
		if to, err2 := time.ParseInLocation("2006-01-02", cleanLLMString(parsed.EndDate), time.Local); err2 == nil {
			q.Range = dayRange(from, to)
		}
	}

	if counter := cleanLLMString(parsed.Counterpart); counter != "" && q.CounterEmail == "" {
		if emailPattern.MatchString(counter) {
			q.CounterEmail = counter
		} else if member, err := p.members.FindByNickname(ctx, counter); err == nil {
			q.CounterEmail = member.Email
		}
	}

	if deptStr := cleanLLMString(parsed.Department); deptStr != "" && q.Department == "" {
		if dept, ok := domain.ParseDepartment(deptStr); ok {
			q.Department = dept
		}
	}

	if kw := cleanLLMString(parsed.Keyword); kw != "" {
		if q.Keyword == "" || utf8.RuneCountInString(kw) > utf8.RuneCountInString(q.Keyword) {
			q.Keyword = kw
		}
	}

	if parsed.SenderOnly != nil {
		q.SenderOnly = *parsed.SenderOnly
	}
	if parsed.ReceiverOnly != nil {
		q.ReceiverOnly = *parsed.ReceiverOnly
	}
	return q
}

// ExtractLLMKeyword pulls the refined keyword out of a keyword-refinement
// completion. Accepts either a JSON object with a "keyword" field or a bare
// string answer.
func ExtractLLMKeyword(raw string) string {
	body := stripCodeFence(raw)
	var parsed struct {
		Keyword string `json:"keyword"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		return cleanLLMString(parsed.Keyword)
	}
	return cleanLLMString(strings.Trim(body, `"`))
}

// stripCodeFence removes a surrounding markdown fence from a completion.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// cleanLLMString normalises model output fields; models frequently emit the
// literal string "null" for absent values.
func cleanLLMString(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}
