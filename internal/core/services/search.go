package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
	"github.com/custodia-labs/deskfind/internal/korean"
	"github.com/custodia-labs/deskfind/internal/logger"
)

const (
	// pageSize is the per-store page for seed retrieval.
	pageSize = 30

	// similarityFetchSize widens the page when ranking happens in memory.
	similarityFetchSize = 100

	// similarityCutoff is the minimum facet similarity to keep a candidate.
	similarityCutoff = 0.7
)

// SearchService answers natural-language file queries. It degrades in a
// fixed ladder: strict AND over everything parsed, an LLM re-parse of the
// utterance, an LLM keyword refinement, then condition subsets from largest
// to smallest, and finally an honest "not found".
type SearchService struct {
	tickets   driven.TicketFileStore
	chats     driven.ChatFileStore
	members   driven.MemberStore
	llm       driven.LLMService
	parser    *QueryParser
	tokenizer *korean.Tokenizer
	now       func() time.Time
}

// NewSearchService wires the search pipeline. llm may be nil, in which case
// every LLM rung of the ladder is skipped.
func NewSearchService(
	tickets driven.TicketFileStore,
	chats driven.ChatFileStore,
	members driven.MemberStore,
	llm driven.LLMService,
	parser *QueryParser,
	tokenizer *korean.Tokenizer,
) *SearchService {
	return &SearchService{
		tickets:   tickets,
		chats:     chats,
		members:   members,
		llm:       llm,
		parser:    parser,
		tokenizer: tokenizer,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *SearchService) SetClock(now func() time.Time) {
	s.now = now
}

// searchResult is one retrieval attempt: the merged, capped hit list plus the
// pre-cap total used for subset scoring.
type searchResult struct {
	hits  []domain.Hit
	total int
}

// Chat runs the full pipeline for one user turn.
func (s *SearchService) Chat(ctx context.Context, principal string, req domain.ChatRequest) (*domain.Answer, error) {
	if principal == "" {
		return nil, domain.ErrUnauthenticated
	}
	input := strings.TrimSpace(req.UserInput)
	answer := &domain.Answer{ConversationID: req.ConversationID}
	if input == "" {
		answer.Message = searchTip
		return answer, nil
	}

	q := s.parser.Parse(ctx, input)

	// A weak rule-based parse consults the model before the first attempt.
	llmParsed := false
	if s.llm != nil && s.parser.NeedsLLM(input, q) {
		q = s.reparseWithLLM(ctx, input, q)
		llmParsed = true
	}

	tokens := s.tokenizer.Tokens(q.Keyword)
	full := domain.PresentConds(q, tokens)
	if full.Size() == 0 {
		answer.Message = searchTip
		return answer, nil
	}

	// Rung 1: strict AND over every parsed condition.
	res, err := s.runSearch(ctx, principal, q, tokens, full)
	if err != nil {
		return nil, err
	}
	if res.total > 0 {
		return s.successAnswer(answer, res), nil
	}

	// Rung 2: one LLM re-parse of the raw utterance, if not already done.
	if s.llm != nil && !llmParsed {
		q2 := s.reparseWithLLM(ctx, input, q)
		tokens2 := s.tokenizer.Tokens(q2.Keyword)
		full2 := domain.PresentConds(q2, tokens2)
		if full2.Size() > 0 {
			res, err = s.runSearch(ctx, principal, q2, tokens2, full2)
			if err != nil {
				return nil, err
			}
			if res.total > 0 {
				return s.successAnswer(answer, res), nil
			}
			q, tokens, full = q2, tokens2, full2
		}
	}

	// Rung 3: let the model boil the keyword down to its core noun.
	if s.llm != nil && shouldRefineKeyword(q.Keyword, tokens) {
		if refined := s.refineKeyword(ctx, q.Keyword); refined != "" && refined != q.Keyword {
			q.Keyword = refined
			tokens = s.tokenizer.Tokens(refined)
			full = domain.PresentConds(q, tokens)
			if full.Size() > 0 {
				res, err = s.runSearch(ctx, principal, q, tokens, full)
				if err != nil {
					return nil, err
				}
				if res.total > 0 {
					return s.successAnswer(answer, res), nil
				}
			}
		}
	}

	// Rung 4: overlap descent over condition subsets, largest first. Among
	// subsets of equal size the preserved conditions dominate the hit count.
	for k := full.Size() - 1; k >= 1; k-- {
		var bestSet domain.CondSet
		var best *searchResult
		bestScore := -1
		for _, sub := range full.SubsetsOfSize(k) {
			r, err := s.runSearch(ctx, principal, q, tokens, sub)
			if err != nil {
				return nil, err
			}
			if r.total == 0 {
				continue
			}
			score := sub.Weight()*1000 + min(r.total, 999)
			if score > bestScore {
				bestScore = score
				best = r
				bestSet = sub
			}
		}
		if best != nil {
			label := s.counterLabel(ctx, q.CounterEmail)
			answer.Message = matchedOnlyMessage(describeConds(bestSet, q, tokens, label))
			answer.Results = resultsOf(best.hits)
			logger.Info("Partial match with %d/%d conditions: %d hits", k, full.Size(), best.total)
			return answer, nil
		}
	}

	answer.Message = notFoundMessage()
	return answer, nil
}

func (s *SearchService) successAnswer(answer *domain.Answer, res *searchResult) *domain.Answer {
	answer.Results = resultsOf(res.hits)
	answer.Message = successMessage(len(answer.Results))
	return answer
}

func resultsOf(hits []domain.Hit) []domain.FileResult {
	out := make([]domain.FileResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, domain.ResultOf(h))
	}
	return out
}

// reparseWithLLM asks the model to re-extract the tuple and merges the result.
// Model failures leave the rule-based query untouched.
func (s *SearchService) reparseWithLLM(ctx context.Context, input string, q domain.ParsedQuery) domain.ParsedQuery {
	raw, err := s.llm.GenerateJSON(ctx, fileSearchParsePrompt(input, s.now()))
	if err != nil {
		logger.Warn("LLM re-parse unavailable: %v", err)
		return q
	}
	return s.parser.MergeLLM(ctx, q, raw)
}

func (s *SearchService) refineKeyword(ctx context.Context, keyword string) string {
	raw, err := s.llm.GenerateJSON(ctx, keywordRefinePrompt(keyword))
	if err != nil {
		logger.Warn("LLM keyword refinement unavailable: %v", err)
		return ""
	}
	refined := ExtractLLMKeyword(raw)
	if refined != "" {
		logger.Debug("Keyword refined: %q -> %q", keyword, refined)
	}
	return refined
}

// shouldRefineKeyword gates the LLM refinement rung. The model is consulted
// when tokenisation produced nothing longer than two runes, or when the
// keyword is a space-less Hangul compound the tokenizer likely split badly.
// Simple keywords stay rule-only.
func shouldRefineKeyword(keyword string, tokens []string) bool {
	cleaned := korean.CollapseSpaces(keyword)
	if cleaned == "" {
		return false
	}
	weak := true
	for _, t := range tokens {
		if utf8.RuneCountInString(t) > 2 {
			weak = false
			break
		}
	}
	if weak {
		return true
	}
	if utf8.RuneCountInString(cleaned) < 4 || strings.Contains(cleaned, " ") {
		return false
	}
	return korean.ContainsHangul(cleaned)
}

// runSearch retrieves both corpora for the subset of conditions in set,
// applies direction filters in memory, and merges.
func (s *SearchService) runSearch(ctx context.Context, principal string, q domain.ParsedQuery, tokens []string, set domain.CondSet) (*searchResult, error) {
	eff := q
	if !set.Date {
		eff.Range = nil
	}
	if !set.Dept {
		eff.Department = ""
	}
	if !set.Counter {
		eff.CounterEmail = ""
	}
	effTokens := tokens
	if !set.Keyword {
		effTokens = nil
	}

	tickets, chats, err := s.retrieve(ctx, principal, eff, effTokens)
	if err != nil {
		return nil, err
	}

	tickets = filterTicketRoles(tickets, principal, q.SenderOnly, q.ReceiverOnly)
	chats = filterChatRoles(chats, principal, q.SenderOnly, q.ReceiverOnly)

	total := len(tickets) + len(chats)
	return &searchResult{hits: mergeHits(tickets, chats), total: total}, nil
}

// retrieve picks the retrieval shape for the effective conditions:
//
//   - keyword together with at least one structured filter: fetch a wide page
//     by the structured filters alone and rank it by facet similarity;
//   - keyword alone: seed LIKE pages per token, unioned, then AND-filtered
//     in memory;
//   - no keyword: one structured page per corpus.
func (s *SearchService) retrieve(ctx context.Context, principal string, q domain.ParsedQuery, tokens []string) ([]domain.TicketHit, []domain.ChatHit, error) {
	base := driven.FileFilter{
		CounterEmail: q.CounterEmail,
		Department:   q.Department,
		Limit:        pageSize,
	}
	if q.Range != nil {
		from, to := q.Range.From, q.Range.To
		base.From, base.To = &from, &to
	}
	hasStructured := q.Range != nil || q.Department != "" || q.CounterEmail != ""

	switch {
	case len(tokens) > 0 && hasStructured:
		wide := base
		wide.Limit = similarityFetchSize
		tickets, err := s.tickets.SearchForAI(ctx, principal, wide)
		if err != nil {
			return nil, nil, fmt.Errorf("searching ticket files: %w", err)
		}
		chats, err := s.chats.SearchForAI(ctx, principal, wide)
		if err != nil {
			return nil, nil, fmt.Errorf("searching chat files: %w", err)
		}
		phrase := strings.Join(tokens, " ")
		return rankBySimilarity(tickets, phrase), rankBySimilarity(chats, phrase), nil

	case len(tokens) > 0:
		tickets, err := seedSearch(ctx, principal, base, tokens, s.tickets.SearchForAI)
		if err != nil {
			return nil, nil, fmt.Errorf("searching ticket files: %w", err)
		}
		chats, err := seedSearch(ctx, principal, base, tokens, s.chats.SearchForAI)
		if err != nil {
			return nil, nil, fmt.Errorf("searching chat files: %w", err)
		}
		return tickets, chats, nil

	default:
		tickets, err := s.tickets.SearchForAI(ctx, principal, base)
		if err != nil {
			return nil, nil, fmt.Errorf("searching ticket files: %w", err)
		}
		chats, err := s.chats.SearchForAI(ctx, principal, base)
		if err != nil {
			return nil, nil, fmt.Errorf("searching chat files: %w", err)
		}
		return tickets, chats, nil
	}
}

// rankBySimilarity keeps hits whose best facet clears the cutoff against the
// joined token phrase.
func rankBySimilarity[H domain.Hit](hits []H, phrase string) []H {
	kept := hits[:0:0]
	for _, h := range hits {
		if korean.MaxSimilarity(h.ScoreFacets(), phrase) >= similarityCutoff {
			kept = append(kept, h)
		}
	}
	return kept
}

// seedSearch fetches one LIKE page per seed token and unions them in fetch
// order, then keeps only hits containing every token. The final token is
// always a seed: after the longest-first sort it is the shortest and thus the
// broadest net.
func seedSearch[H domain.Hit](
	ctx context.Context,
	principal string,
	base driven.FileFilter,
	tokens []string,
	search func(context.Context, string, driven.FileFilter) ([]H, error),
) ([]H, error) {
	var union []H
	seen := make(map[string]struct{})
	for _, seed := range buildSeeds(tokens) {
		f := base
		f.Keyword = seed
		page, err := search(ctx, principal, f)
		if err != nil {
			return nil, err
		}
		for _, h := range page {
			if _, ok := seen[h.FileID()]; ok {
				continue
			}
			seen[h.FileID()] = struct{}{}
			if domain.MatchesAllTokens(h, tokens) {
				union = append(union, h)
			}
		}
	}
	return union, nil
}

// buildSeeds picks the top three tokens plus the last one as a hedge.
func buildSeeds(tokens []string) []string {
	n := len(tokens)
	if n == 0 {
		return nil
	}
	limit := 3
	if n < limit {
		limit = n
	}
	seeds := append([]string(nil), tokens[:limit]...)
	if last := tokens[n-1]; n > limit {
		seeds = append(seeds, last)
	}
	return seeds
}

// filterTicketRoles applies direction filters: the principal must be the
// uploader (sender-only) or the addressed receiver (receiver-only).
func filterTicketRoles(hits []domain.TicketHit, principal string, senderOnly, receiverOnly bool) []domain.TicketHit {
	if !senderOnly && !receiverOnly {
		return hits
	}
	kept := hits[:0:0]
	for _, h := range hits {
		if senderOnly && !strings.EqualFold(h.Writer, principal) {
			continue
		}
		if receiverOnly && !strings.EqualFold(h.Receiver, principal) {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// filterChatRoles applies direction filters for chat. A room file has no
// addressed receiver, so "received" means someone else uploaded it.
func filterChatRoles(hits []domain.ChatHit, principal string, senderOnly, receiverOnly bool) []domain.ChatHit {
	if !senderOnly && !receiverOnly {
		return hits
	}
	kept := hits[:0:0]
	for _, h := range hits {
		if senderOnly && !strings.EqualFold(h.Writer, principal) {
			continue
		}
		if receiverOnly && h.Writer != "" && strings.EqualFold(h.Writer, principal) {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// counterLabel resolves the counterparty's display label for messages.
func (s *SearchService) counterLabel(ctx context.Context, email string) string {
	if email == "" {
		return ""
	}
	if member, err := s.members.FindByEmail(ctx, email); err == nil {
		return counterDisplayLabel(member.Nickname, email)
	}
	return counterDisplayLabel("", email)
}
