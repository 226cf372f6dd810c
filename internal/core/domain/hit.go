package domain

import (
	"strings"
	"time"
)

// Person pairs a principal id with its display nickname.
type Person struct {
	Email    string
	Nickname string
}

// Hit is one accessible candidate file plus enough pre-joined text for
// scoring and display. The storage adapter flattens the object graph into
// these snapshots; the search core never dereferences live relations.
type Hit interface {
	// FileID is the opaque file identifier (shared id space across corpora).
	FileID() string

	// Name is the original file name.
	Name() string

	// Created is the upload timestamp. Zero means unknown.
	Created() time.Time

	// Uploader is the uploading principal's email.
	Uploader() string

	// ReceiverID is the receiving principal's email, if any.
	ReceiverID() string

	// Haystack concatenates every text facet used for token AND matching,
	// lowercased.
	Haystack() string

	// ScoreFacets lists the text facets compared individually during
	// similarity ranking.
	ScoreFacets() []string
}

// TicketHit is a ticket attachment candidate.
type TicketHit struct {
	UUID      string
	FileName  string
	FileSize  int64
	CreatedAt time.Time
	Writer    string
	Receiver  string

	// Flattened parent ticket facets.
	TicketNo          int64
	TicketTitle       string
	TicketContent     string
	TicketPurpose     string
	TicketRequirement string
	TicketWriter      Person
	TicketReceivers   []Person
}

// ChatHit is a chat attachment candidate.
type ChatHit struct {
	UUID      string
	FileName  string
	FileSize  int64
	CreatedAt time.Time
	Writer    string
	Receiver  string // set only for direct rooms

	RoomID         int64
	RoomName       string
	MessageSeq     int64
	WriterNickname string
}

func (h TicketHit) FileID() string      { return h.UUID }
func (h TicketHit) Name() string        { return h.FileName }
func (h TicketHit) Created() time.Time  { return h.CreatedAt }
func (h TicketHit) Uploader() string    { return h.Writer }
func (h TicketHit) ReceiverID() string  { return h.Receiver }

// Haystack mirrors the facet scope of the ticket search query: file name,
// uploader/receiver ids, ticket title, body, purpose, requirement, and the
// writer and personal receivers of the parent ticket.
func (h TicketHit) Haystack() string {
	var sb strings.Builder
	for _, s := range []string{
		h.FileName, h.Writer, h.Receiver,
		h.TicketTitle, h.TicketContent, h.TicketPurpose, h.TicketRequirement,
		h.TicketWriter.Email, h.TicketWriter.Nickname,
	} {
		sb.WriteString(s)
		sb.WriteByte(' ')
	}
	for _, p := range h.TicketReceivers {
		sb.WriteString(p.Email)
		sb.WriteByte(' ')
		sb.WriteString(p.Nickname)
		sb.WriteByte(' ')
	}
	return strings.ToLower(sb.String())
}

// ScoreFacets returns the facets compared during similarity ranking.
// The body can be long, which is why containment carries most of the score.
func (h TicketHit) ScoreFacets() []string {
	return []string{
		h.FileName, h.TicketTitle, h.TicketContent, h.TicketPurpose, h.TicketRequirement,
	}
}

func (h ChatHit) FileID() string      { return h.UUID }
func (h ChatHit) Name() string        { return h.FileName }
func (h ChatHit) Created() time.Time  { return h.CreatedAt }
func (h ChatHit) Uploader() string    { return h.Writer }
func (h ChatHit) ReceiverID() string  { return h.Receiver }

// Haystack covers file name, uploader/receiver ids, room name, and the
// uploader's nickname (people remember files by who sent them).
func (h ChatHit) Haystack() string {
	parts := []string{h.FileName, h.Writer, h.Receiver, h.RoomName, h.WriterNickname}
	return strings.ToLower(strings.Join(parts, " "))
}

// ScoreFacets returns the facets compared during similarity ranking.
func (h ChatHit) ScoreFacets() []string {
	return []string{h.FileName, h.RoomName, h.WriterNickname}
}

// MatchesAllTokens reports whether every token occurs somewhere in the hit's
// haystack, case-insensitively. An empty token list matches everything.
func MatchesAllTokens(h Hit, tokens []string) bool {
	if h == nil || len(tokens) == 0 {
		return true
	}
	haystack := h.Haystack()
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if !strings.Contains(haystack, strings.ToLower(t)) {
			return false
		}
	}
	return true
}
