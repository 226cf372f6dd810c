package domain

import "time"

// ChatRequest is one turn of the file-search conversation.
type ChatRequest struct {
	ConversationID string `json:"conversationId"`
	UserInput      string `json:"userInput"`
}

// FileResult projects both hit kinds onto a uniform shape for the client.
type FileResult struct {
	UUID        string    `json:"uuid"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	CreatedAt   time.Time `json:"createdAt"`
	TicketNo    *int64    `json:"tno,omitempty"`
	TicketTitle string    `json:"ticketTitle,omitempty"`
	WriterEmail string    `json:"writerEmail"`
	ReceiverEmail string  `json:"receiverEmail"`
}

// Answer is the final response of one search turn: at most ten results plus
// a user-facing message describing the outcome.
type Answer struct {
	ConversationID string       `json:"conversationId"`
	Results        []FileResult `json:"results"`
	Message        string       `json:"aiMessage"`
}

// ResultOf flattens a hit into the uniform result shape.
func ResultOf(h Hit) FileResult {
	r := FileResult{
		UUID:          h.FileID(),
		FileName:      h.Name(),
		CreatedAt:     h.Created(),
		WriterEmail:   h.Uploader(),
		ReceiverEmail: h.ReceiverID(),
	}
	switch t := h.(type) {
	case TicketHit:
		r.FileSize = t.FileSize
		tno := t.TicketNo
		r.TicketNo = &tno
		r.TicketTitle = t.TicketTitle
	case ChatHit:
		r.FileSize = t.FileSize
	}
	return r
}
