package domain

import "time"

// Turn is one exchange unit in a conversation session. Turns are
// immutable once appended and only removed by clearing the whole
// session.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsError   bool      `json:"isError"`
}

// ChatMessage converts the turn to its wire-history form.
func (t Turn) ChatMessage() ChatMessage {
	return ChatMessage{Role: t.Role, Content: t.Text}
}
