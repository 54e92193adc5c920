package domain

import "errors"

// RelayRequest is the validated form of one POST /api/chat body. History
// carries every prior turn plus the new message as its last entry; the
// relay drops that duplicate before talking to the provider.
type RelayRequest struct {
	Message      string        `json:"message"`
	History      []ChatMessage `json:"history,omitempty"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
}

// PriorHistory returns the history without its trailing entry, which
// duplicates Message by wire convention. Empty history stays empty.
func (r RelayRequest) PriorHistory() []ChatMessage {
	if len(r.History) == 0 {
		return nil
	}
	return r.History[:len(r.History)-1]
}

// ValidationError is a request-shape failure. Its text is the exact
// string returned to the caller in the 400 body.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrMessageRequired    = &ValidationError{Reason: "Message is required and must be a string"}
	ErrHistoryNotArray    = &ValidationError{Reason: "History must be an array"}
	ErrInvalidHistoryItem = &ValidationError{Reason: "Invalid history format"}
)

// ErrProviderFailure replaces every provider-layer error at the relay
// boundary so provider-internal error types never cross it.
var ErrProviderFailure = errors.New("Failed to get response from Gemini")
