package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/chatrelay/chatrelay/domain"
)

const (
	// SystemPrompt is the fixed assistant identity attached to every
	// outbound request.
	SystemPrompt = "You are a helpful AI assistant. Keep your answers concise, friendly, and accurate."

	// errorTurnText is shown in place of a reply when a request fails
	// at any layer.
	errorTurnText = "Sorry, something went wrong. Please try again."
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrRequestInFlight = errors.New("a request is already in flight")
)

// Transport dispatches one RelayRequest and returns the reply text.
type Transport interface {
	Send(ctx context.Context, req domain.RelayRequest) (string, error)
}

// Store holds the ordered turns of one conversation session and builds
// the outbound request for each new user message. It is safe for
// concurrent use; a single-flight guard rejects a second submission
// while one is outstanding rather than queuing it.
type Store struct {
	mu        sync.Mutex
	turns     []domain.Turn
	inFlight  bool
	transport Transport
	notifier  *notifier
	now       func() time.Time
}

func NewStore(transport Transport) *Store {
	return &Store{
		transport: transport,
		notifier:  newNotifier(),
		now:       time.Now,
	}
}

// Submit appends a user turn and dispatches it. Blank text and
// submissions while a request is pending are rejected without touching
// the session. Transport and relay failures are not returned: they
// become a single synthetic assistant turn with IsError set, so the
// session never ends up partially updated.
func (s *Store) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	s.inFlight = true
	req := s.buildRequestLocked(text)
	s.turns = append(s.turns, domain.Turn{
		Role:      domain.UserRole,
		Text:      text,
		Timestamp: s.now(),
	})
	s.mu.Unlock()
	s.notifier.publish()

	reply, err := s.transport.Send(ctx, req)

	s.mu.Lock()
	turn := domain.Turn{Role: domain.AssistantRole, Timestamp: s.now()}
	if err != nil {
		turn.Text = errorTurnText
		turn.IsError = true
	} else {
		turn.Text = reply
	}
	s.turns = append(s.turns, turn)
	s.inFlight = false
	s.mu.Unlock()
	s.notifier.publish()

	return nil
}

// BuildRequest serializes the current session plus the new message
// into a RelayRequest. Pure: the session is not modified.
func (s *Store) BuildRequest(text string) domain.RelayRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildRequestLocked(text)
}

// buildRequestLocked includes every prior turn plus the new message as
// the trailing history entry. The relay drops that duplicate before
// calling the provider.
func (s *Store) buildRequestLocked(text string) domain.RelayRequest {
	history := make([]domain.ChatMessage, 0, len(s.turns)+1)
	for _, t := range s.turns {
		history = append(history, t.ChatMessage())
	}
	history = append(history, domain.ChatMessage{Role: domain.UserRole, Content: text})

	return domain.RelayRequest{
		Message:      text,
		History:      history,
		SystemPrompt: SystemPrompt,
	}
}

// Clear resets the session to empty. Idempotent. Provider side has no
// state to reset.
func (s *Store) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()
	s.notifier.publish()
}

// Turns returns a snapshot of the session.
func (s *Store) Turns() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]domain.Turn, len(s.turns))
	copy(snapshot, s.turns)
	return snapshot
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// InFlight reports whether a submission is outstanding.
func (s *Store) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Subscribe returns a channel that receives a tick after every session
// mutation, plus a cancel func. Ticks are coalesced when the consumer
// lags.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	return s.notifier.subscribe()
}

// Close releases all subscriber channels.
func (s *Store) Close() {
	s.notifier.close()
}
