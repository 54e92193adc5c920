package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/domain"
	"github.com/chatrelay/chatrelay/utils/log"
)

// systemPromptAck is the synthetic model turn paired with an injected
// system prompt when the provider has no native system role.
const systemPromptAck = "Understood. I will follow those instructions."

// RelayService turns a validated RelayRequest into a provider call and
// normalizes the outcome. It holds no per-conversation state; every
// request is self-contained.
type RelayService struct {
	llm domain.Llm
}

func NewRelayService(gen domain.Llm) *RelayService {
	return &RelayService{llm: gen}
}

// ParseRelayRequest validates a decoded JSON body and produces the
// typed request. Rules run in order and the first failure wins, so
// callers get one specific error per malformed request.
func ParseRelayRequest(payload map[string]any) (domain.RelayRequest, error) {
	var req domain.RelayRequest

	message, ok := payload["message"].(string)
	if !ok || message == "" {
		return req, domain.ErrMessageRequired
	}
	req.Message = message

	if raw, present := payload["history"]; present && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			return req, domain.ErrHistoryNotArray
		}
		history := make([]domain.ChatMessage, 0, len(items))
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				return req, domain.ErrInvalidHistoryItem
			}
			role, ok := entry["role"].(string)
			if !ok || !domain.ValidRole(domain.Role(role)) {
				return req, domain.ErrInvalidHistoryItem
			}
			content, ok := entry["content"].(string)
			if !ok {
				return req, domain.ErrInvalidHistoryItem
			}
			history = append(history, domain.ChatMessage{
				Role:    domain.Role(role),
				Content: content,
			})
		}
		req.History = history
	}

	if prompt, ok := payload["systemPrompt"].(string); ok {
		req.SystemPrompt = prompt
	}

	return req, nil
}

// Reply routes the request down the single-turn or multi-turn path and
// returns the provider's text. Any provider error is logged with its
// cause and surfaced as domain.ErrProviderFailure.
func (s *RelayService) Reply(ctx context.Context, req domain.RelayRequest) (string, error) {
	if len(req.History) == 0 {
		return s.singleTurn(ctx, req)
	}
	return s.multiTurn(ctx, req)
}

// singleTurn handles a request with no prior history: one stateless
// generate call, with the system prompt folded into the prompt text.
func (s *RelayService) singleTurn(ctx context.Context, req domain.RelayRequest) (string, error) {
	prompt := req.Message
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.Message
	}

	text, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		log.WithCtx(ctx).Error("single-turn generate failed", zap.Error(err))
		return "", domain.ErrProviderFailure
	}
	return text, nil
}

// multiTurn seeds a stateful chat with the prior history (the trailing
// entry duplicates req.Message and is dropped) and sends the new
// message as the final turn. A supplied system prompt becomes a
// synthetic user/assistant pair ahead of the seed.
func (s *RelayService) multiTurn(ctx context.Context, req domain.RelayRequest) (string, error) {
	prior := req.PriorHistory()

	seed := make([]domain.ChatMessage, 0, len(prior)+2)
	if req.SystemPrompt != "" {
		seed = append(seed,
			domain.ChatMessage{Role: domain.UserRole, Content: req.SystemPrompt},
			domain.ChatMessage{Role: domain.AssistantRole, Content: systemPromptAck},
		)
	}
	seed = append(seed, prior...)

	session, err := s.llm.GenerateChat(ctx, seed)
	if err != nil {
		log.WithCtx(ctx).Error("seeding chat failed", zap.Error(err))
		return "", domain.ErrProviderFailure
	}

	reply, err := session.SendMessage(ctx, domain.ChatMessage{
		Role:    domain.UserRole,
		Content: req.Message,
	})
	if err != nil {
		log.WithCtx(ctx).Error("send message failed", zap.Error(err))
		return "", domain.ErrProviderFailure
	}

	return reply.Content, nil
}
