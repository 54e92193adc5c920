package usecase

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatrelay/chatrelay/domain"
)

// fakeLlm records what the relay asks of the provider.
type fakeLlm struct {
	generatePrompt string
	generateReply  string
	generateErr    error

	chatSeed []domain.ChatMessage
	chatErr  error
	session  *fakeSession
}

func (f *fakeLlm) Generate(ctx context.Context, prompt string) (string, error) {
	f.generatePrompt = prompt
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generateReply, nil
}

func (f *fakeLlm) GenerateChat(ctx context.Context, history []domain.ChatMessage) (domain.ChatSession, error) {
	f.chatSeed = history
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.session, nil
}

type fakeSession struct {
	sent    []domain.ChatMessage
	reply   string
	sendErr error
}

func (f *fakeSession) SendMessage(ctx context.Context, message domain.ChatMessage) (domain.ChatMessage, error) {
	f.sent = append(f.sent, message)
	if f.sendErr != nil {
		return domain.ChatMessage{}, f.sendErr
	}
	return domain.ChatMessage{Role: domain.AssistantRole, Content: f.reply}, nil
}

func (f *fakeSession) History() ([]domain.ChatMessage, error) {
	return nil, nil
}

var _ = Describe("ParseRelayRequest", func() {
	It("rejects a missing message", func() {
		_, err := ParseRelayRequest(map[string]any{})
		Expect(err).To(MatchError("Message is required and must be a string"))
	})

	It("rejects a non-string message", func() {
		_, err := ParseRelayRequest(map[string]any{"message": 42.0})
		Expect(err).To(MatchError("Message is required and must be a string"))
	})

	It("rejects an empty message", func() {
		_, err := ParseRelayRequest(map[string]any{"message": ""})
		Expect(err).To(MatchError("Message is required and must be a string"))
	})

	It("rejects a non-array history", func() {
		_, err := ParseRelayRequest(map[string]any{"message": "hi", "history": "oops"})
		Expect(err).To(MatchError("History must be an array"))
	})

	It("treats a null history as absent", func() {
		req, err := ParseRelayRequest(map[string]any{"message": "hi", "history": nil})
		Expect(err).NotTo(HaveOccurred())
		Expect(req.History).To(BeEmpty())
	})

	It("rejects a history entry with an unknown role", func() {
		_, err := ParseRelayRequest(map[string]any{
			"message": "hi",
			"history": []any{map[string]any{"role": "system", "content": "x"}},
		})
		Expect(err).To(MatchError("Invalid history format"))
	})

	It("rejects a history entry with non-string content", func() {
		_, err := ParseRelayRequest(map[string]any{
			"message": "hi",
			"history": []any{map[string]any{"role": "user", "content": 7.0}},
		})
		Expect(err).To(MatchError("Invalid history format"))
	})

	It("rejects a history entry that is not an object", func() {
		_, err := ParseRelayRequest(map[string]any{
			"message": "hi",
			"history": []any{"just a string"},
		})
		Expect(err).To(MatchError("Invalid history format"))
	})

	It("stops at the first failing rule", func() {
		// Both message and history are broken; the message rule wins.
		_, err := ParseRelayRequest(map[string]any{"history": "oops"})
		Expect(err).To(MatchError("Message is required and must be a string"))
	})

	It("parses a full request", func() {
		req, err := ParseRelayRequest(map[string]any{
			"message":      "how are you?",
			"systemPrompt": "Be nice.",
			"history": []any{
				map[string]any{"role": "user", "content": "hello"},
				map[string]any{"role": "assistant", "content": "hi there"},
				map[string]any{"role": "user", "content": "how are you?"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(req.Message).To(Equal("how are you?"))
		Expect(req.SystemPrompt).To(Equal("Be nice."))
		Expect(req.History).To(HaveLen(3))
		Expect(req.History[1]).To(Equal(domain.ChatMessage{Role: domain.AssistantRole, Content: "hi there"}))
	})
})

var _ = Describe("RelayService.Reply", func() {
	var (
		provider *fakeLlm
		relay    *RelayService
		ctx      context.Context
	)

	BeforeEach(func() {
		provider = &fakeLlm{
			generateReply: "generated",
			session:       &fakeSession{reply: "chatted"},
		}
		relay = NewRelayService(provider)
		ctx = context.Background()
	})

	Context("with no history", func() {
		It("folds the system prompt into a single generate call", func() {
			reply, err := relay.Reply(ctx, domain.RelayRequest{
				Message:      "hello",
				SystemPrompt: "X",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("generated"))
			Expect(provider.generatePrompt).To(Equal("X\n\nhello"))
			Expect(provider.chatSeed).To(BeNil())
		})

		It("sends the bare message when no system prompt is supplied", func() {
			_, err := relay.Reply(ctx, domain.RelayRequest{Message: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.generatePrompt).To(Equal("hello"))
		})
	})

	Context("with history", func() {
		history := []domain.ChatMessage{
			{Role: domain.UserRole, Content: "u1"},
			{Role: domain.AssistantRole, Content: "a1"},
			{Role: domain.UserRole, Content: "u2"},
		}

		It("drops the trailing duplicate before seeding the chat", func() {
			reply, err := relay.Reply(ctx, domain.RelayRequest{
				Message: "u2",
				History: history,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("chatted"))

			Expect(provider.chatSeed).To(Equal(history[:2]))
			Expect(provider.session.sent).To(HaveLen(1))
			Expect(provider.session.sent[0]).To(Equal(domain.ChatMessage{Role: domain.UserRole, Content: "u2"}))
		})

		It("prepends the synthetic prompt pair when a system prompt is supplied", func() {
			_, err := relay.Reply(ctx, domain.RelayRequest{
				Message:      "u2",
				History:      history,
				SystemPrompt: "X",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(provider.chatSeed).To(HaveLen(4))
			Expect(provider.chatSeed[0]).To(Equal(domain.ChatMessage{Role: domain.UserRole, Content: "X"}))
			Expect(provider.chatSeed[1].Role).To(Equal(domain.AssistantRole))
			Expect(provider.chatSeed[2:]).To(Equal(history[:2]))
		})

		It("keeps the mapped turn count stable across the round trip", func() {
			_, err := relay.Reply(ctx, domain.RelayRequest{Message: "u2", History: history})
			Expect(err).NotTo(HaveOccurred())
			// No duplication, no loss: everything but the trailing entry.
			Expect(provider.chatSeed).To(HaveLen(len(history) - 1))
		})
	})

	Context("when the provider fails", func() {
		It("normalizes generate errors", func() {
			provider.generateErr = errors.New("quota exceeded: project 1234")
			_, err := relay.Reply(ctx, domain.RelayRequest{Message: "hello"})
			Expect(err).To(MatchError(domain.ErrProviderFailure))
			Expect(err.Error()).To(Equal("Failed to get response from Gemini"))
		})

		It("normalizes chat creation errors", func() {
			provider.chatErr = errors.New("auth: bad key")
			_, err := relay.Reply(ctx, domain.RelayRequest{
				Message: "u2",
				History: []domain.ChatMessage{{Role: domain.UserRole, Content: "u2"}},
			})
			Expect(err).To(MatchError(domain.ErrProviderFailure))
		})

		It("normalizes send errors", func() {
			provider.session.sendErr = errors.New("connection reset")
			_, err := relay.Reply(ctx, domain.RelayRequest{
				Message: "u2",
				History: []domain.ChatMessage{{Role: domain.UserRole, Content: "u2"}},
			})
			Expect(err).To(MatchError(domain.ErrProviderFailure))
		})
	})
})
