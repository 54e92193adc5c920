package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/chatrelay/chatrelay/domain"
)

// Fixed generation parameters. These govern every call and are not
// user-configurable.
const (
	Temperature     = 0.7
	TopK            = 40
	TopP            = 0.95
	MaxOutputTokens = 1024
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds the provider adapter. The API key is read from
// the environment by the genai SDK itself.
func NewGeminiClient(ctx context.Context, model string) domain.Llm {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		panic(fmt.Errorf("creating genai client: %w", err))
	}

	return &GeminiClient{client: client, model: model}
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](Temperature),
		TopK:            genai.Ptr[float32](TopK),
		TopP:            genai.Ptr[float32](TopP),
		MaxOutputTokens: MaxOutputTokens,
	}
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		generationConfig(),
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return resp.Text(), nil
}

func (g *GeminiClient) GenerateChat(ctx context.Context, history []domain.ChatMessage) (domain.ChatSession, error) {
	geminiHistory := make([]*genai.Content, len(history))
	for i, msg := range history {
		role := genai.RoleModel
		if msg.Role == domain.UserRole {
			role = genai.RoleUser
		}
		geminiHistory[i] = &genai.Content{
			Role: role,
			Parts: []*genai.Part{
				{Text: msg.Content},
			},
		}
	}

	chat, err := g.client.Chats.Create(ctx, g.model, generationConfig(), geminiHistory)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	return &GeminiChatSession{client: g.client, chat: chat}, nil
}

type GeminiChatSession struct {
	client *genai.Client
	chat   *genai.Chat
}

// SendMessage implements domain.ChatSession.
func (g *GeminiChatSession) SendMessage(ctx context.Context, message domain.ChatMessage) (
	domain.ChatMessage,
	error,
) {
	resp, err := g.chat.SendMessage(ctx, genai.Part{Text: message.Content})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("send message: %w", err)
	}

	return domain.ChatMessage{
		Role:    domain.AssistantRole,
		Content: resp.Text(),
	}, nil
}

func (g *GeminiChatSession) History() ([]domain.ChatMessage, error) {
	resp := g.chat.History(false)
	history := make([]domain.ChatMessage, len(resp))
	for i, content := range resp {
		var text string
		for _, p := range content.Parts {
			text += p.Text
		}
		role := domain.AssistantRole
		if content.Role == genai.RoleUser {
			role = domain.UserRole
		}
		history[i] = domain.ChatMessage{
			Role:    role,
			Content: text,
		}
	}
	return history, nil
}
