package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when no model credentials are configured; the
// caller should run the scripted flow instead.
var ErrNoAPIKey = errors.New("chat: OPENAI_API_KEY not set")

// LLMExtractor drives conversational turns through an OpenAI-compatible
// chat completion endpoint with a strict JSON response contract.
type LLMExtractor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewLLMExtractor reads OPENAI_API_KEY (and optionally OPENAI_BASE_URL
// for compatible providers) from the environment.
func NewLLMExtractor(model string, timeout time.Duration) (*LLMExtractor, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, ErrNoAPIKey
	}
	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return &LLMExtractor{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}, nil
}

// Turn sends the system prompt plus history and parses the structured
// JSON reply. Errors here are soft: the caller falls back to scripting.
func (e *LLMExtractor) Turn(ctx context.Context, messages []Message) (*ModelTurn, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    chatMessages,
		Temperature: 0.5,
		MaxTokens:   500,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	var turn ModelTurn
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &turn); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}
	if turn.Message == "" {
		return nil, errors.New("model reply has no message")
	}
	return &turn, nil
}

// stripCodeFence tolerates models that wrap JSON in markdown fences
// despite the response-format contract.
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
