package recommend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/prefs"
)

// Phraser turns a template justification into friendlier prose. Purely
// cosmetic: the template is always the fallback and the facts in it must
// survive the rewrite.
type Phraser interface {
	Phrase(ctx context.Context, p *prefs.UserPreferences, m *catalog.MouseSpec, template string) (string, error)
}

// WithPhraser enables model-phrased reasoning. Safe to skip entirely.
func (r *Recommender) WithPhraser(p Phraser) *Recommender {
	r.phraser = p
	return r
}

// explain returns the reasoning for one recommendation: the deterministic
// template, upgraded by the phraser when one is configured and succeeds.
func (r *Recommender) explain(ctx context.Context, p *prefs.UserPreferences, m *catalog.MouseSpec, score float32) string {
	template := Explain(p, m, score)
	if r.phraser == nil {
		return template
	}

	phrased, err := r.phraser.Phrase(ctx, p, m, template)
	if err != nil || strings.TrimSpace(phrased) == "" {
		r.log.Warn().Err(err).Str("mouse", m.Name).Msg("reasoning model failed, using template")
		return template
	}
	return phrased
}

// OpenAIPhraser rewrites template reasoning through a chat completion.
type OpenAIPhraser struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIPhraser reads OPENAI_API_KEY (and optionally OPENAI_BASE_URL)
// from the environment.
func NewOpenAIPhraser(model string, timeout time.Duration) (*OpenAIPhraser, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("recommend: OPENAI_API_KEY not set")
	}
	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return &OpenAIPhraser{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}, nil
}

const phraserSystemPrompt = "You rewrite factual gaming-mouse recommendation notes into one or two " +
	"friendly sentences. Keep every fact and number exactly as given. Do not " +
	"add claims that are not in the notes. Reply with the rewritten text only."

func (p *OpenAIPhraser) Phrase(ctx context.Context, _ *prefs.UserPreferences, m *catalog.MouseSpec, template string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: 0.4,
		MaxTokens:   150,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: phraserSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Mouse: %s %s.\nNotes: %s", m.Brand, m.Name, template)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
