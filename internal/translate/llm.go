package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/gorate/internal/llm"
)

// LLMTranslator translates through an OpenAI-compatible chat completion endpoint.
type LLMTranslator struct {
	Client llm.Client
	Model  string
}

func (t *LLMTranslator) systemPrompt() string {
	return "You translate short cells of a land registration table from " + PairName() +
		". Respond with the translation only: no quotes, no notes, no transliteration. " +
		"Keep digits, survey numbers and proper names as they are."
}

// Translate implements Translator.
func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	if t.Client == nil || strings.TrimSpace(t.Model) == "" {
		return "", errors.New("llm translator not configured")
	}
	if isBlank(text) {
		return text, nil
	}
	resp, err := t.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: t.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("llm translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm translate: no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("llm translate: empty content")
	}
	return out, nil
}
