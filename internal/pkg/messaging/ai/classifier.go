// Package ai wraps the LLM intent-classification collaborator. Classification
// is best-effort enrichment: a malformed model response degrades to a neutral
// verdict instead of failing the job.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Classification is the model's verdict on an inbound message.
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Neutral is the fallback verdict when the model's answer cannot be parsed.
var Neutral = Classification{Intent: "other", Confidence: 0.5}

// Classifier derives an intent from free text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

const classifyPrompt = `Classify the intent of this WhatsApp message into one of these categories:
- greeting
- product_inquiry
- order_status
- complaint
- support_request
- pricing
- appointment
- feedback
- opt_out
- other

Message: %q

Respond with JSON only: {"intent": "...", "confidence": 0.0-1.0}`

// OpenAIClassifier calls a chat-completion model to classify messages.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClassifier{client: openai.NewClient(apiKey), model: model}
}

var _ Classifier = (*OpenAIClassifier)(nil)

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(classifyPrompt, text)},
		},
		Temperature: 0,
	})
	if err != nil {
		return Classification{}, fmt.Errorf("ai: classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Neutral, nil
	}
	return ParseClassification(resp.Choices[0].Message.Content), nil
}

// ParseClassification extracts the verdict from the model's reply, tolerating
// code fences around the JSON. Anything unparseable maps to Neutral.
func ParseClassification(raw string) Classification {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var c Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &c); err != nil || c.Intent == "" {
		return Neutral
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		c.Confidence = Neutral.Confidence
	}
	return c
}
