package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const intentSystemPrompt = `You translate trading-journal messages into intents.
Respond with ONLY a JSON object: {"intent": "<kind>", "slots": {...}}.
Valid kinds: log_trade, close_trade, show_trades, add_lesson, show_lessons,
daily_outlook, daily_review, show_stats, unknown.
Slot keys: symbol, direction, setup, emotion, id, pnl, content, text.`

// LLMClient calls an OpenAI-compatible chat-completions API to parse
// utterances the regex table could not. Disabled when no API key is set.
type LLMClient struct {
	client *resty.Client
	model  string
	log    zerolog.Logger
}

// NewLLMClient creates an LLM intent parser. An empty apiKey yields a
// disabled client.
func NewLLMClient(baseURL, apiKey, model string, log zerolog.Logger) *LLMClient {
	if apiKey == "" {
		return &LLMClient{log: log.With().Str("client", "llm").Logger()}
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")

	return &LLMClient{
		client: client,
		model:  model,
		log:    log.With().Str("client", "llm").Logger(),
	}
}

// Enabled reports whether the client is configured
func (c *LLMClient) Enabled() bool {
	return c.client != nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ParseIntent asks the LLM to classify the message into an intent
func (c *LLMClient) ParseIntent(ctx context.Context, message string) (*Intent, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("llm client not configured")
	}

	req := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: intentSystemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: 0,
	}

	var res chatCompletionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&res).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("llm request failed: status %d", resp.StatusCode())
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("llm returned no choices")
	}

	content := strings.TrimSpace(res.Choices[0].Message.Content)
	// Models occasionally wrap the JSON in a code fence despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var intent Intent
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &intent); err != nil {
		return nil, fmt.Errorf("llm returned unparseable intent: %w", err)
	}
	if intent.Kind == "" {
		intent.Kind = IntentUnknown
	}

	return &intent, nil
}
