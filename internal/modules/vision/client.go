package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Extraction holds the trade fields pulled out of a platform screenshot.
// Empty fields mean the model could not read them.
type Extraction struct {
	Symbol     string   `json:"symbol"`
	Direction  string   `json:"direction"`
	EntryPrice *float64 `json:"entry_price"`
	ExitPrice  *float64 `json:"exit_price"`
	Quantity   *float64 `json:"quantity"`
	PnL        *float64 `json:"pnl"`
	Notes      string   `json:"notes"`
}

const extractionPrompt = `You are reading a screenshot from a trading platform.
Extract the trade details and respond with a single JSON object, no prose:
{"symbol": "", "direction": "long|short", "entry_price": null, "exit_price": null, "quantity": null, "pnl": null, "notes": ""}
Use null for any numeric field you cannot read and "" for text fields.`

// Client extracts trade details from screenshots via an OpenAI compatible
// vision endpoint.
type Client struct {
	http   *resty.Client
	model  string
	apiKey string
	log    zerolog.Logger
}

// NewClient creates a vision client. With an empty API key the client is
// disabled and Extract returns an error.
func NewClient(baseURL, apiKey, model string, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(60 * time.Second)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &Client{
		http:   c,
		model:  model,
		apiKey: apiKey,
		log:    log.With().Str("client", "vision").Logger(),
	}
}

// Enabled reports whether the client has credentials to work with
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type visionContent struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string          `json:"role"`
	Content []visionContent `json:"content"`
}

type visionRequest struct {
	Model       string          `json:"model"`
	Messages    []visionMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Extract sends a screenshot to the model and parses the trade fields out of
// the reply
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) (*Extraction, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("vision client is not configured")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	req := visionRequest{
		Model: c.model,
		Messages: []visionMessage{
			{
				Role: "user",
				Content: []visionContent{
					{Type: "text", Text: extractionPrompt},
					{Type: "image_url", ImageURL: &visionImageURL{URL: dataURL}},
				},
			},
		},
		MaxTokens:   500,
		Temperature: 0,
	}

	var out visionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return nil, fmt.Errorf("vision request failed: %s", out.Error.Message)
		}
		return nil, fmt.Errorf("vision request failed: status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("vision response had no choices")
	}

	content := stripCodeFences(out.Choices[0].Message.Content)

	var extraction Extraction
	if err := json.Unmarshal([]byte(content), &extraction); err != nil {
		c.log.Warn().Str("content", content).Msg("unparseable vision response")
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}

	extraction.Symbol = strings.ToUpper(strings.TrimSpace(extraction.Symbol))
	extraction.Direction = strings.ToLower(strings.TrimSpace(extraction.Direction))
	return &extraction, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
