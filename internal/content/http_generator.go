package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrEmptyDraft is returned when the generator answers without any text.
var ErrEmptyDraft = errors.New("generator returned an empty draft")

// HTTPGenerator asks a JSON endpoint for drafts. The endpoint receives the
// prompt and answers {"title","content","hashtags"}.
type HTTPGenerator struct {
	client *resty.Client
	url    string
}

// NewHTTPGenerator creates a generator posting to url. apiKey is sent as a
// bearer token when set.
func NewHTTPGenerator(url, apiKey string, timeout time.Duration) *HTTPGenerator {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "autopost/1.0").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPGenerator{client: client, url: url}
}

type generateRequest struct {
	Topic     string `json:"topic"`
	Tone      string `json:"tone,omitempty"`
	Language  string `json:"language,omitempty"`
	Platform  string `json:"platform,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

type generateResponse struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Hashtags []string `json:"hashtags"`
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt Prompt) (Draft, error) {
	var out generateResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Topic:     prompt.Topic,
			Tone:      prompt.Tone,
			Language:  prompt.Language,
			Platform:  prompt.Platform,
			MaxLength: prompt.MaxLength,
		}).
		SetResult(&out).
		Post(g.url)
	if err != nil {
		return Draft{}, fmt.Errorf("generator request failed: %w", err)
	}
	if resp.IsError() {
		return Draft{}, fmt.Errorf("generator returned HTTP %d", resp.StatusCode())
	}
	if out.Title == "" && out.Content == "" {
		return Draft{}, ErrEmptyDraft
	}
	return Draft{Title: out.Title, Content: out.Content, Hashtags: out.Hashtags}, nil
}
