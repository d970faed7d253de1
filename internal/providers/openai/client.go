// Package openai is a minimal chat-completions client covering the three
// calls the service makes: vision describe, plain chat, and web-search
// aesthetic lookup.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"moodshift/internal/domain"
	"moodshift/internal/prompts"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultChatModel   = "gpt-4o"
	defaultSearchModel = "gpt-4o-search-preview"
	defaultTimeout     = 60 * time.Second
)

type Options struct {
	APIKey      string
	BaseURL     string
	ChatModel   string
	SearchModel string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	chatModel   string
	searchModel string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	chatModel := opts.ChatModel
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	searchModel := opts.SearchModel
	if searchModel == "" {
		searchModel = defaultSearchModel
	}
	return &Client{
		httpClient:  client,
		baseURL:     base,
		apiKey:      strings.TrimSpace(opts.APIKey),
		chatModel:   chatModel,
		searchModel: searchModel,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *imageURLBlock `json:"image_url,omitempty"`
}

type imageURLBlock struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// DescribeImage asks the vision model for a free-text description of a
// base64-encoded image.
func (c *Client) DescribeImage(ctx context.Context, imageB64, instruction string) (string, error) {
	messages := []chatMessage{
		{
			Role: "user",
			Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURLBlock{URL: "data:image/jpeg;base64," + imageB64}},
				{Type: "text", Text: instruction},
			},
		},
	}
	return c.complete(ctx, c.chatModel, messages, 800)
}

// Chat sends one system/user message pair and returns the model's text.
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string, maxTokens int) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}
	return c.complete(ctx, c.chatModel, messages, maxTokens)
}

// SearchAesthetic asks the web-search model for a short description of the
// song's visual aesthetic: colors, mood, album art, and visual style.
func (c *Client) SearchAesthetic(ctx context.Context, artist, song string) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: prompts.SearchAesthetic},
		{Role: "user", Content: fmt.Sprintf("Song: %q\nArtist: %s", song, artist)},
	}
	return c.complete(ctx, c.searchModel, messages, 1000)
}

func (c *Client) complete(ctx context.Context, model string, messages []chatMessage, maxTokens int) (string, error) {
	payload := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.WrapService(err, "openai: encode request")
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.WrapService(err, "openai: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapService(err, "openai: %s request failed", model)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return "", domain.ServiceFailure("openai: %s returned http %d", model, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.WrapService(err, "openai: decode response")
	}
	if len(out.Choices) == 0 {
		return "", domain.ServiceFailure("openai: %s returned no choices", model)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", domain.ServiceFailure("openai: %s returned empty response", model)
	}
	return text, nil
}
