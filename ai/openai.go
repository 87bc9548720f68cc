package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig selects the model endpoint. BaseURL covers OpenAI-compatible
// local servers (Ollama, LM Studio) as well as the hosted API.
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	MaxImageEdge int // longest image edge sent to the model, 0 for default
}

const (
	defaultModel        = "gpt-4o-mini"
	defaultMaxImageEdge = 1024
)

// Client is the OpenAI-compatible Backend.
type Client struct {
	api          *openai.Client
	model        string
	maxImageEdge int
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	edge := cfg.MaxImageEdge
	if edge <= 0 {
		edge = defaultMaxImageEdge
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: model, maxImageEdge: edge}
}

const altTextSystem = "You write concise alt text for images in PDF documents. " +
	"Answer with the alt text only: one sentence, no quotes, no preamble."

// GenerateAltText sends the image and surrounding text to the model. Large
// images are downscaled first so local backends are not overwhelmed.
func (c *Client) GenerateAltText(ctx context.Context, image []byte, pageContext string) (string, error) {
	scaled, err := downscale(image, c.maxImageEdge)
	if err != nil {
		// Undecodable image data still goes up as-is; the model may cope.
		scaled = image
	}
	prompt := "Create alt text for this image."
	if pageContext != "" {
		prompt += "\nSurrounding text: " + clip(pageContext, 500)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(scaled)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: altTextSystem},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: alt text: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai: alt text: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const headingSystem = "You analyze document text and propose a heading outline. " +
	"Answer one heading per line in the form 'H<level>: <text>' with levels 1-6. " +
	"No other output."

// SuggestHeadings asks the model for a heading outline of text.
func (c *Client) SuggestHeadings(ctx context.Context, text string) ([]HeadingSuggestion, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: headingSystem},
			{Role: openai.ChatMessageRoleUser, Content: clip(text, 4000)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai: headings: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ai: headings: empty response")
	}
	return parseHeadingLines(resp.Choices[0].Message.Content), nil
}

// parseHeadingLines extracts "H<level>: <text>" lines, ignoring anything the
// model added around them.
func parseHeadingLines(s string) []HeadingSuggestion {
	var out []HeadingSuggestion
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 4 || (line[0] != 'H' && line[0] != 'h') {
			continue
		}
		rest := line[1:]
		colon := strings.Index(rest, ":")
		if colon < 1 {
			continue
		}
		level, err := strconv.Atoi(strings.TrimSpace(rest[:colon]))
		if err != nil || level < 1 || level > 6 {
			continue
		}
		text := strings.TrimSpace(rest[colon+1:])
		if text == "" {
			continue
		}
		out = append(out, HeadingSuggestion{Level: level, Text: text})
	}
	return out
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
