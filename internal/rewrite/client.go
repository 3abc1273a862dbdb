// Package rewrite generates active-voice rewrite suggestions for passive
// sentences using a local Ollama model.
package rewrite

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultModel   = "gpt-oss:20b"
	DefaultTimeout = 120 * time.Second
)

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
}

// New creates a new rewrite client
func New(ollamaURL, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(baseURL, http.DefaultClient)

	return &Client{
		client:  client,
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// generate sends a prompt to the model and collects the full response
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	log.Printf("Rewrite: Sending request to model %s (timeout: %v)", c.model, c.timeout)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
	}

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})

	if err != nil {
		log.Printf("Rewrite: Generation failed: %v", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	log.Printf("Rewrite: Response received (%d chars)", len(result))
	return result, nil
}

// SuggestActiveVoice rewrites a passive sentence in active voice.
func (c *Client) SuggestActiveVoice(ctx context.Context, sentence string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite the following sentence in active voice.

Requirements:
- Keep the original meaning exactly
- Return EXACTLY one sentence
- Do NOT add commentary, quotes, or explanations
- If the sentence is already active voice, return it unchanged

Sentence:
%s

Rewritten sentence:`, sentence)

	result, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	// Models occasionally wrap the answer in quotes despite instructions.
	result = strings.Trim(result, `"'`)
	return strings.TrimSpace(result), nil
}
