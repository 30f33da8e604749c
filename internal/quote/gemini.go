package quote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// DefaultPrompt asks for the hallmark gold and fine silver price per tola
const DefaultPrompt = `Use this link: https://www.hamropatro.com/gold. What is the hallmark gold price per tola and silver price per tola today? Answer in this JSON schema:
Price = {'gold': number, 'silver': number}
Return: Price`

// GeminiSource asks a Gemini model, grounded with Google Search, for the
// current quote
type GeminiSource struct {
	client *genai.Client
	model  string
	prompt string
}

// NewGeminiSource creates a Gemini backed Source
func NewGeminiSource(ctx context.Context, apiKey, model, prompt string, timeout time.Duration) (*GeminiSource, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if prompt == "" {
		prompt = DefaultPrompt
	}

	return &GeminiSource{
		client: client,
		model:  model,
		prompt: prompt,
	}, nil
}

// Fetch runs one generation and returns the response text as is
func (g *GeminiSource) Fetch(ctx context.Context) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(g.prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		return "", &FetchError{Source: "gemini", Err: err}
	}
	return resp.Text(), nil
}
