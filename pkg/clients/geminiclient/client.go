package geminiclient

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client wraps the Gemini API for the three collaborator calls: photo
// verification, operational analysis, and daily report generation
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a new Gemini client using an API key
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}
