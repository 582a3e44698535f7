package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yassirar77-cloud/binaapp-sub001/internal/config"
)

var ErrAIUnavailable = errors.New("AI provider unavailable")

// AIService wraps the hosted OpenAI-compatible text and image APIs. Content
// generation quality is the provider's problem; this wrapper only shapes
// requests, enforces a timeout and surfaces failures.
type AIService struct {
	cfg    *config.Config
	client *http.Client
}

func NewAIService(cfg *config.Config) *AIService {
	return &AIService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.AITimeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// GenerateHeroText produces landing page hero copy for a business.
func (s *AIService) GenerateHeroText(ctx context.Context, businessName, cuisine string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a short, warm hero headline and one-sentence tagline for %s, a Malaysian %s business. "+
			"Reply with the headline on the first line and the tagline on the second. No quotes.",
		businessName, cuisine)
	return s.chatComplete(ctx, prompt)
}

// GenerateMenuImagePrompt produces a photography-style image description for
// a dish, which the front end feeds to the image pipeline.
func (s *AIService) GenerateMenuImagePrompt(ctx context.Context, dishName, description string) (string, error) {
	prompt := fmt.Sprintf(
		"Describe a single appetizing food photograph of %q (%s) for a restaurant menu: "+
			"composition, lighting, plating, background. One paragraph, no preamble.",
		dishName, description)
	return s.chatComplete(ctx, prompt)
}

func (s *AIService) chatComplete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.cfg.AIModel,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AIAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AIAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrAIUnavailable, resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: bad response: %v", ErrAIUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrAIUnavailable)
	}
	return parsed.Choices[0].Message.Content, nil
}
