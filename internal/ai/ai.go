/*
Package ai provides functionality to interact with the Gemini API and turn a scraped race
listing into a one-line summary for notification emails.
*/
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shanehull/racealert/internal/types"
)

const (
	DefaultModel = "gemini-2.5-flash"
	maxBriefLen  = 240
)

// Briefer summarizes alerts with Gemini. The client is created on first use.
type Briefer struct {
	apiKey    string
	modelName string
	client    *genai.Client
}

// NewBriefer returns nil when apiKey is empty so callers can skip briefs entirely.
func NewBriefer(apiKey, modelName string) *Briefer {
	if apiKey == "" {
		return nil
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Briefer{apiKey: apiKey, modelName: modelName}
}

func (b *Briefer) Brief(ctx context.Context, alert types.Alert) (string, error) {
	if b == nil || b.apiKey == "" {
		return "", errors.New("gemini API key is required")
	}

	if b.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  b.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create gemini client: %w", err)
		}
		b.client = client
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{{Text: buildPrompt(alert)}},
			Role:  "user",
		},
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.modelName, contents, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	return cleanBrief(resp.Text())
}

func cleanBrief(text string) (string, error) {
	brief := strings.Join(strings.Fields(text), " ")
	brief = strings.Trim(brief, `"`)
	if brief == "" {
		return "", errors.New("gemini returned an empty brief")
	}
	if r := []rune(brief); len(r) > maxBriefLen {
		brief = string(r[:maxBriefLen]) + "..."
	}
	return brief, nil
}
