package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pagelift/pagelift/internal/models"
)

// Client wraps the Anthropic API for reviewer-note generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildNotesPrompt constructs the system and user prompts for review notes.
func buildNotesPrompt(file models.PlannedFile, diff string) (system string, user string) {
	system = `You write short review notes for a human approving website content changes. Given a planned file change and its diff, return ONLY a JSON array of 1-4 strings. Each string is one concise note (under 120 characters) a reviewer should check before approving.

Rules:
- Focus on what changed and anything risky: removed content, changed contact details, claims that need verification
- Never restate the diff line by line
- If the change is trivial, return a single note saying so
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("File: ")
	sb.WriteString(file.FilePath)
	sb.WriteString("\nAction: ")
	sb.WriteString(string(file.Action))
	sb.WriteString("\nPage URL: ")
	sb.WriteString(file.URL)
	sb.WriteString("\n\nDiff:\n")
	sb.WriteString(diff)
	user = sb.String()
	return
}

// ReviewNotes asks the model for reviewer notes on a planned change.
func (c *Client) ReviewNotes(ctx context.Context, file models.PlannedFile, diff string) ([]string, error) {
	systemPrompt, userPrompt := buildNotesPrompt(file, diff)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	// Strip markdown fencing if present
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var notes []string
	if err := json.Unmarshal([]byte(text), &notes); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	return notes, nil
}
