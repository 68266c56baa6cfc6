// Package llm wraps the language model used for statement categorization
// and document extraction.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrMissingAPIKey is returned when no model credential is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Part is one piece of a prompt: text, or inline binary data such as a PDF.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
}

// TextPart is shorthand for a text-only part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// Generator sends a single-turn prompt and returns the model's text answer.
type Generator interface {
	Generate(ctx context.Context, parts ...Part) (string, error)
}

// CleanJSON strips markdown code fences and any text around the outermost
// JSON array in a model response.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.Trim(s, "`")
		}
		s = strings.TrimSpace(s[idx+1:])
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
