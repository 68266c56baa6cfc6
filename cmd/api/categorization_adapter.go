package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FACorreiaa/household-budget/pkg/config"
	"github.com/FACorreiaa/household-budget/pkg/llm"
	"github.com/FACorreiaa/household-budget/pkg/metrics"
)

// newCategorizationGenerator builds the model client shared by the
// categorizer and the document extractor. Without a key it returns a nil
// interface, not a typed nil *llm.Gemini, so both fall back to their
// unavailable mode.
func newCategorizationGenerator(ctx context.Context, cfg config.GeminiConfig, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) (llm.Generator, error) {
	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: timeout,
	}, logger)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		logger.Warn("GEMINI_API_KEY not set, automatic categorization and document import are disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logger.Info("categorization model ready", slog.String("model", gemini.Model()))
	return gemini.WithObserver(m), nil
}
