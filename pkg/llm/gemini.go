package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// Config holds the Gemini settings.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration // per call; zero means no extra deadline
}

// LatencyObserver receives the duration and outcome of each model call.
type LatencyObserver interface {
	ObserveLLMCall(outcome string, d time.Duration)
}

// Gemini implements Generator over the Gemini API.
type Gemini struct {
	client   *genai.Client
	model    string
	timeout  time.Duration
	logger   *slog.Logger
	tracer   trace.Tracer
	observer LatencyObserver
}

// NewGemini creates a Gemini client. An empty API key returns
// ErrMissingAPIKey so callers can choose the no-credential path up front.
func NewGemini(ctx context.Context, cfg Config, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
		tracer:  otel.Tracer("household-budget/llm"),
	}, nil
}

// WithObserver records call latency.
func (g *Gemini) WithObserver(o LatencyObserver) *Gemini {
	g.observer = o
	return g
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Generate sends parts as one user turn and asks for a JSON answer.
func (g *Gemini) Generate(ctx context.Context, parts ...Part) (string, error) {
	ctx, span := g.tracer.Start(ctx, "llm.Generate", trace.WithAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("llm.parts", len(parts)),
	))
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: toGenaiParts(parts),
	}}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	elapsed := time.Since(start)
	if err != nil {
		g.observe("error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		g.observe("empty", elapsed)
		span.SetStatus(codes.Error, "empty response")
		return "", ErrEmptyResponse
	}

	g.observe("ok", elapsed)
	g.logger.Debug("model call complete",
		slog.String("model", g.model),
		slog.Duration("elapsed", elapsed),
		slog.Int("response_bytes", len(text)),
	)
	return text, nil
}

func (g *Gemini) observe(outcome string, d time.Duration) {
	if g.observer != nil {
		g.observer.ObserveLLMCall(outcome, d)
	}
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data}})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}
