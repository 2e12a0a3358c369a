// Package gemini implements domain.NarrativeGenerator on the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"google.golang.org/genai"

	"github.com/fairyhunter13/cv-matcher/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/cv-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/cv-matcher/internal/config"
	"github.com/fairyhunter13/cv-matcher/internal/domain"
	"github.com/fairyhunter13/cv-matcher/internal/service/ratelimiter"
)

const (
	provider = "gemini"
	// LimiterKey names the shared token bucket guarding generation calls.
	LimiterKey = "narrative:gemini"

	systemInstruction = "You are an experienced technical recruiter. Answer in plain prose without markdown or lists."
	maxOutputTokens   = 400
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator produces recommendation prose with retries and rate limiting.
type Generator struct {
	models  contentGenerator
	model   string
	limiter ratelimiter.Limiter
	counter *tokencount.Counter
	backoff func() backoff.BackOff
}

// New constructs a Generator for the Gemini API backend.
func New(ctx context.Context, cfg config.Config, limiter ratelimiter.Limiter) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY missing", domain.ErrInvalidArgument)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	maxElapsed, initial, maxInterval, multiplier := cfg.GetNarrativeBackoffConfig()
	g := newGenerator(client.Models, cfg.GeminiModel, limiter)
	g.backoff = func() backoff.BackOff {
		expo := backoff.NewExponentialBackOff()
		expo.MaxElapsedTime = maxElapsed
		expo.InitialInterval = initial
		expo.MaxInterval = maxInterval
		expo.Multiplier = multiplier
		return expo
	}
	return g, nil
}

func newGenerator(m contentGenerator, model string, limiter ratelimiter.Limiter) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = "gemini-2.5-pro"
	}
	return &Generator{
		models:  m,
		model:   model,
		limiter: limiter,
		counter: tokencount.DefaultCounter,
		backoff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Model returns the configured model id.
func (g *Generator) Model() string { return g.model }

// Generate sends prompt to the model and returns the joined text parts.
func (g *Generator) Generate(ctx domain.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt must not be empty", domain.ErrInvalidArgument)
	}
	if err := ratelimiter.Wait(ctx, g.limiter, LimiterKey, 1); err != nil {
		return "", fmt.Errorf("op=narrative.wait: %w: %v", domain.ErrUpstreamTimeout, err)
	}
	if g.counter != nil {
		observability.ObservePromptTokens(g.counter.Estimate(prompt, g.model))
	}

	temperature := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   maxOutputTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}

	lg := observability.LoggerFromContext(ctx)
	start := time.Now()
	var out string
	op := func() error {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			if code := apiErrorCode(err); code >= 400 && code < 500 && code != http.StatusTooManyRequests {
				lg.Warn("narrative provider 4xx", slog.String("provider", provider), slog.Int("status", code), slog.Any("error", err))
				return backoff.Permanent(err)
			}
			lg.Warn("narrative provider error, retrying", slog.String("provider", provider), slog.Any("error", err))
			return err
		}
		out = responseText(resp)
		return nil
	}
	err := backoff.Retry(op, backoff.WithContext(g.backoff(), ctx))
	if err != nil {
		observability.ObserveNarrative(provider, "error", time.Since(start))
		return "", classify(err)
	}
	if out == "" {
		observability.ObserveNarrative(provider, "empty", time.Since(start))
		return "", fmt.Errorf("op=narrative.generate: %w: empty response", domain.ErrInternal)
	}
	observability.ObserveNarrative(provider, "ok", time.Since(start))
	lg.Debug("narrative generated", slog.String("provider", provider), slog.String("model", g.model), slog.Int("chars", len(out)))
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" || part.Thought {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}

func apiErrorCode(err error) int {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return p.Code
	}
	return 0
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("op=narrative.generate: %w: %v", domain.ErrUpstreamTimeout, err)
	case apiErrorCode(err) == http.StatusTooManyRequests:
		return fmt.Errorf("op=narrative.generate: %w: %v", domain.ErrUpstreamRateLimit, err)
	case apiErrorCode(err) >= 400 && apiErrorCode(err) < 500:
		return fmt.Errorf("op=narrative.generate: %w: %v", domain.ErrInvalidArgument, err)
	default:
		return fmt.Errorf("op=narrative.generate: %w", err)
	}
}
