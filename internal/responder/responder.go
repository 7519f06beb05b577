// Package responder turns a customer message into a grounded assistant reply
// and the catalog cards that go with it.
package responder

import (
	"context"
	"log/slog"
	"strings"

	"greywaterbot/internal/catalog"
	"greywaterbot/internal/domain"
	"greywaterbot/internal/knowledge"
	"greywaterbot/internal/metrics"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultMaxTokens   = 400
	defaultTemperature = 0.3

	// maxDetectedCards caps the keyword-scan fallback when the model
	// suggested nothing usable.
	maxDetectedCards = 2
)

// Responder composes replies from the knowledge base and an LLM provider.
type Responder struct {
	provider    domain.Provider
	knowledge   *knowledge.Engine
	catalog     *catalog.Catalog
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// Config holds the dependencies and completion parameters for a Responder.
type Config struct {
	Provider    domain.Provider
	Knowledge   *knowledge.Engine
	Catalog     *catalog.Catalog
	Model       string
	MaxTokens   int
	Temperature float64 // zero means the default 0.3
	Logger      *slog.Logger
}

// New creates a Responder, filling unset completion parameters with defaults.
func New(cfg Config) *Responder {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Responder{
		provider:    cfg.Provider,
		knowledge:   cfg.Knowledge,
		catalog:     cfg.Catalog,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Reply is a composed answer: the text to send and the cards to attach.
type Reply struct {
	Text  string
	Cards []domain.Card
}

// Generate asks the provider for an answer grounded in the sections most
// relevant to message. It never fails: provider errors and empty answers
// yield FallbackReply.
func (r *Responder) Generate(ctx context.Context, message string) string {
	kb := r.knowledge.BuildContext(message, knowledge.DefaultMaxSections)

	resp, err := r.provider.Chat(ctx, domain.ChatRequest{
		Messages: []domain.Message{
			{Role: "system", Content: SystemPrompt + kb},
			{Role: "user", Content: message},
		},
		Model:       r.model,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		r.logger.Error("completion failed", "provider", r.provider.Name(), "err", err)
		metrics.LLMRequests.WithLabelValues("fallback").Inc()
		return FallbackReply
	}
	metrics.LLMLatency.Observe(float64(resp.LatencyMs) / 1000)

	if strings.TrimSpace(resp.Content) == "" {
		r.logger.Warn("empty completion", "provider", r.provider.Name(), "finish_reason", resp.FinishReason)
		metrics.LLMRequests.WithLabelValues("fallback").Inc()
		return FallbackReply
	}
	metrics.LLMRequests.WithLabelValues("ok").Inc()
	return resp.Content
}

// Compose generates a reply and resolves its cards. Cards come from the
// model's suggestion tags; when none resolve, the raw message is scanned
// for catalog keywords instead and at most two entries are kept.
func (r *Responder) Compose(ctx context.Context, message string) Reply {
	s := ParseContentSuggestions(r.Generate(ctx, message), r.catalog)

	entries := s.All()
	if len(entries) == 0 {
		entries = capped(r.catalog.DetectRelevantContent(message).All(), maxDetectedCards)
		if len(entries) > 0 {
			r.logger.Debug("no usable suggestions, using keyword scan", "cards", len(entries))
		}
	}
	return Reply{Text: s.CleanReply, Cards: catalog.FormatAsCards(entries)}
}
