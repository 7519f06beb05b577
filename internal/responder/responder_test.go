package responder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"greywaterbot/internal/catalog"
	"greywaterbot/internal/domain"
	"greywaterbot/internal/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	reply string
	err   error
	calls []domain.ChatRequest
}

func (m *mockProvider) Chat(_ context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ChatResponse{Content: m.reply, FinishReason: "stop", LatencyMs: 120}, nil
}

func (m *mockProvider) Name() string                   { return "mock" }
func (m *mockProvider) Healthy(_ context.Context) error { return nil }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadEmbedded("https://shop.example.com")
	require.NoError(t, err)
	return c
}

func newTestResponder(t *testing.T, p domain.Provider) *Responder {
	t.Helper()
	kb, err := knowledge.LoadEmbedded()
	require.NoError(t, err)
	return New(Config{
		Provider:  p,
		Knowledge: kb,
		Catalog:   testCatalog(t),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func entryIDs(entries []domain.CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestParseContentSuggestions(t *testing.T) {
	s := ParseContentSuggestions("The gravity model is $625. [SUGGEST: product:gravity, solution:rv]", testCatalog(t))

	assert.Equal(t, "The gravity model is $625.", s.CleanReply)
	assert.Equal(t, []string{"gwdd-gravity"}, entryIDs(s.Products))
	assert.Equal(t, []string{"rvs"}, entryIDs(s.Solutions))
	assert.Empty(t, s.Articles)
	assert.Equal(t, []string{"gwdd-gravity", "rvs"}, entryIDs(s.All()))
}

func TestParseContentSuggestions_CapsPerKind(t *testing.T) {
	reply := "Options below. [SUGGEST: product:gravity, product:pro, product:filter] " +
		"[SUGGEST: solution:rv, solution:cabin] [SUGGEST: article:what is, article:blog]"
	s := ParseContentSuggestions(reply, testCatalog(t))

	assert.Equal(t, "Options below.", s.CleanReply)
	assert.Equal(t, []string{"gwdd-gravity", "pro"}, entryIDs(s.Products))
	assert.Equal(t, []string{"rvs"}, entryIDs(s.Solutions))
	assert.Equal(t, []string{"what-is-greywater"}, entryIDs(s.Articles))
}

func TestParseContentSuggestions_DedupByID(t *testing.T) {
	s := ParseContentSuggestions("[SUGGEST: product:gravity, product:budget]", testCatalog(t))
	assert.Equal(t, []string{"gwdd-gravity"}, entryIDs(s.Products))
	assert.Empty(t, s.CleanReply)
}

func TestParseContentSuggestions_SkipsMalformedPairs(t *testing.T) {
	s := ParseContentSuggestions("Hi [SUGGEST: product, a:b:c, video:rv, solution: , zzz:zzz]", testCatalog(t))
	assert.Equal(t, "Hi", s.CleanReply)
	assert.Empty(t, s.All())
}

func TestParseContentSuggestions_CaseInsensitiveTag(t *testing.T) {
	s := ParseContentSuggestions("Greywater is reused water.\n[suggest: Article:What Is]", testCatalog(t))
	assert.Equal(t, "Greywater is reused water.", s.CleanReply)
	assert.Equal(t, []string{"what-is-greywater"}, entryIDs(s.Articles))
}

func TestParseContentSuggestions_NoTags(t *testing.T) {
	s := ParseContentSuggestions("  plain answer  ", testCatalog(t))
	assert.Equal(t, "plain answer", s.CleanReply)
	assert.Empty(t, s.All())
}

func TestGenerate_RequestShape(t *testing.T) {
	p := &mockProvider{reply: "Greywater is water from sinks and showers."}
	r := newTestResponder(t, p)

	got := r.Generate(context.Background(), "what is greywater")
	assert.Equal(t, "Greywater is water from sinks and showers.", got)

	require.Len(t, p.calls, 1)
	req := p.calls[0]
	assert.Equal(t, defaultModel, req.Model)
	assert.Equal(t, 400, req.MaxTokens)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.True(t, strings.HasPrefix(req.Messages[0].Content, SystemPrompt))
	assert.Contains(t, req.Messages[0].Content, "## What is Greywater - Definition and Sources")
	assert.Equal(t, domain.Message{Role: "user", Content: "what is greywater"}, req.Messages[1])
}

func TestGenerate_FallsBackToWholeCorpus(t *testing.T) {
	p := &mockProvider{reply: "ok"}
	r := newTestResponder(t, p)

	r.Generate(context.Background(), "zz")
	require.Len(t, p.calls, 1)
	assert.Equal(t, SystemPrompt+r.knowledge.AllKnowledge(), p.calls[0].Messages[0].Content)
}

func TestGenerate_ProviderErrorYieldsFallback(t *testing.T) {
	r := newTestResponder(t, &mockProvider{err: errors.New("connection refused")})
	got := r.Generate(context.Background(), "how much is the pro?")
	assert.Equal(t, FallbackReply, got)
	assert.Contains(t, got, "(678) 809-3008")
	assert.Contains(t, got, "sales@waterwisegroup.com")
}

func TestGenerate_EmptyContentYieldsFallback(t *testing.T) {
	r := newTestResponder(t, &mockProvider{reply: "  \n"})
	assert.Equal(t, FallbackReply, r.Generate(context.Background(), "hello"))
}

func TestCompose_UsesSuggestions(t *testing.T) {
	r := newTestResponder(t, &mockProvider{reply: "Our RV kit works well. [SUGGEST: solution:rv]"})
	reply := r.Compose(context.Background(), "anything for campers?")

	assert.Equal(t, "Our RV kit works well.", reply.Text)
	require.Len(t, reply.Cards, 1)
	assert.Equal(t, "RV & Camper Systems", reply.Cards[0].Title)
}

func TestCompose_KeywordScanFallbackCappedToTwo(t *testing.T) {
	r := newTestResponder(t, &mockProvider{reply: "Happy to help with that."})
	reply := r.Compose(context.Background(), "I have an RV and want a cheap system")

	assert.Equal(t, "Happy to help with that.", reply.Text)
	require.Len(t, reply.Cards, 2)
	assert.Equal(t, "Aqua2use Greywater Systems - From $599", reply.Cards[0].Title)
	assert.Equal(t, "RV & Camper Systems", reply.Cards[1].Title)
}

func TestCompose_NoCards(t *testing.T) {
	r := newTestResponder(t, &mockProvider{err: errors.New("timeout")})
	reply := r.Compose(context.Background(), "tell me a joke")

	assert.Equal(t, FallbackReply, reply.Text)
	assert.Empty(t, reply.Cards)
}
