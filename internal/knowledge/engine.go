// Package knowledge holds the support knowledge base and the keyword scorer
// that picks which sections ground a chat reply.
package knowledge

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"greywaterbot/internal/domain"

	"gopkg.in/yaml.v3"
)

// DefaultMaxSections is how many sections ground a reply when the caller does not say.
const DefaultMaxSections = 4

// Scoring weights.
const (
	keywordInQueryScore = 15
	keywordWordScore    = 7
	contentWordScore    = 3
	titleWordScore      = 10
)

//go:embed data/sections.yaml
var sectionsYAML []byte

// Engine scores a fixed corpus against user messages. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	sections []domain.KnowledgeDocument
	// lower-cased copies, computed once
	lowerTitles   []string
	lowerContents []string
	lowerKeywords [][]string
}

// NewEngine builds an engine over the given sections, in corpus order.
func NewEngine(sections []domain.KnowledgeDocument) *Engine {
	e := &Engine{
		sections:      sections,
		lowerTitles:   make([]string, len(sections)),
		lowerContents: make([]string, len(sections)),
		lowerKeywords: make([][]string, len(sections)),
	}
	for i, s := range sections {
		e.lowerTitles[i] = strings.ToLower(s.Title)
		e.lowerContents[i] = strings.ToLower(s.Content)
		kws := make([]string, len(s.Keywords))
		for j, kw := range s.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		e.lowerKeywords[i] = kws
	}
	return e
}

// LoadEmbedded parses the built-in knowledge base.
func LoadEmbedded() (*Engine, error) {
	sections, err := Parse(sectionsYAML)
	if err != nil {
		return nil, err
	}
	return NewEngine(sections), nil
}

// Parse decodes a YAML document of the form `sections: [{title, content, keywords}]`.
func Parse(data []byte) ([]domain.KnowledgeDocument, error) {
	var doc struct {
		Sections []domain.KnowledgeDocument `yaml:"sections"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse knowledge base: %w", err)
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("parse knowledge base: no sections")
	}
	return doc.Sections, nil
}

// Sections returns the corpus in its original order.
func (e *Engine) Sections() []domain.KnowledgeDocument {
	return e.sections
}

// FindRelevantSections returns up to maxSections documents with a positive
// score, highest first. Ties keep corpus order.
func (e *Engine) FindRelevantSections(query string, maxSections int) []domain.KnowledgeDocument {
	if maxSections <= 0 {
		maxSections = DefaultMaxSections
	}

	queryLower := strings.ToLower(query)
	var queryWords []string
	for _, w := range strings.Fields(queryLower) {
		if len(w) > 2 {
			queryWords = append(queryWords, w)
		}
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i := range e.sections {
		if s := e.score(i, queryLower, queryWords); s > 0 {
			hits = append(hits, scored{idx: i, score: s})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > maxSections {
		hits = hits[:maxSections]
	}
	out := make([]domain.KnowledgeDocument, len(hits))
	for i, h := range hits {
		out[i] = e.sections[h.idx]
	}
	return out
}

// score sums the four additive rules. A keyword can score under both the
// whole-query rule and the per-word rule.
func (e *Engine) score(i int, queryLower string, queryWords []string) int {
	score := 0

	for _, kw := range e.lowerKeywords[i] {
		if strings.Contains(queryLower, kw) {
			score += keywordInQueryScore
		}
		for _, w := range queryWords {
			if strings.Contains(kw, w) || strings.Contains(w, kw) {
				score += keywordWordScore
			}
		}
	}

	for _, w := range queryWords {
		if len(w) > 3 && strings.Contains(e.lowerContents[i], w) {
			score += contentWordScore
		}
	}

	for _, w := range queryWords {
		if strings.Contains(e.lowerTitles[i], w) {
			score += titleWordScore
		}
	}

	return score
}

// AllKnowledge renders the whole corpus as prompt context.
func (e *Engine) AllKnowledge() string {
	return render(e.sections)
}

// BuildContext renders the sections relevant to query, or the whole corpus
// when nothing scores, so a reply is never grounded on nothing.
func (e *Engine) BuildContext(query string, maxSections int) string {
	relevant := e.FindRelevantSections(query, maxSections)
	if len(relevant) == 0 {
		return e.AllKnowledge()
	}
	return render(relevant)
}

func render(sections []domain.KnowledgeDocument) string {
	parts := make([]string, len(sections))
	for i, s := range sections {
		parts[i] = "## " + s.Title + "\n" + s.Content
	}
	return strings.Join(parts, "\n\n")
}
