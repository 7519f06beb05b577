// Package catalog holds the product, solution, and article cards the chat
// bot can attach to a reply, and the keyword matching that selects them.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"greywaterbot/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var catalogYAML []byte

// basePlaceholder is replaced with the site URL when the catalog is loaded.
const basePlaceholder = "${base}"

// Caps on how many entries of each kind a reply carries.
const (
	MaxProducts  = 2
	MaxSolutions = 1
	MaxArticles  = 1
)

// Catalog is three disjoint, immutable entry lists.
type Catalog struct {
	Products  []domain.CatalogEntry `yaml:"products"`
	Solutions []domain.CatalogEntry `yaml:"solutions"`
	Articles  []domain.CatalogEntry `yaml:"articles"`
}

// LoadEmbedded parses the built-in catalog with links rooted at baseURL.
func LoadEmbedded(baseURL string) (*Catalog, error) {
	return Parse(catalogYAML, baseURL)
}

// Parse decodes a catalog document, substituting ${base} with baseURL.
func Parse(data []byte, baseURL string) (*Catalog, error) {
	data = bytes.ReplaceAll(data, []byte(basePlaceholder), []byte(strings.TrimRight(baseURL, "/")))

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	setKind(c.Products, domain.KindProduct)
	setKind(c.Solutions, domain.KindSolution)
	setKind(c.Articles, domain.KindArticle)
	return &c, nil
}

func setKind(entries []domain.CatalogEntry, kind domain.EntryKind) {
	for i := range entries {
		entries[i].Kind = kind
		for j, kw := range entries[i].Keywords {
			entries[i].Keywords[j] = strings.ToLower(kw)
		}
	}
}

// Entries returns the list for kind, or nil for an unknown kind.
func (c *Catalog) Entries(kind domain.EntryKind) []domain.CatalogEntry {
	switch kind {
	case domain.KindProduct:
		return c.Products
	case domain.KindSolution:
		return c.Solutions
	case domain.KindArticle:
		return c.Articles
	}
	return nil
}

// Match returns the first entry of kind with a keyword that contains, or is
// contained in, keyword. Short keywords match loosely; that is accepted.
func (c *Catalog) Match(kind domain.EntryKind, keyword string) (domain.CatalogEntry, bool) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return domain.CatalogEntry{}, false
	}
	for _, e := range c.Entries(kind) {
		for _, k := range e.Keywords {
			if strings.Contains(k, keyword) || strings.Contains(keyword, k) {
				return e, true
			}
		}
	}
	return domain.CatalogEntry{}, false
}

// Detected is the result of scanning a raw user message for catalog keywords.
type Detected struct {
	Products  []domain.CatalogEntry
	Solutions []domain.CatalogEntry
	Articles  []domain.CatalogEntry
}

// All returns products, then solutions, then articles.
func (d Detected) All() []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(d.Products)+len(d.Solutions)+len(d.Articles))
	out = append(out, d.Products...)
	out = append(out, d.Solutions...)
	return append(out, d.Articles...)
}

// DetectRelevantContent finds entries whose keywords appear in message,
// capped per kind.
func (c *Catalog) DetectRelevantContent(message string) Detected {
	lower := strings.ToLower(message)
	return Detected{
		Products:  containing(c.Products, lower, MaxProducts),
		Solutions: containing(c.Solutions, lower, MaxSolutions),
		Articles:  containing(c.Articles, lower, MaxArticles),
	}
}

func containing(entries []domain.CatalogEntry, lower string, limit int) []domain.CatalogEntry {
	var out []domain.CatalogEntry
	for _, e := range entries {
		if len(out) == limit {
			break
		}
		for _, k := range e.Keywords {
			if strings.Contains(lower, k) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// FormatAsCards renders entries as Chatwoot card items. Products show their
// price in the title and link as "View Product".
func FormatAsCards(entries []domain.CatalogEntry) []domain.Card {
	cards := make([]domain.Card, 0, len(entries))
	for _, e := range entries {
		title, action := e.Name, "Learn More"
		if e.Kind == domain.KindProduct {
			title = e.Name + " - " + e.Price
			action = "View Product"
		}
		cards = append(cards, domain.Card{
			Title:       title,
			Description: e.Description,
			MediaURL:    e.Image,
			Actions:     []domain.CardAction{{Type: "link", Text: action, URI: e.URL}},
		})
	}
	return cards
}
