package responder

import (
	"regexp"
	"strings"

	"greywaterbot/internal/catalog"
	"greywaterbot/internal/domain"
)

var suggestPattern = regexp.MustCompile(`(?i)\[SUGGEST:\s*([^\]]+)\]`)

// Suggestions is a reply with its [SUGGEST: ...] tags resolved and removed.
type Suggestions struct {
	CleanReply string
	Products   []domain.CatalogEntry
	Solutions  []domain.CatalogEntry
	Articles   []domain.CatalogEntry
}

// All returns products, then solutions, then articles.
func (s Suggestions) All() []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, 0, len(s.Products)+len(s.Solutions)+len(s.Articles))
	out = append(out, s.Products...)
	out = append(out, s.Solutions...)
	return append(out, s.Articles...)
}

// ParseContentSuggestions resolves every "type:keyword" pair found in
// [SUGGEST: ...] tags against cat. Pairs that do not split into exactly two
// parts, unknown types, and keywords with no match are skipped. Each kind is
// deduplicated by id and capped at catalog.MaxProducts/MaxSolutions/MaxArticles.
func ParseContentSuggestions(reply string, cat *catalog.Catalog) Suggestions {
	found := map[domain.EntryKind][]domain.CatalogEntry{}

	for _, m := range suggestPattern.FindAllStringSubmatch(reply, -1) {
		for _, pair := range strings.Split(m[1], ",") {
			parts := strings.Split(strings.TrimSpace(pair), ":")
			if len(parts) != 2 {
				continue
			}
			kind := domain.EntryKind(strings.ToLower(strings.TrimSpace(parts[0])))
			keyword := strings.ToLower(strings.TrimSpace(parts[1]))
			if keyword == "" {
				continue
			}
			entry, ok := cat.Match(kind, keyword)
			if !ok || containsID(found[kind], entry.ID) {
				continue
			}
			found[kind] = append(found[kind], entry)
		}
	}

	return Suggestions{
		CleanReply: strings.TrimSpace(suggestPattern.ReplaceAllString(reply, "")),
		Products:   capped(found[domain.KindProduct], catalog.MaxProducts),
		Solutions:  capped(found[domain.KindSolution], catalog.MaxSolutions),
		Articles:   capped(found[domain.KindArticle], catalog.MaxArticles),
	}
}

func containsID(entries []domain.CatalogEntry, id string) bool {
	for _, e := range entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

func capped(entries []domain.CatalogEntry, n int) []domain.CatalogEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}
