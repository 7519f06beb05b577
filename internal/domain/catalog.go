package domain

// EntryKind partitions the content catalog.
type EntryKind string

const (
	KindProduct  EntryKind = "product"
	KindSolution EntryKind = "solution"
	KindArticle  EntryKind = "article"
)

// CatalogEntry is a product, solution page, or article that can be shown as a card.
// Price is only set for products.
type CatalogEntry struct {
	ID          string    `yaml:"id" json:"id"`
	Kind        EntryKind `yaml:"-" json:"kind"`
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Price       string    `yaml:"price,omitempty" json:"price,omitempty"`
	Image       string    `yaml:"image" json:"image"`
	URL         string    `yaml:"url" json:"url"`
	Keywords    []string  `yaml:"keywords" json:"keywords"`
}
