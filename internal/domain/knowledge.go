package domain

// KnowledgeDocument is one static topic of the support knowledge base.
type KnowledgeDocument struct {
	Title    string   `yaml:"title" json:"title"`
	Content  string   `yaml:"content" json:"content"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}
