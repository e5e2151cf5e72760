// Package model defines the shared data types for annotation evaluation:
// problems, agent transcripts, per-engine verdicts, and consensus results.
package model

import "strings"

// Problem is one annotation from a problem set: a deliberately obscure
// question, its hidden ground-truth answer, and the context the simulated
// human answers clarification questions from. Problems are immutable once
// loaded.
type Problem struct {
	ID           string     `json:"id,omitempty"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	PopularWrong string     `json:"popular_wrong,omitempty"`
	Domain       string     `json:"domain,omitempty"`
	Context      string     `json:"context,omitempty"`
	Categories   []Category `json:"categories,omitempty"`
}

// Category is one structured bucket of hidden context. Datasets that ship
// categorized context (the two-phase clarifier protocol) populate these;
// free-text datasets leave them empty and use Context directly.
type Category struct {
	ID    string   `json:"id"`
	Desc  string   `json:"desc,omitempty"`
	Items []string `json:"items"`
}

// ContextText returns the hidden context as a flat text block. For
// categorized problems the items are flattened to "category: item" lines so
// an LLM clarifier can judge against them.
func (p Problem) ContextText() string {
	if p.Context != "" {
		return p.Context
	}
	var b strings.Builder
	for _, cat := range p.Categories {
		for _, item := range cat.Items {
			b.WriteString(cat.ID)
			b.WriteString(": ")
			b.WriteString(item)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// SearchResult is a single record returned by a search backend.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}
