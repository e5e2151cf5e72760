package clarifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/sells-group/annobench/internal/model"
)

// ScriptedResponder plays the two-phase category protocol: the first
// question returns the catalog of category identifiers, and a follow-up
// naming one category returns its detail items verbatim.
type ScriptedResponder struct {
	categories      []model.Category
	catalogProvided bool
}

// NewScriptedResponder creates an easy-mode responder.
func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{}
}

func (r *ScriptedResponder) Reset(p model.Problem) {
	r.categories = p.Categories
	r.catalogProvided = false
}

func (r *ScriptedResponder) Respond(_ context.Context, question string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(question))

	if !r.catalogProvided {
		if len(r.categories) == 0 {
			return "No information categories available.", nil
		}
		r.catalogProvided = true
		return fmt.Sprintf(
			"Available information categories: %s. Please choose a specific category name (e.g., %s).",
			r.formatCatalog(), r.categories[0].ID), nil
	}

	if cat, ok := r.selectCategory(lower); ok {
		if len(cat.Items) == 0 {
			return fmt.Sprintf("No detailed information available for %s.", cat.ID), nil
		}
		return strings.Join(cat.Items, " | "), nil
	}

	return "I already provided the available categories. Please choose a specific category name", nil
}

func (r *ScriptedResponder) formatCatalog() string {
	parts := make([]string, 0, len(r.categories))
	for _, c := range r.categories {
		parts = append(parts, c.ID+": "+c.Desc)
	}
	return strings.Join(parts, "; ")
}

func (r *ScriptedResponder) selectCategory(question string) (model.Category, bool) {
	for _, c := range r.categories {
		if strings.Contains(question, strings.ToLower(c.ID)) {
			return c, true
		}
	}
	return model.Category{}, false
}
