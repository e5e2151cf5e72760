// Package dataset loads problem sets from newline-delimited JSON and
// normalizes the dataset-specific record shapes into model.Problem.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/model"
)

// rawRecord is the union of the JSONL shapes in the wild. Plain records use
// question/answer; the hidden-answer variant uses q0/B_hidden/A_pop with
// categorized context.
type rawRecord struct {
	ID           string           `json:"id"`
	Question     string           `json:"question"`
	Answer       string           `json:"answer"`
	PopularWrong string           `json:"popular_wrong"`
	Domain       string           `json:"domain"`
	Context      string           `json:"context"`
	Categories   []model.Category `json:"categories"`

	Q0           string      `json:"q0"`
	BHidden      string      `json:"B_hidden"`
	APop         string      `json:"A_pop"`
	AllowedSlots []slotSpec  `json:"allowed_slots"`
	Packs        []slotItems `json:"packs"`
}

type slotSpec struct {
	ID   string `json:"id"`
	Desc string `json:"desc"`
}

type slotItems struct {
	Slot  string   `json:"slot"`
	Items []string `json:"items"`
}

// Load reads a JSONL problem set, normalizing each record. Blank lines are
// skipped; a malformed line fails the whole load with its line number.
func Load(r io.Reader) ([]model.Problem, error) {
	var problems []model.Problem

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var raw rawRecord
		if err := json.Unmarshal(text, &raw); err != nil {
			return nil, eris.Wrapf(err, "dataset: parse line %d", line)
		}

		problem, err := normalize(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: line %d", line)
		}
		problems = append(problems, problem)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: read")
	}

	return problems, nil
}

// LoadFile reads a JSONL problem set from disk.
func LoadFile(path string) ([]model.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open")
	}
	defer f.Close() //nolint:errcheck

	return Load(f)
}

func normalize(raw rawRecord) (model.Problem, error) {
	switch {
	case strings.TrimSpace(raw.Question) != "":
		return model.Problem{
			ID:           raw.ID,
			Question:     raw.Question,
			Answer:       raw.Answer,
			PopularWrong: raw.PopularWrong,
			Domain:       raw.Domain,
			Context:      raw.Context,
			Categories:   raw.Categories,
		}, nil

	case strings.TrimSpace(raw.Q0) != "":
		return model.Problem{
			ID:           raw.ID,
			Question:     raw.Q0,
			Answer:       raw.BHidden,
			PopularWrong: raw.APop,
			Domain:       raw.Domain,
			Categories:   mergeCategories(raw.AllowedSlots, raw.Packs),
		}, nil

	default:
		return model.Problem{}, eris.New("record has neither question nor q0")
	}
}

// mergeCategories joins the catalog (id, desc) with the per-slot detail
// items, preserving catalog order. Packs without a catalog entry are
// appended so no hidden context is dropped.
func mergeCategories(slots []slotSpec, packs []slotItems) []model.Category {
	itemsBySlot := make(map[string][]string, len(packs))
	for _, p := range packs {
		itemsBySlot[p.Slot] = p.Items
	}

	cats := make([]model.Category, 0, len(slots))
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		seen[s.ID] = true
		cats = append(cats, model.Category{
			ID:    s.ID,
			Desc:  s.Desc,
			Items: itemsBySlot[s.ID],
		})
	}

	for _, p := range packs {
		if !seen[p.Slot] {
			cats = append(cats, model.Category{ID: p.Slot, Items: p.Items})
		}
	}
	return cats
}
