package model

import (
	"fmt"
	"strings"
)

// TurnRecord captures one decision cycle of an agent run. Records are
// append-only and immutable once added to a Transcript.
type TurnRecord struct {
	Turn          int            `json:"turn"`
	Thought       string         `json:"thought,omitempty"`
	RawAction     string         `json:"action,omitempty"`
	Kind          ActionKind     `json:"action_kind"`
	QuestionAsked string         `json:"question_asked,omitempty"`
	Response      string         `json:"response,omitempty"`
	SearchQuery   string         `json:"search_query,omitempty"`
	SearchResults []SearchResult `json:"search_results,omitempty"`
	FinalAnswer   string         `json:"final_answer,omitempty"`
	Forced        bool           `json:"forced,omitempty"`
	CostUSD       float64        `json:"cost_usd"`
	Err           string         `json:"error,omitempty"`
}

// Transcript is the ordered sequence of turn records for one agent run. It
// grows monotonically during the run and is frozen when the run returns.
type Transcript []TurnRecord

// String renders the transcript as a deterministic, order-preserving dump
// suitable for embedding in a decision prompt.
func (t Transcript) String() string {
	if len(t) == 0 {
		return "(no prior turns)"
	}

	var b strings.Builder
	for _, r := range t {
		fmt.Fprintf(&b, "Turn %d [%s]", r.Turn, r.Kind)
		if r.Thought != "" {
			fmt.Fprintf(&b, " thought: %s", r.Thought)
		}
		switch r.Kind {
		case ActionAsk:
			fmt.Fprintf(&b, " | asked: %s | response: %s", r.QuestionAsked, r.Response)
		case ActionSearch:
			fmt.Fprintf(&b, " | query: %s | results:", r.SearchQuery)
			if len(r.SearchResults) == 0 {
				b.WriteString(" none")
			}
			for i, res := range r.SearchResults {
				fmt.Fprintf(&b, "\n  %d. %s — %s (%s)", i+1, res.Title, res.Snippet, res.Source)
			}
		case ActionAnswer:
			fmt.Fprintf(&b, " | answer: %s", r.FinalAnswer)
			if r.Forced {
				b.WriteString(" (forced)")
			}
		default:
			fmt.Fprintf(&b, " | invalid action: %s", r.RawAction)
		}
		if r.Err != "" {
			fmt.Fprintf(&b, " | error: %s", r.Err)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summary renders the compact per-turn digest used in report rows, e.g.
// "T1:Ask(is it red?) Result:Yes; T2:Search(apple)(3 results); T3:Answer(apple)".
func (t Transcript) Summary() string {
	if len(t) == 0 {
		return "No interactions"
	}

	parts := make([]string, 0, len(t))
	for _, r := range t {
		switch r.Kind {
		case ActionAsk:
			parts = append(parts, fmt.Sprintf("T%d:Ask(%s) Result:%s", r.Turn, r.QuestionAsked, r.Response))
		case ActionSearch:
			parts = append(parts, fmt.Sprintf("T%d:Search(%s)(%d results)", r.Turn, r.SearchQuery, len(r.SearchResults)))
		case ActionAnswer:
			forced := ""
			if r.Forced {
				forced = " (forced)"
			}
			parts = append(parts, fmt.Sprintf("T%d:Answer(%s)%s", r.Turn, r.FinalAnswer, forced))
		default:
			parts = append(parts, fmt.Sprintf("T%d:Invalid", r.Turn))
		}
	}
	return strings.Join(parts, "; ")
}

// TotalCost sums the per-turn costs.
func (t Transcript) TotalCost() float64 {
	var total float64
	for _, r := range t {
		total += r.CostUSD
	}
	return total
}

// Terminated reports whether the transcript ends with an answer record.
func (t Transcript) Terminated() bool {
	return len(t) > 0 && t[len(t)-1].Kind == ActionAnswer
}
