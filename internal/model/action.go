package model

import "strings"

// ActionKind classifies an agent action.
type ActionKind string

const (
	ActionAsk     ActionKind = "ask"
	ActionSearch  ActionKind = "search"
	ActionAnswer  ActionKind = "answer"
	ActionInvalid ActionKind = "invalid"
)

// Action is the classified form of a raw agent action string. Classification
// happens exactly once; everything downstream dispatches on Kind.
type Action struct {
	Kind    ActionKind
	Payload string
}

// ParseAction classifies a raw action string by its prefix. The grammar is
// "ask:<text>", "search:<text>", "answer:<text>" (prefixes matched
// case-insensitively); anything else is invalid and carries the raw text as
// its payload.
func ParseAction(raw string) Action {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	for _, kind := range []ActionKind{ActionAsk, ActionSearch, ActionAnswer} {
		prefix := string(kind) + ":"
		if strings.HasPrefix(lower, prefix) {
			return Action{
				Kind:    kind,
				Payload: strings.TrimSpace(trimmed[len(prefix):]),
			}
		}
	}

	return Action{Kind: ActionInvalid, Payload: trimmed}
}
