// Package clarifier simulates the human who holds a problem's hidden
// context and answers the agent's clarification questions.
package clarifier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/engine"
	"github.com/sells-group/annobench/internal/model"
)

// Responder is the clarifier port. Reset binds the responder to one
// problem's hidden context and clears any per-problem state; a Responder
// serves exactly one agent run at a time.
type Responder interface {
	Respond(ctx context.Context, question string) (string, error)
	Reset(p model.Problem)
}

// ModeHard answers yes/no/idk judged against the full hidden context.
// ModeEasy plays the two-phase category protocol instead.
const (
	ModeHard = "hard"
	ModeEasy = "easy"
)

// New builds the responder for the given mode. Hard mode needs a judge
// engine; easy mode is fully scripted.
func New(mode string, judge engine.Engine) (Responder, error) {
	switch mode {
	case ModeHard:
		if judge == nil {
			return nil, eris.New("clarifier: hard mode requires a judge engine")
		}
		return NewLLMResponder(judge), nil
	case ModeEasy:
		return NewScriptedResponder(), nil
	default:
		return nil, eris.Errorf("clarifier: unknown mode %q", mode)
	}
}
