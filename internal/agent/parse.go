package agent

import (
	"regexp"
	"strings"
)

// Diagnostic sentinels returned when a model response lacks the expected
// tags. They are fed back into the next prompt so the model sees what went
// wrong.
const (
	missingThought = "can not find formatted thought, i need to use <thought></thought>"
	missingAction  = "can not find formatted action, i need to use <action></action>"
)

var (
	fenceRe   = regexp.MustCompile("(?is)```(?:\\w+)?\\s*(.*?)```")
	thoughtRe = regexp.MustCompile(`(?is)<\s*thought\s*>(.*?)</\s*thought\s*>`)
	actionRe  = regexp.MustCompile(`(?is)<\s*action\s*>(.*?)</\s*action\s*>`)
)

// parseResponse extracts the first <thought> and <action> segments from a
// model response, stripping an enclosing code fence first. Missing tags
// degrade to diagnostic sentinels, never an error.
func parseResponse(response string) (thought, action string) {
	text := strings.TrimSpace(response)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	tm := thoughtRe.FindStringSubmatch(text)
	am := actionRe.FindStringSubmatch(text)
	if tm == nil || am == nil {
		return missingThought, missingAction
	}

	return strings.TrimSpace(tm[1]), strings.TrimSpace(am[1])
}
