package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantThought string
		wantAction  string
	}{
		{
			name:        "plain tags",
			response:    "<thought>need more info</thought>\n<action>ask:is it red?</action>",
			wantThought: "need more info",
			wantAction:  "ask:is it red?",
		},
		{
			name:        "case insensitive tags",
			response:    "<THOUGHT>hm</THOUGHT><Action>answer:apple</Action>",
			wantThought: "hm",
			wantAction:  "answer:apple",
		},
		{
			name:        "spaced tags",
			response:    "< thought >x</ thought >< action >search:q</ action >",
			wantThought: "x",
			wantAction:  "search:q",
		},
		{
			name:        "code fence wrapper",
			response:    "```xml\n<thought>fenced</thought><action>answer:42</action>\n```",
			wantThought: "fenced",
			wantAction:  "answer:42",
		},
		{
			name:        "multiline thought",
			response:    "<thought>line one\nline two</thought><action>ask:q</action>",
			wantThought: "line one\nline two",
			wantAction:  "ask:q",
		},
		{
			name:        "first tags win",
			response:    "<thought>a</thought><action>ask:1</action><thought>b</thought><action>ask:2</action>",
			wantThought: "a",
			wantAction:  "ask:1",
		},
		{
			name:        "missing action",
			response:    "<thought>only thinking</thought>",
			wantThought: missingThought,
			wantAction:  missingAction,
		},
		{
			name:        "missing both",
			response:    "I will just answer: apple",
			wantThought: missingThought,
			wantAction:  missingAction,
		},
		{
			name:        "empty",
			response:    "",
			wantThought: missingThought,
			wantAction:  missingAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thought, action := parseResponse(tt.response)
			assert.Equal(t, tt.wantThought, thought)
			assert.Equal(t, tt.wantAction, action)
		})
	}
}
