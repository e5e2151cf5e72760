package search

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/annobench/internal/engine"
)

type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) ID() string { return "fake" }

func (f *fakeEngine) Complete(context.Context, string) (*engine.Completion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Completion{Text: f.text}, nil
}

func TestKnowledgeSearchSplitsParagraphs(t *testing.T) {
	eng := &fakeEngine{text: "The Eiffel Tower is a wrought-iron lattice tower on the Champ de Mars.\n\nIt was designed by Gustave Eiffel's company.\n\n\n\nIt opened in 1889."}
	s := NewKnowledgeSearcher(eng)

	results, err := s.Search(context.Background(), "eiffel tower")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "The Eiffel Tower is a wrought-iron lattice tower...", results[0].Title)
	assert.Equal(t, "It opened in 1889.", results[2].Snippet)
	assert.Equal(t, "llm_internal_knowledge", results[0].Source)
}

func TestKnowledgeSearchCapsAtFive(t *testing.T) {
	eng := &fakeEngine{text: "a\n\nb\n\nc\n\nd\n\ne\n\nf\n\ng"}
	s := NewKnowledgeSearcher(eng)

	results, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestKnowledgeSearchDegradesOnEngineFailure(t *testing.T) {
	s := NewKnowledgeSearcher(&fakeEngine{err: eris.New("engine down")})

	results, err := s.Search(context.Background(), "obscure topic")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Search: obscure topic", results[0].Title)
	assert.Contains(t, results[0].Snippet, "temporarily unavailable")
}

func TestFactory(t *testing.T) {
	s, err := New("knowledge", Backends{Engine: &fakeEngine{}})
	require.NoError(t, err)
	assert.IsType(t, &KnowledgeSearcher{}, s)

	s, err = New("wikipedia", Backends{})
	require.NoError(t, err)
	assert.IsType(t, &WikipediaSearcher{}, s)

	_, err = New("knowledge", Backends{})
	require.Error(t, err)

	_, err = New("google", Backends{})
	require.Error(t, err)
}
