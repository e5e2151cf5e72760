package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainJSONL = `{"question":"capital of France?","answer":"Paris","popular_wrong":"Lyon","domain":"geography"}
{"question":"what fruit?","answer":"apple","context":"the fruit is red"}
`

const hiddenJSONL = `{"q0":"which vehicle is it?","B_hidden":"Zubr-class LCAC","A_pop":"LCAC-1","allowed_slots":[{"id":"mobility_platform","desc":"how it moves"},{"id":"era","desc":"when built"}],"packs":[{"slot":"mobility_platform","items":["hovercraft","amphibious"]},{"slot":"era","items":["soviet design"]},{"slot":"extra","items":["orphan item"]}]}
`

func TestLoadPlainShape(t *testing.T) {
	problems, err := Load(strings.NewReader(plainJSONL))
	require.NoError(t, err)
	require.Len(t, problems, 2)

	assert.Equal(t, "capital of France?", problems[0].Question)
	assert.Equal(t, "Paris", problems[0].Answer)
	assert.Equal(t, "Lyon", problems[0].PopularWrong)
	assert.Equal(t, "geography", problems[0].Domain)
	assert.Equal(t, "the fruit is red", problems[1].Context)
}

func TestLoadHiddenShape(t *testing.T) {
	problems, err := Load(strings.NewReader(hiddenJSONL))
	require.NoError(t, err)
	require.Len(t, problems, 1)

	p := problems[0]
	assert.Equal(t, "which vehicle is it?", p.Question)
	assert.Equal(t, "Zubr-class LCAC", p.Answer)
	assert.Equal(t, "LCAC-1", p.PopularWrong)

	require.Len(t, p.Categories, 3)
	assert.Equal(t, "mobility_platform", p.Categories[0].ID)
	assert.Equal(t, "how it moves", p.Categories[0].Desc)
	assert.Equal(t, []string{"hovercraft", "amphibious"}, p.Categories[0].Items)

	// Packs without a catalog entry survive normalization.
	assert.Equal(t, "extra", p.Categories[2].ID)
	assert.Equal(t, []string{"orphan item"}, p.Categories[2].Items)

	assert.Contains(t, p.ContextText(), "mobility_platform: hovercraft")
}

func TestLoadSkipsBlankLines(t *testing.T) {
	problems, err := Load(strings.NewReader("\n" + plainJSONL + "\n\n"))
	require.NoError(t, err)
	assert.Len(t, problems, 2)
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	_, err := Load(strings.NewReader(`{"question":"q","answer":"a"}` + "\n{broken\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadRejectsShapelessRecord(t *testing.T) {
	_, err := Load(strings.NewReader(`{"answer":"orphan"}` + "\n"))
	require.Error(t, err)
}

func TestSampleDeterministic(t *testing.T) {
	problems, err := Load(strings.NewReader(plainJSONL + hiddenJSONL))
	require.NoError(t, err)

	a := Sample(problems, 2, 42)
	b := Sample(problems, 2, 42)
	assert.Equal(t, a, b)
	assert.Len(t, a, 2)

	// Holdout is the complement under the same seed.
	rest := Holdout(problems, 2, 42)
	require.Len(t, rest, 1)
	seen := map[string]bool{}
	for _, p := range append(a, rest...) {
		seen[p.Question] = true
	}
	assert.Len(t, seen, 3)
}

func TestSampleClampsToLen(t *testing.T) {
	problems, err := Load(strings.NewReader(plainJSONL))
	require.NoError(t, err)

	assert.Len(t, Sample(problems, 10, 1), 2)
	assert.Nil(t, Holdout(problems, 10, 1))
}

func TestFetchHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(plainJSONL))
	}))
	defer server.Close()

	problems, err := NewFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, problems, 2)
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/problems.jsonl"
	require.NoError(t, os.WriteFile(path, []byte(plainJSONL), 0o644))

	problems, err := NewFetcher().Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, problems, 2)
}
