package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/annobench/internal/model"
)

var committee = []string{"claude-sonnet", "claude-haiku", "sonar-pro"}

func consensusResults() []model.ConsensusResult {
	res := model.ConsensusResult{
		Problem: model.Problem{Question: "capital of France?", Answer: "Paris"},
		Verdicts: []model.ModelVerdict{
			{EngineID: "claude-sonnet", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.01},
			{EngineID: "claude-haiku", PredictedAnswer: "Lyon", Correct: false, CostUSD: 0.005},
			{EngineID: "sonar-pro", PredictedAnswer: "Paris", Correct: true, CostUSD: 0.005},
		},
	}
	res.Finalize(2)
	return []model.ConsensusResult{res}
}

func TestWriteConsensusCSVColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsensusCSV(&buf, committee, consensusResults()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"question,correct_answer,"+
			"claude-sonnet_answer,claude-sonnet_correct,"+
			"claude-haiku_answer,claude-haiku_correct,"+
			"sonar-pro_answer,sonar-pro_correct,"+
			"correct_count,quality_failed,quality_score,total_cost_usd",
		lines[0])
	assert.Equal(t, "capital of France?,Paris,Paris,true,Lyon,false,Paris,true,2,true,0.333,0.0200", lines[1])
}

func TestConsensusCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConsensusCSV(&buf, committee, consensusResults()))

	rows, gotCommittee, err := ReadConsensusCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, committee, gotCommittee)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "capital of France?", row.Question)
	assert.True(t, row.Correct["claude-sonnet"])
	assert.False(t, row.Correct["claude-haiku"])
	assert.Equal(t, "Lyon", row.Answers["claude-haiku"])
	assert.Equal(t, 2, row.CorrectCount)
	assert.True(t, row.QualityFailed)
	assert.InDelta(t, 0.333, row.QualityScore, 1e-9)
	assert.InDelta(t, 0.02, row.TotalCostUSD, 1e-9)
}

func TestWriteConsensusCSVMissingMember(t *testing.T) {
	res := model.ConsensusResult{
		Problem: model.Problem{Question: "q", Answer: "a"},
		Verdicts: []model.ModelVerdict{
			{EngineID: "claude-sonnet", PredictedAnswer: "a", Correct: true},
		},
	}
	res.Finalize(2)

	var buf bytes.Buffer
	require.NoError(t, WriteConsensusCSV(&buf, committee, []model.ConsensusResult{res}))

	rows, _, err := ReadConsensusCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "", rows[0].Answers["claude-haiku"])
	assert.False(t, rows[0].Correct["claude-haiku"])
}

func TestReadConsensusCSVRejectsMalformedHeader(t *testing.T) {
	_, _, err := ReadConsensusCSV(strings.NewReader("a,b,c\n"))
	require.Error(t, err)
}

func TestWriteSingleCSV(t *testing.T) {
	results := []SingleResult{
		{
			Problem:         model.Problem{Question: "what fruit?", Answer: "apple"},
			PredictedAnswer: "apple",
			Transcript: model.Transcript{
				{Turn: 1, Kind: model.ActionAnswer, FinalAnswer: "apple"},
			},
			Correct: true,
			CostUSD: 0.0123,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSingleCSV(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "question,correct_answer,predicted_answer,transcript_summary,score,cost_usd", lines[0])
	assert.Equal(t, "what fruit?,apple,apple,T1:Answer(apple),1.0,0.0123", lines[1])
}

func TestWriteConsensusXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteConsensusXLSX(path, committee, consensusResults()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.GreaterOrEqual(t, len(sheet.Rows), 2)
	assert.Equal(t, "question", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "capital of France?", sheet.Rows[1].Cells[0].String())
}
