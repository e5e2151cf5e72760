// Package report exports evaluation results as CSV and XLSX files. Column
// order is a contract: downstream consumers index by position.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/annobench/internal/model"
)

// SingleResult is one problem's outcome in single-model mode.
type SingleResult struct {
	Problem         model.Problem
	PredictedAnswer string
	Transcript      model.Transcript
	Correct         bool
	CostUSD         float64
}

// WriteSingleCSV writes single-model rows with the fixed column set
// question, correct_answer, predicted_answer, transcript_summary, score,
// cost_usd.
func WriteSingleCSV(w io.Writer, results []SingleResult) error {
	cw := csv.NewWriter(w)

	header := []string{"question", "correct_answer", "predicted_answer", "transcript_summary", "score", "cost_usd"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	for _, r := range results {
		score := "0.0"
		if r.Correct {
			score = "1.0"
		}
		row := []string{
			r.Problem.Question,
			r.Problem.Answer,
			r.PredictedAnswer,
			r.Transcript.Summary(),
			score,
			formatCost(r.CostUSD),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush")
}

// WriteSingleCSVFile writes the single-model report to path.
func WriteSingleCSVFile(path string, results []SingleResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create file")
	}
	defer f.Close() //nolint:errcheck

	return WriteSingleCSV(f, results)
}

// ConsensusHeader returns the consensus column set for the given committee:
// question, correct_answer, one answer/correct pair per member, then the
// aggregate columns.
func ConsensusHeader(committee []string) []string {
	header := []string{"question", "correct_answer"}
	for _, id := range committee {
		header = append(header, id+"_answer", id+"_correct")
	}
	return append(header, "correct_count", "quality_failed", "quality_score", "total_cost_usd")
}

// WriteConsensusCSV writes consensus rows. Every row carries one column
// pair per committee member in committee order; a member missing from a
// result's verdicts gets empty cells.
func WriteConsensusCSV(w io.Writer, committee []string, results []model.ConsensusResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(ConsensusHeader(committee)); err != nil {
		return eris.Wrap(err, "report: write header")
	}

	for _, res := range results {
		byEngine := make(map[string]model.ModelVerdict, len(res.Verdicts))
		for _, v := range res.Verdicts {
			byEngine[v.EngineID] = v
		}

		row := []string{res.Problem.Question, res.Problem.Answer}
		for _, id := range committee {
			if v, ok := byEngine[id]; ok {
				row = append(row, v.PredictedAnswer, strconv.FormatBool(v.Correct))
			} else {
				row = append(row, "", "")
			}
		}
		row = append(row,
			strconv.Itoa(res.CorrectCount),
			strconv.FormatBool(res.QualityFailed),
			fmt.Sprintf("%.3f", res.QualityScore),
			formatCost(res.TotalCostUSD),
		)

		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush")
}

// WriteConsensusCSVFile writes the consensus report to path.
func WriteConsensusCSVFile(path string, committee []string, results []model.ConsensusResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create file")
	}
	defer f.Close() //nolint:errcheck

	return WriteConsensusCSV(f, committee, results)
}

// ConsensusRow is the parsed form of one consensus report row.
type ConsensusRow struct {
	Question      string
	CorrectAnswer string
	Answers       map[string]string
	Correct       map[string]bool
	CorrectCount  int
	QualityFailed bool
	QualityScore  float64
	TotalCostUSD  float64
}

// ReadConsensusCSV parses a consensus report written by WriteConsensusCSV,
// recovering the committee from the header.
func ReadConsensusCSV(r io.Reader) ([]ConsensusRow, []string, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "report: read header")
	}
	if len(header) < 6 || (len(header)-6)%2 != 0 {
		return nil, nil, eris.Errorf("report: malformed consensus header (%d columns)", len(header))
	}

	var committee []string
	for i := 2; i < len(header)-4; i += 2 {
		committee = append(committee, strings.TrimSuffix(header[i], "_answer"))
	}

	var rows []ConsensusRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "report: read row")
		}

		row := ConsensusRow{
			Question:      record[0],
			CorrectAnswer: record[1],
			Answers:       make(map[string]string, len(committee)),
			Correct:       make(map[string]bool, len(committee)),
		}
		for i, id := range committee {
			row.Answers[id] = record[2+2*i]
			row.Correct[id], _ = strconv.ParseBool(record[3+2*i])
		}

		base := 2 + 2*len(committee)
		row.CorrectCount, _ = strconv.Atoi(record[base])
		row.QualityFailed, _ = strconv.ParseBool(record[base+1])
		row.QualityScore, _ = strconv.ParseFloat(record[base+2], 64)
		row.TotalCostUSD, _ = strconv.ParseFloat(record[base+3], 64)

		rows = append(rows, row)
	}

	return rows, committee, nil
}

func formatCost(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
