package report

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/annobench/internal/model"
)

// WriteConsensusXLSX writes the consensus report as a single-sheet XLSX
// file with the same cells as the CSV export.
func WriteConsensusXLSX(path string, committee []string, results []model.ConsensusResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	addRow(sheet, ConsensusHeader(committee))

	for _, res := range results {
		byEngine := make(map[string]model.ModelVerdict, len(res.Verdicts))
		for _, v := range res.Verdicts {
			byEngine[v.EngineID] = v
		}

		row := sheet.AddRow()
		row.AddCell().SetString(res.Problem.Question)
		row.AddCell().SetString(res.Problem.Answer)
		for _, id := range committee {
			v := byEngine[id]
			row.AddCell().SetString(v.PredictedAnswer)
			row.AddCell().SetBool(v.Correct)
		}
		row.AddCell().SetInt(res.CorrectCount)
		row.AddCell().SetBool(res.QualityFailed)
		row.AddCell().SetFloat(res.QualityScore)
		row.AddCell().SetFloat(res.TotalCostUSD)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save xlsx")
	}
	return nil
}

// WriteSingleXLSX writes the single-model report as a single-sheet XLSX
// file with the same cells as the CSV export.
func WriteSingleXLSX(path string, results []SingleResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("results")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	addRow(sheet, []string{"question", "correct_answer", "predicted_answer", "transcript_summary", "score", "cost_usd"})

	for _, r := range results {
		score := 0.0
		if r.Correct {
			score = 1.0
		}
		row := sheet.AddRow()
		row.AddCell().SetString(r.Problem.Question)
		row.AddCell().SetString(r.Problem.Answer)
		row.AddCell().SetString(r.PredictedAnswer)
		row.AddCell().SetString(r.Transcript.Summary())
		row.AddCell().SetFloat(score)
		row.AddCell().SetFloat(r.CostUSD)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "report: save xlsx")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
