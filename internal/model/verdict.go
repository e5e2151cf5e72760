package model

// ModelVerdict is the outcome of one committee member's run against a
// problem: the answer it committed to and whether the grader accepted it.
// A member that failed outright carries Err, Correct=false and zero cost.
type ModelVerdict struct {
	EngineID        string     `json:"engine_id"`
	PredictedAnswer string     `json:"predicted_answer"`
	Correct         bool       `json:"correct"`
	CostUSD         float64    `json:"cost_usd"`
	Transcript      Transcript `json:"transcript,omitempty"`
	Err             string     `json:"error,omitempty"`
}

// ConsensusResult aggregates the committee verdicts for one problem into the
// annotation-quality judgment. The derived fields are computed by Finalize
// as a reduction over the complete verdict set, never incrementally.
type ConsensusResult struct {
	Problem       Problem        `json:"problem"`
	Verdicts      []ModelVerdict `json:"verdicts"`
	CorrectCount  int            `json:"correct_count"`
	QualityFailed bool           `json:"quality_failed"`
	QualityScore  float64        `json:"quality_score"`
	TotalCostUSD  float64        `json:"total_cost_usd"`
}

// Finalize computes the derived aggregate fields from the verdict set.
// quality_failed means too many independent engines found the correct
// answer, i.e. the annotation is too easy. The aggregate is well-defined
// even when every member failed: zero correct verdicts is simply "no
// evidence of an easy question".
func (r *ConsensusResult) Finalize(threshold int) {
	r.CorrectCount = 0
	r.TotalCostUSD = 0
	for _, v := range r.Verdicts {
		if v.Correct {
			r.CorrectCount++
		}
		r.TotalCostUSD += v.CostUSD
	}

	r.QualityFailed = len(r.Verdicts) > 0 && r.CorrectCount >= threshold
	if len(r.Verdicts) > 0 {
		r.QualityScore = 1.0 - float64(r.CorrectCount)/float64(len(r.Verdicts))
	} else {
		r.QualityScore = 1.0
	}
}
