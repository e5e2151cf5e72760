package dataset

import (
	"math/rand"

	"github.com/sells-group/annobench/internal/model"
)

// Sample returns n problems drawn by a seeded shuffle, leaving the input
// untouched. The same seed always yields the same subset, so train/test
// splits are reproducible across runs.
func Sample(problems []model.Problem, n int, seed int64) []model.Problem {
	if n >= len(problems) {
		n = len(problems)
	}
	return shuffled(problems, seed)[:n]
}

// Holdout returns the complement of Sample for the same n and seed.
func Holdout(problems []model.Problem, n int, seed int64) []model.Problem {
	if n >= len(problems) {
		return nil
	}
	return shuffled(problems, seed)[n:]
}

func shuffled(problems []model.Problem, seed int64) []model.Problem {
	out := make([]model.Problem, len(problems))
	copy(out, problems)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
