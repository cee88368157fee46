package pipeline

import "math"

// ComputeOverallScore blends whichever per-stage scores exist using the
// configured weights. Weights are re-normalized over the scored stages only,
// so a candidate is not penalized for stages they have not reached. The
// result is rounded to the nearest integer; with nothing scored it is 0.
func ComputeOverallScore(scores Scores, weights map[ScoreKey]float64) int {
	var num, den float64
	for _, k := range scoreKeys {
		w, ok := weights[k]
		if !ok {
			continue
		}
		v := scores.Get(k)
		if v == nil {
			continue
		}
		num += *v * w
		den += w
	}
	if den <= 0 {
		return 0
	}
	return int(math.Round(num / den))
}
