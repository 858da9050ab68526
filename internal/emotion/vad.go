package emotion

import "math"

// VAD is an arousal/valence/dominance triple as produced by the analysis
// model. Values are nominally in [1.0, 5.0].
type VAD struct {
	Arousal   float64 `json:"arousal"`
	Valence   float64 `json:"valence"`
	Dominance float64 `json:"dominance"`
}

// Finite reports whether every component is a finite number.
func (v VAD) Finite() bool {
	return isFinite(v.Arousal) && isFinite(v.Valence) && isFinite(v.Dominance)
}

// Mean returns the unweighted component-wise mean of vs.
// The second return value is false when vs is empty.
func Mean(vs []VAD) (VAD, bool) {
	if len(vs) == 0 {
		return VAD{}, false
	}
	var sum VAD
	for _, v := range vs {
		sum.Arousal += v.Arousal
		sum.Valence += v.Valence
		sum.Dominance += v.Dominance
	}
	n := float64(len(vs))
	return VAD{
		Arousal:   sum.Arousal / n,
		Valence:   sum.Valence / n,
		Dominance: sum.Dominance / n,
	}, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
