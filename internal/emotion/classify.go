package emotion

// Thresholds holds the cutoffs used by the classifier.
// The midline sits at 4.0 rather than the nominal 3.0 because the analysis
// model's output clusters around 4.0.
type Thresholds struct {
	Mid             float64 // practical midline of the scale
	ArousalVeryHigh float64 // arousal strictly above is "very high"
	ArousalVeryLow  float64 // arousal strictly below is "very low"
	ValenceVeryHigh float64 // valence strictly above is "very high"
	ValenceVeryLow  float64 // valence strictly below is "very low"
	NeutralBandLow  float64 // inclusive lower bound of the neutral band
	NeutralBandHigh float64 // inclusive upper bound of the neutral band
}

// DefaultThresholds returns the production cutoffs.
// ValenceVeryLow is deliberately 3.8, not 3.7.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Mid:             4.0,
		ArousalVeryHigh: 4.3,
		ArousalVeryLow:  3.7,
		ValenceVeryHigh: 4.3,
		ValenceVeryLow:  3.8,
		NeutralBandLow:  3.7,
		NeutralBandHigh: 4.3,
	}
}

// Classifier turns VAD triples into labels. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	t Thresholds
}

// NewClassifier returns a classifier using t.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Default is a classifier built from DefaultThresholds.
var Default = NewClassifier(DefaultThresholds())

// Thresholds returns the cutoffs the classifier was built with.
func (c *Classifier) Thresholds() Thresholds {
	return c.t
}

// Classify maps v to a label. Rules are evaluated in order and the first
// match wins. Dominance does not influence the result. Classify is total:
// out-of-range values are classified like any other. A NaN component fails
// every comparison it appears in, so the other axis alone decides the label,
// and NaN on both axes yields Neutral.
func (c *Classifier) Classify(v VAD) Emotion {
	t := c.t
	a, val := v.Arousal, v.Valence

	arousalHigh := a > t.Mid
	valenceHigh := val > t.Mid
	arousalVeryHigh := a > t.ArousalVeryHigh
	arousalVeryLow := a < t.ArousalVeryLow
	valenceVeryHigh := val > t.ValenceVeryHigh
	valenceVeryLow := val < t.ValenceVeryLow

	switch {
	case arousalVeryHigh && valenceVeryHigh:
		return Excited
	case arousalHigh && valenceHigh:
		return Happy
	case arousalVeryHigh && valenceVeryLow:
		return Angry
	case arousalHigh && !valenceHigh:
		return Stressed
	case arousalVeryLow && valenceHigh:
		return Calm
	case !arousalHigh && valenceVeryHigh:
		return Relaxed
	case arousalVeryLow && valenceVeryLow:
		return Sad
	case !arousalHigh && valenceVeryLow:
		return Tired
	}

	// Fallback: valence alone decides.
	switch {
	case valenceHigh:
		return Happy
	case valenceVeryLow:
		return Sad
	default:
		return Neutral
	}
}

// Classify maps v to a label using the default thresholds.
func Classify(v VAD) Emotion {
	return Default.Classify(v)
}
