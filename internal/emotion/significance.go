package emotion

// Cue identifies which branch of the significance table matched.
// Each cue has its own description in the message table.
type Cue string

const (
	CueNeutral     Cue = "neutral"
	CueFatigue     Cue = "fatigue"
	CueStress      Cue = "stress"
	CueJoy         Cue = "joy"
	CueCalm        Cue = "calm"
	CueLowMood     Cue = "low_mood"
	CueMildFatigue Cue = "mild_fatigue"
	CueSatisfied   Cue = "satisfied"
)

// cueMessages is the description table used verbatim in generated prompts.
var cueMessages = map[Cue]string{
	CueNeutral:     "the voice sounds even and steady",
	CueFatigue:     "the voice sounds low on energy, possibly tired or worn out",
	CueStress:      "the voice sounds tense, with signs of stress or irritation",
	CueJoy:         "the voice sounds bright and lively",
	CueCalm:        "the voice sounds relaxed and at ease",
	CueLowMood:     "the voice sounds somewhat down",
	CueMildFatigue: "the voice sounds a little tired",
	CueSatisfied:   "the voice sounds content",
}

// Description returns the message for c.
func (c Cue) Description() string {
	return cueMessages[c]
}

// Assessment is the result of Assess.
type Assessment struct {
	Emotion     Emotion `json:"emotion"`
	Significant bool    `json:"isSignificant"`
	Cue         Cue     `json:"cue"`
	Description string  `json:"description"`
}

func assessment(e Emotion, significant bool, c Cue) Assessment {
	return Assessment{Emotion: e, Significant: significant, Cue: c, Description: c.Description()}
}

// Assess decides whether v deviates enough from neutral to be mentioned in a
// prompt. Inside the neutral band the result is Neutral and not significant;
// outside it a wider-tolerance table applies, falling back to valence alone.
// Every reading outside the band is significant. Each branch has its own
// label except mild fatigue, which shares Tired with fatigue: no other label
// in the vocabulary describes a slightly flat voice.
func (c *Classifier) Assess(v VAD) Assessment {
	t := c.t
	a, val := v.Arousal, v.Valence

	inBand := func(x float64) bool { return x >= t.NeutralBandLow && x <= t.NeutralBandHigh }
	if inBand(a) && inBand(val) {
		return assessment(Neutral, false, CueNeutral)
	}

	low := func(x float64) bool { return x < t.NeutralBandLow }
	high := func(x float64) bool { return x > t.NeutralBandHigh }

	switch {
	case low(a) && val < t.NeutralBandHigh:
		return assessment(Tired, true, CueFatigue)
	case high(a) && val < t.Mid:
		return assessment(Stressed, true, CueStress)
	case high(a) && val >= t.Mid:
		return assessment(Excited, true, CueJoy)
	case low(a) && val >= t.NeutralBandHigh:
		return assessment(Calm, true, CueCalm)
	}

	switch {
	case val < t.NeutralBandLow:
		return assessment(Sad, true, CueLowMood)
	case val < t.Mid:
		return assessment(Tired, true, CueMildFatigue)
	case val >= t.NeutralBandHigh:
		return assessment(Happy, true, CueSatisfied)
	default:
		return assessment(Neutral, false, CueNeutral)
	}
}

// Assess runs the significance table with the default thresholds.
func Assess(v VAD) Assessment {
	return Default.Assess(v)
}
