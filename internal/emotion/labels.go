package emotion

// Display metadata. Classification and aggregation never read these tables.

var glyphs = map[Emotion]string{
	Happy:    "😊",
	Sad:      "😢",
	Angry:    "😠",
	Calm:     "😌",
	Neutral:  "😐",
	Excited:  "🤩",
	Relaxed:  "😎",
	Stressed: "😰",
	Tired:    "😴",
}

var localizedNames = map[Emotion]string{
	Happy:    "幸せ",
	Sad:      "悲しみ",
	Angry:    "怒り",
	Calm:     "穏やか",
	Neutral:  "中立",
	Excited:  "興奮",
	Relaxed:  "リラックス",
	Stressed: "ストレス",
	Tired:    "疲労",
}

// Glyph returns the emoji shown next to e, or the neutral face for invalid labels.
func (e Emotion) Glyph() string {
	if g, ok := glyphs[e]; ok {
		return g
	}
	return glyphs[Neutral]
}

// LocalizedName returns the Japanese display name of e.
func (e Emotion) LocalizedName() string {
	if n, ok := localizedNames[e]; ok {
		return n
	}
	return string(e)
}

// Negative reports whether e counts as a negative mood for chat follow-ups.
func (e Emotion) Negative() bool {
	switch e {
	case Sad, Angry, Stressed, Tired:
		return true
	}
	return false
}
