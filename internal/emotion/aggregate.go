package emotion

// Segment is one scored span of speech within a recording.
type Segment struct {
	ID       int     `json:"segment_id"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	VAD
	// Emotion is the zero value when the upstream label was missing or unknown.
	Emotion Emotion `json:"emotion"`
	// RawEmotion keeps an unrecognised upstream label for inspection.
	RawEmotion string `json:"raw_emotion,omitempty"`
}

// AnalysisResult is the emotion analysis of one recording.
// The averages are the model's own summary and are trusted as given.
type AnalysisResult struct {
	RecordingID     string    `json:"recording_id"`
	UserID          string    `json:"user_id"`
	Segments        []Segment `json:"segments"`
	TotalSegments   int       `json:"total_segments"`
	AvgArousal      float64   `json:"avg_arousal"`
	AvgValence      float64   `json:"avg_valence"`
	AvgDominance    float64   `json:"avg_dominance"`
	DominantEmotion Emotion   `json:"dominant_emotion"`
}

// Average returns the recording-level VAD triple.
func (r AnalysisResult) Average() VAD {
	return VAD{Arousal: r.AvgArousal, Valence: r.AvgValence, Dominance: r.AvgDominance}
}

// DailySummary aggregates one user's analyses for one calendar day.
type DailySummary struct {
	AvgArousal          float64         `json:"avgArousal"`
	AvgValence          float64         `json:"avgValence"`
	AvgDominance        float64         `json:"avgDominance"`
	DominantEmotion     Emotion         `json:"dominantEmotion"`
	EmotionDistribution map[Emotion]int `json:"emotionDistribution"`
	TotalRecordings     int             `json:"totalRecordings"`
}

// Average returns the day's mean VAD triple.
func (s DailySummary) Average() VAD {
	return VAD{Arousal: s.AvgArousal, Valence: s.AvgValence, Dominance: s.AvgDominance}
}

// Aggregate combines the analyses of one day.
//
// The mean is taken over per-recording averages, each recording weighted
// equally, while the distribution counts individual segments. Segments
// without a valid label are skipped. The second return value is false when
// results is empty; callers must treat that as "no data", not as neutral.
func Aggregate(results []AnalysisResult) (DailySummary, bool) {
	if len(results) == 0 {
		return DailySummary{}, false
	}

	avgs := make([]VAD, len(results))
	dist := make(map[Emotion]int)
	for i, r := range results {
		avgs[i] = r.Average()
		for _, seg := range r.Segments {
			if !seg.Emotion.Valid() {
				continue
			}
			dist[seg.Emotion]++
		}
	}

	mean, _ := Mean(avgs)
	return DailySummary{
		AvgArousal:          mean.Arousal,
		AvgValence:          mean.Valence,
		AvgDominance:        mean.Dominance,
		DominantEmotion:     Dominant(dist),
		EmotionDistribution: dist,
		TotalRecordings:     len(results),
	}, true
}

// Dominant returns the most frequent label in dist. Ties go to the label
// that comes first in All. An empty distribution yields Neutral.
func Dominant(dist map[Emotion]int) Emotion {
	best, bestCount := Neutral, 0
	for _, e := range All {
		if n := dist[e]; n > bestCount {
			best, bestCount = e, n
		}
	}
	return best
}
