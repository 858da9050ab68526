package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

// ErrInvalidVAD is returned when a segment or summary carries a missing or
// non-numeric VAD component.
var ErrInvalidVAD = errors.New("invalid VAD value")

// Ingested is a validated analysis ready to persist.
type Ingested struct {
	Result emotion.AnalysisResult
	// Quarantined counts segments whose upstream label was not recognised.
	Quarantined int
}

// Ingest validates a model response and converts it into an analysis result.
// Segments with a missing, "undefined" or "null" label keep the zero Emotion
// so aggregation skips them. The classifier only names the recording when no
// label is usable; a nil classifier uses emotion.Default.
func Ingest(recordingID, userID string, resp *Response, c *emotion.Classifier) (Ingested, error) {
	if resp == nil {
		return Ingested{}, fmt.Errorf("%w: empty response", ErrAnalysisFailed)
	}
	if c == nil {
		c = emotion.Default
	}

	out := Ingested{Result: emotion.AnalysisResult{
		RecordingID: recordingID,
		UserID:      userID,
		Segments:    make([]emotion.Segment, 0, len(resp.Segments)),
	}}

	for i, raw := range resp.Segments {
		vad, err := vadOf(raw.Arousal, raw.Valence, raw.Dominance)
		if err != nil {
			return Ingested{}, fmt.Errorf("segment %d: %w", i, err)
		}

		seg := emotion.Segment{
			ID:       i,
			Start:    raw.Start,
			End:      raw.End,
			Duration: raw.Duration,
			VAD:      vad,
		}
		if raw.ID != nil {
			seg.ID = *raw.ID
		}

		if label := labelOf(raw.Emotion); label != "" {
			if e, ok := emotion.ParseEmotion(label); ok {
				seg.Emotion = e
			} else {
				seg.RawEmotion = label
				out.Quarantined++
			}
		}
		out.Result.Segments = append(out.Result.Segments, seg)
	}
	out.Result.TotalSegments = len(out.Result.Segments)

	avg, err := summaryAverage(resp.Summary, out.Result.Segments)
	if err != nil {
		return Ingested{}, err
	}
	out.Result.AvgArousal = avg.Arousal
	out.Result.AvgValence = avg.Valence
	out.Result.AvgDominance = avg.Dominance

	out.Result.DominantEmotion = dominantOf(resp.Summary, out.Result.Segments, avg, c)
	return out, nil
}

// summaryAverage prefers the model's averages and falls back to the segment mean.
func summaryAverage(s *RawSummary, segs []emotion.Segment) (emotion.VAD, error) {
	if s != nil && (s.AvgArousal.Valid || s.AvgValence.Valid || s.AvgDominance.Valid) {
		vad, err := vadOf(s.AvgArousal, s.AvgValence, s.AvgDominance)
		if err != nil {
			return emotion.VAD{}, fmt.Errorf("summary: %w", err)
		}
		return vad, nil
	}

	vs := make([]emotion.VAD, len(segs))
	for i, seg := range segs {
		vs[i] = seg.VAD
	}
	avg, ok := emotion.Mean(vs)
	if !ok {
		return emotion.VAD{}, fmt.Errorf("%w: no segments and no summary", ErrAnalysisFailed)
	}
	return avg, nil
}

// dominantOf uses the model's label when it is recognised, otherwise the
// most frequent segment label, otherwise the classification of the average.
func dominantOf(s *RawSummary, segs []emotion.Segment, avg emotion.VAD, c *emotion.Classifier) emotion.Emotion {
	if s != nil {
		if e, ok := emotion.ParseEmotion(labelOf(s.DominantEmotion)); ok {
			return e
		}
	}
	counts := make(map[emotion.Emotion]int)
	for _, seg := range segs {
		if seg.Emotion.Valid() {
			counts[seg.Emotion]++
		}
	}
	if len(counts) > 0 {
		return emotion.Dominant(counts)
	}
	return c.Classify(avg)
}

func vadOf(a, v, d Number) (emotion.VAD, error) {
	if !a.Valid || !v.Valid || !d.Valid {
		return emotion.VAD{}, ErrInvalidVAD
	}
	vad := emotion.VAD{Arousal: a.Value, Valence: v.Value, Dominance: d.Value}
	if !vad.Finite() {
		return emotion.VAD{}, ErrInvalidVAD
	}
	return vad, nil
}

func labelOf(s *string) string {
	if s == nil {
		return ""
	}
	label := strings.TrimSpace(*s)
	switch strings.ToLower(label) {
	case "undefined", "null":
		return ""
	}
	return label
}
