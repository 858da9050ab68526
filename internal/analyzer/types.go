package analyzer

import (
	"bytes"
	"encoding/json"
)

// Response is the analysis service's reply for one recording.
type Response struct {
	Segments []RawSegment `json:"segments"`
	Summary  *RawSummary  `json:"summary"`
	Error    string       `json:"error,omitempty"`

	// Body is the undecoded payload, kept for archiving.
	Body []byte `json:"-"`
}

// RawSegment is a segment as the model emits it. VAD components are
// decoded leniently so that a bad value is reported per segment.
type RawSegment struct {
	ID        *int    `json:"segment_id"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Duration  float64 `json:"duration"`
	Arousal   Number  `json:"arousal"`
	Valence   Number  `json:"valence"`
	Dominance Number  `json:"dominance"`
	Emotion   *string `json:"emotion"`
}

// RawSummary is the model's recording-level summary.
type RawSummary struct {
	TotalSegments   int     `json:"total_segments"`
	AvgArousal      Number  `json:"avg_arousal"`
	AvgValence      Number  `json:"avg_valence"`
	AvgDominance    Number  `json:"avg_dominance"`
	DominantEmotion *string `json:"dominant_emotion"`
}

// Number is a JSON number that records whether it was present and numeric.
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts any token. Null, strings and other non-numbers
// leave the Number invalid instead of failing the whole payload.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	n.Value, n.Valid = f, true
	return nil
}

// Num returns a valid Number, for building responses in code.
func Num(f float64) Number {
	return Number{Value: f, Valid: true}
}
