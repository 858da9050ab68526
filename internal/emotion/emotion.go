// Package emotion maps voice arousal/valence/dominance measurements to discrete
// mood labels and aggregates per-recording analyses into daily summaries.
package emotion

import "strings"

// Emotion is one label of the closed mood vocabulary.
// The zero value is not a valid label.
type Emotion string

const (
	Happy    Emotion = "happy"
	Sad      Emotion = "sad"
	Angry    Emotion = "angry"
	Calm     Emotion = "calm"
	Neutral  Emotion = "neutral"
	Excited  Emotion = "excited"
	Relaxed  Emotion = "relaxed"
	Stressed Emotion = "stressed"
	Tired    Emotion = "tired"
)

// All lists every label in canonical order. Dominant-label ties are broken
// by position in this slice.
var All = []Emotion{Happy, Sad, Angry, Calm, Neutral, Excited, Relaxed, Stressed, Tired}

var byName = func() map[string]Emotion {
	m := make(map[string]Emotion, len(All))
	for _, e := range All {
		m[string(e)] = e
	}
	return m
}()

// ParseEmotion converts a raw label into an Emotion.
// Unknown labels, the empty string and the upstream artifacts "undefined"
// and "null" are rejected.
func ParseEmotion(s string) (Emotion, bool) {
	e, ok := byName[strings.ToLower(strings.TrimSpace(s))]
	return e, ok
}

// Valid reports whether e belongs to the vocabulary.
func (e Emotion) Valid() bool {
	_, ok := byName[string(e)]
	return ok
}

func (e Emotion) String() string {
	return string(e)
}

// MarshalText encodes an invalid label as the empty string.
func (e Emotion) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return []byte{}, nil
	}
	return []byte(e), nil
}

// UnmarshalText never fails: unrecognised labels decode to the zero value so
// that callers can quarantine them instead of propagating raw strings.
func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, ok := ParseEmotion(string(text))
	if !ok {
		*e = ""
		return nil
	}
	*e = parsed
	return nil
}
