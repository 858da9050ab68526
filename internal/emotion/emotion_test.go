package emotion

import (
	"encoding/json"
	"testing"
)

func TestParseEmotion(t *testing.T) {
	tests := []struct {
		in     string
		want   Emotion
		wantOK bool
	}{
		{in: "happy", want: Happy, wantOK: true},
		{in: " Tired ", want: Tired, wantOK: true},
		{in: "STRESSED", want: Stressed, wantOK: true},
		{in: "", wantOK: false},
		{in: "undefined", wantOK: false},
		{in: "null", wantOK: false},
		{in: "hap", wantOK: false},
		{in: "ang", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseEmotion(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseEmotion(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAllCanonical(t *testing.T) {
	want := []Emotion{Happy, Sad, Angry, Calm, Neutral, Excited, Relaxed, Stressed, Tired}
	if len(All) != len(want) {
		t.Fatalf("len(All) = %d, want %d", len(All), len(want))
	}
	for i := range want {
		if All[i] != want[i] {
			t.Errorf("All[%d] = %q, want %q", i, All[i], want[i])
		}
		if !All[i].Valid() {
			t.Errorf("%q.Valid() = false", All[i])
		}
	}
}

func TestSegmentJSONQuarantinesUnknownLabels(t *testing.T) {
	raw := `[
		{"segment_id":0,"start":0,"end":1.5,"duration":1.5,"arousal":4.1,"valence":3.9,"dominance":4.0,"emotion":"calm"},
		{"segment_id":1,"start":1.5,"end":3,"duration":1.5,"arousal":4.1,"valence":3.9,"dominance":4.0,"emotion":"undefined"},
		{"segment_id":2,"start":3,"end":4,"duration":1,"arousal":4.1,"valence":3.9,"dominance":4.0,"emotion":null},
		{"segment_id":3,"start":4,"end":5,"duration":1,"arousal":4.1,"valence":3.9,"dominance":4.0}
	]`

	var segs []Segment
	if err := json.Unmarshal([]byte(raw), &segs); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("got %d segments, want 4", len(segs))
	}
	if segs[0].Emotion != Calm {
		t.Errorf("segs[0].Emotion = %q, want %q", segs[0].Emotion, Calm)
	}
	if segs[0].Arousal != 4.1 || segs[0].Duration != 1.5 {
		t.Errorf("segs[0] = %+v, want flat VAD fields decoded", segs[0])
	}
	for i, s := range segs[1:] {
		if s.Emotion.Valid() {
			t.Errorf("segs[%d].Emotion = %q, want invalid", i+1, s.Emotion)
		}
	}
}

func TestLabels(t *testing.T) {
	for _, e := range All {
		if e.Glyph() == "" {
			t.Errorf("%q has no glyph", e)
		}
		if e.LocalizedName() == "" || e.LocalizedName() == string(e) {
			t.Errorf("%q has no localized name", e)
		}
	}
	if got := Emotion("").Glyph(); got != Neutral.Glyph() {
		t.Errorf("invalid Glyph() = %q, want neutral glyph", got)
	}

	negative := map[Emotion]bool{Sad: true, Angry: true, Stressed: true, Tired: true}
	for _, e := range All {
		if e.Negative() != negative[e] {
			t.Errorf("%q.Negative() = %v, want %v", e, e.Negative(), negative[e])
		}
	}
}

func TestMean(t *testing.T) {
	if _, ok := Mean(nil); ok {
		t.Error("Mean(nil) ok = true, want false")
	}
	got, ok := Mean([]VAD{{3, 4, 5}, {5, 4, 3}})
	if !ok || got != (VAD{4, 4, 4}) {
		t.Errorf("Mean() = %+v, %v, want {4 4 4}, true", got, ok)
	}
	if (VAD{1, 2, 3}).Finite() != true {
		t.Error("Finite() = false for finite triple")
	}
}
