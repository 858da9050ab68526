package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justestif/go-voice-diary/internal/emotion"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	err := root.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	tests := []struct {
		name string
		vad  emotion.VAD
		args []string
	}{
		{
			name: "sad reading",
			vad:  emotion.VAD{Arousal: 3.2, Valence: 3.4, Dominance: 3.0},
			args: []string{"--arousal", "3.2", "--valence", "3.4", "--dominance", "3.0"},
		},
		{
			name: "neutral band",
			vad:  emotion.VAD{Arousal: 4.0, Valence: 4.0, Dominance: 4.0},
			args: []string{"--arousal", "4", "--valence", "4", "--dominance", "4"},
		},
		{
			name: "bright voice",
			vad:  emotion.VAD{Arousal: 4.8, Valence: 4.9, Dominance: 4.2},
			args: []string{"--arousal", "4.8", "--valence", "4.9", "--dominance", "4.2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "", append([]string{"classify", "--json"}, tt.args...)...)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}

			var got struct {
				Emotion    emotion.Emotion    `json:"emotion"`
				Assessment emotion.Assessment `json:"assessment"`
			}
			if err := json.Unmarshal([]byte(out), &got); err != nil {
				t.Fatalf("decoding %q: %v", out, err)
			}
			if want := emotion.Classify(tt.vad); got.Emotion != want {
				t.Errorf("emotion = %q, want %q", got.Emotion, want)
			}
			if want := emotion.Assess(tt.vad); got.Assessment != want {
				t.Errorf("assessment = %+v, want %+v", got.Assessment, want)
			}
		})
	}
}

func TestClassifyCommandText(t *testing.T) {
	out, err := execute(t, "", "classify", "--arousal", "4", "--valence", "4", "--dominance", "4")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.Contains(out, "not significant") {
		t.Errorf("output = %q, want it to mention 'not significant'", out)
	}
}

func TestClassifyCommandRequiresFlags(t *testing.T) {
	if _, err := execute(t, "", "classify", "--arousal", "4"); err == nil {
		t.Fatal("expected error for missing --valence and --dominance")
	}
}

func TestAggregateCommand(t *testing.T) {
	results := `[
		{"recording_id": "r1", "avg_arousal": 3.0, "avg_valence": 3.0, "avg_dominance": 3.0,
		 "segments": [{"segment_id": 0, "emotion": "sad"}, {"segment_id": 1, "emotion": "sad"}]},
		{"recording_id": "r2", "avg_arousal": 5.0, "avg_valence": 5.0, "avg_dominance": 4.0,
		 "segments": [{"segment_id": 0, "emotion": "happy"}, {"segment_id": 1, "emotion": "bogus"}]}
	]`

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "results.json")
		if err := os.WriteFile(path, []byte(results), 0o600); err != nil {
			t.Fatal(err)
		}

		out, err := execute(t, "", "aggregate", path)
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}

		var got emotion.DailySummary
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("decoding %q: %v", out, err)
		}
		if got.TotalRecordings != 2 {
			t.Errorf("TotalRecordings = %d, want 2", got.TotalRecordings)
		}
		if got.AvgArousal != 4.0 || got.AvgValence != 4.0 || got.AvgDominance != 3.5 {
			t.Errorf("averages = (%v, %v, %v), want (4, 4, 3.5)", got.AvgArousal, got.AvgValence, got.AvgDominance)
		}
		if got.DominantEmotion != emotion.Sad {
			t.Errorf("DominantEmotion = %q, want sad", got.DominantEmotion)
		}
		if got.EmotionDistribution[emotion.Happy] != 1 || len(got.EmotionDistribution) != 2 {
			t.Errorf("EmotionDistribution = %v, want sad:2 happy:1", got.EmotionDistribution)
		}
	})

	t.Run("stdin empty array", func(t *testing.T) {
		out, err := execute(t, "[]", "aggregate", "-")
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if strings.TrimSpace(out) != "no data" {
			t.Errorf("output = %q, want no data", out)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := execute(t, "{", "aggregate", "-"); err == nil {
			t.Fatal("expected decode error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := execute(t, "", "aggregate", filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestClassifyFlagUsage(t *testing.T) {
	cmd := newClassifyCmd()
	for _, name := range []string{"arousal", "valence", "dominance"} {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag --%s missing", name)
		}
		if !strings.Contains(f.Usage, "1.0-5.0") {
			t.Errorf("--%s usage = %q, want the 1.0-5.0 scale", name, f.Usage)
		}
	}
}
