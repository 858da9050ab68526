package analyzer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{URL: server.URL + "/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New() error = %v, want ErrNotConfigured", err)
	}
}

func TestAnalyze(t *testing.T) {
	const body = `{"segments":[{"segment_id":0,"start":0,"end":2.5,"duration":2.5,"arousal":3.2,"valence":3.4,"dominance":3.0,"emotion":"sad"}],` +
		`"summary":{"total_segments":1,"avg_arousal":3.2,"avg_valence":3.4,"avg_dominance":3.0,"dominant_emotion":"sad"}}`

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if header.Filename != "rec.wav" || string(data) != "audio" {
			t.Errorf("file = %q %q", header.Filename, data)
		}
		_, _ = io.WriteString(w, body)
	})

	resp, err := c.Analyze(context.Background(), []byte("audio"), "rec.wav")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(resp.Segments) != 1 || !resp.Segments[0].Arousal.Valid || resp.Segments[0].Arousal.Value != 3.2 {
		t.Errorf("Segments = %+v", resp.Segments)
	}
	if resp.Summary == nil || resp.Summary.TotalSegments != 1 {
		t.Errorf("Summary = %+v", resp.Summary)
	}
	if string(resp.Body) != body {
		t.Errorf("Body not preserved")
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "reported error", status: http.StatusOK, body: `{"error":"model not loaded"}`},
		{name: "malformed body", status: http.StatusOK, body: `{"segments":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Analyze(context.Background(), []byte("audio"), "rec.wav")
			if !errors.Is(err, ErrAnalysisFailed) {
				t.Errorf("Analyze() error = %v, want ErrAnalysisFailed", err)
			}
		})
	}
}
