package diary

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/go-voice-diary/internal/analyzer"
	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/openai"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories.
type memDB struct {
	mu         sync.Mutex
	now        func() time.Time
	recordings []db.Recording
	analyses   []db.EmotionAnalysis
	summaries  map[string]*db.DailySummary
	turns      []db.DialogueTurn
}

func newMemDB(now func() time.Time) *memDB {
	return &memDB{now: now, summaries: make(map[string]*db.DailySummary)}
}

func (m *memDB) stores() Stores {
	return Stores{
		Recordings: memRecordings{m},
		Analyses:   memAnalyses{m},
		Summaries:  memSummaries{m},
		Dialogue:   memDialogue{m},
	}
}

func summaryKey(userID string, date time.Time) string {
	return userID + "/" + date.Format(DateLayout)
}

// addAnalysis stores a recording created at t with one analysis.
func (m *memDB) addAnalysis(userID string, t time.Time, avg emotion.VAD, labels ...emotion.Emotion) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := db.Recording{ID: uuid.New(), UserID: userID, CreatedAt: t}
	m.recordings = append(m.recordings, rec)

	segs := make([]emotion.Segment, len(labels))
	for i, l := range labels {
		segs[i] = emotion.Segment{ID: i, VAD: avg, Emotion: l}
	}
	m.analyses = append(m.analyses, db.EmotionAnalysis{
		ID:              uuid.New(),
		RecordingID:     rec.ID,
		UserID:          userID,
		Segments:        segs,
		TotalSegments:   len(segs),
		AvgArousal:      avg.Arousal,
		AvgValence:      avg.Valence,
		AvgDominance:    avg.Dominance,
		DominantEmotion: emotion.Neutral,
	})
	return rec.ID
}

func (m *memDB) summary(userID string, date time.Time) *db.DailySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summaries[summaryKey(userID, date)]
}

func (m *memDB) dialogue() []db.DialogueTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.turns)
}

type memRecordings struct{ m *memDB }

func (r memRecordings) Create(_ context.Context, rec *db.Recording) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.m.now()
	}
	r.m.recordings = append(r.m.recordings, *rec)
	return nil
}

func (r memRecordings) Get(_ context.Context, id uuid.UUID) (*db.Recording, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, rec := range r.m.recordings {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memRecordings) between(userID string, start, end time.Time) []db.Recording {
	var out []db.Recording
	for _, rec := range r.m.recordings {
		if rec.UserID == userID && !rec.CreatedAt.Before(start) && rec.CreatedAt.Before(end) {
			out = append(out, rec)
		}
	}
	return out
}

func (r memRecordings) CountBetween(_ context.Context, userID string, start, end time.Time) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.between(userID, start, end)), nil
}

func (r memRecordings) TotalDurationBetween(_ context.Context, userID string, start, end time.Time) (float64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var total float64
	for _, rec := range r.between(userID, start, end) {
		if rec.DurationSeconds != nil {
			total += *rec.DurationSeconds
		}
	}
	return total, nil
}

type memAnalyses struct{ m *memDB }

func (a memAnalyses) Save(_ context.Context, an *db.EmotionAnalysis) error {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	a.m.analyses = append(a.m.analyses, *an)
	return nil
}

func (a memAnalyses) GetByRecording(_ context.Context, id uuid.UUID) (*db.EmotionAnalysis, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	for _, an := range a.m.analyses {
		if an.RecordingID == id {
			return &an, nil
		}
	}
	return nil, db.ErrNotFound
}

func (a memAnalyses) ListBetween(_ context.Context, userID string, start, end time.Time) ([]db.EmotionAnalysis, error) {
	a.m.mu.Lock()
	defer a.m.mu.Unlock()
	ids := make(map[uuid.UUID]bool)
	for _, rec := range (memRecordings{a.m}).between(userID, start, end) {
		ids[rec.ID] = true
	}
	var out []db.EmotionAnalysis
	for _, an := range a.m.analyses {
		if ids[an.RecordingID] {
			out = append(out, an)
		}
	}
	return out, nil
}

type memSummaries struct{ m *memDB }

func (s memSummaries) row(userID string, date time.Time) *db.DailySummary {
	key := summaryKey(userID, date)
	row, ok := s.m.summaries[key]
	if !ok {
		row = &db.DailySummary{ID: uuid.New(), UserID: userID, Date: date}
		s.m.summaries[key] = row
	}
	return row
}

func (s memSummaries) UpsertEmotions(_ context.Context, userID string, date time.Time, sum emotion.DailySummary) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	row := s.row(userID, date)
	a, v, d, dom := sum.AvgArousal, sum.AvgValence, sum.AvgDominance, sum.DominantEmotion
	row.AvgArousal, row.AvgValence, row.AvgDominance, row.DominantEmotion = &a, &v, &d, &dom
	row.EmotionDistribution = sum.EmotionDistribution
	row.TotalRecordings = sum.TotalRecordings
	return nil
}

func (s memSummaries) UpsertActivity(_ context.Context, userID string, date time.Time, transcription string, total float64) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	row := s.row(userID, date)
	row.TranscriptionText = &transcription
	row.TotalDurationSeconds = total
	return nil
}

func (s memSummaries) UpdateGenerated(_ context.Context, userID string, date time.Time, formatted, insights string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	row := s.row(userID, date)
	row.FormattedText = &formatted
	row.AIInsights = &insights
	return nil
}

func (s memSummaries) Get(_ context.Context, userID string, date time.Time) (*db.DailySummary, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	row, ok := s.m.summaries[summaryKey(userID, date)]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s memSummaries) ListForUser(_ context.Context, userID string, limit int) ([]db.DailySummary, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var out []db.DailySummary
	for _, row := range s.m.summaries {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	slices.SortFunc(out, func(a, b db.DailySummary) int { return b.Date.Compare(a.Date) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memDialogue struct{ m *memDB }

func (d memDialogue) Append(_ context.Context, turn *db.DialogueTurn) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	next := 0
	for _, t := range d.m.turns {
		if t.UserID == turn.UserID && t.Date.Equal(turn.Date) {
			next = max(next, t.OrderIndex+1)
		}
	}
	if turn.ID == uuid.Nil {
		turn.ID = uuid.New()
	}
	turn.OrderIndex = next
	d.m.turns = append(d.m.turns, *turn)
	return nil
}

func (d memDialogue) History(_ context.Context, userID string, date time.Time) ([]db.DialogueTurn, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	var out []db.DialogueTurn
	for _, t := range d.m.turns {
		if t.UserID == userID && t.Date.Equal(date) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.text, f.err
}

type fakeAnalyzer struct {
	resp *analyzer.Response
	err  error
}

func (f fakeAnalyzer) Analyze(context.Context, []byte, string) (*analyzer.Response, error) {
	return f.resp, f.err
}

// fakeChat records every prompt and answers with the prompt's first line.
type fakeChat struct {
	mu    sync.Mutex
	calls [][]openai.Message
	err   error
}

func (f *fakeChat) Complete(_ context.Context, msgs []openai.Message, _ openai.CompletionOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	last := msgs[len(msgs)-1].Content
	first, _, _ := strings.Cut(last, "\n")
	return "reply to " + first, nil
}

// prompt returns the final message of the call whose prompt starts with prefix.
func (f *fakeChat) prompt(t *testing.T, prefix string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msgs := range f.calls {
		if last := msgs[len(msgs)-1].Content; strings.HasPrefix(last, prefix) {
			return last
		}
	}
	t.Fatalf("no prompt starting with %q", prefix)
	return ""
}

type fakeAudio struct {
	mu       sync.Mutex
	objects  map[string][]byte
	archives map[string][]byte
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{objects: make(map[string][]byte), archives: make(map[string][]byte)}
}

func (f *fakeAudio) PutRecording(_ context.Context, key string, audio []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = audio
	return nil
}

func (f *fakeAudio) ArchiveAnalysis(_ context.Context, key string, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.archives[key] = raw
	return nil
}

var errBoom = errors.New("boom")
