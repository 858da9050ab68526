package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-voice-diary/internal/diary"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/metrics"
)

// DiaryService is the subset of diary.Service the API uses.
type DiaryService interface {
	ProcessRecording(ctx context.Context, userID string, in diary.RecordingInput) (*diary.RecordingResult, error)
	RecordingQuota(ctx context.Context, userID string, now time.Time) (diary.Quota, error)
	DailyEmotions(ctx context.Context, userID string, date time.Time) (emotion.DailySummary, error)
	RefreshDailyEmotions(ctx context.Context, userID string, date time.Time) (emotion.DailySummary, error)
	GenerateSummary(ctx context.Context, userID string, date time.Time) (*diary.Summary, error)
	Reply(ctx context.Context, userID, message string, recordingID *uuid.UUID) (*diary.Reply, error)
	Calendar(ctx context.Context, userID string, limit int) ([]diary.CalendarDay, error)
	MoodPeriods(ctx context.Context, userID string, limit int) (*diary.MoodReport, error)
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	diary      DiaryService
	classifier *emotion.Classifier
	metrics    *metrics.Manager
	log        logrus.FieldLogger
	checks     map[string]func(context.Context) error
	maxUpload  int64
	now        func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, maxUpload int64) *Handlers {
	return &Handlers{
		diary:      deps.Diary,
		classifier: deps.Classifier,
		metrics:    deps.Metrics,
		log:        deps.Logger,
		checks:     deps.Checks,
		maxUpload:  maxUpload,
		now:        time.Now,
	}
}

// fail logs unexpected errors and writes the mapped response.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	ae := toAPIError(err)
	if ae.Status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request error")
	}
	writeError(w, ae)
}

// Health reports the status of each dependency (GET /healthz).
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, status, map[string]any{
		"ok":         status == http.StatusOK,
		"components": components,
	})
}

// vadRequest is the body of the classify and assess endpoints.
type vadRequest struct {
	Arousal   *float64 `json:"arousal"`
	Valence   *float64 `json:"valence"`
	Dominance *float64 `json:"dominance"`
}

func decodeVAD(r *http.Request) (emotion.VAD, error) {
	var req vadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return emotion.VAD{}, errInvalidBody
	}
	if req.Arousal == nil || req.Valence == nil || req.Dominance == nil {
		return emotion.VAD{}, &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_vad", Message: "arousal, valence and dominance are required numbers"}
	}
	return emotion.VAD{Arousal: *req.Arousal, Valence: *req.Valence, Dominance: *req.Dominance}, nil
}

// classifyResponse is the body returned by Classify.
type classifyResponse struct {
	Emotion emotion.Emotion `json:"emotion"`
	Glyph   string          `json:"glyph"`
	Label   string          `json:"label"`
}

// Classify labels a VAD triple (POST /api/classify).
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) {
	vad, err := decodeVAD(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e := h.classifier.Classify(vad)
	h.metrics.ObserveClassification(e)
	writeJSON(w, http.StatusOK, classifyResponse{Emotion: e, Glyph: e.Glyph(), Label: e.LocalizedName()})
}

// Assess reports whether a VAD triple is worth mentioning (POST /api/assess).
func (h *Handlers) Assess(w http.ResponseWriter, r *http.Request) {
	vad, err := decodeVAD(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a := h.classifier.Assess(vad)
	h.metrics.ObserveAssessment(a)
	writeJSON(w, http.StatusOK, a)
}

// UploadRecording ingests a multipart voice memo (POST /api/recordings).
// The audio is in the "audio" part; "duration" is optional, in seconds.
func (h *Handlers) UploadRecording(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, &apiError{Status: http.StatusRequestEntityTooLarge, Code: "too_large", Message: "recording exceeds upload limit"})
			return
		}
		writeError(w, badRequest("invalid_upload", "expected multipart form with an audio part"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, badRequest("invalid_upload", "missing audio part"))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if len(audio) == 0 {
		writeError(w, badRequest("invalid_upload", "audio part is empty"))
		return
	}

	in := diary.RecordingInput{
		Audio:       audio,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
	if v := strings.TrimSpace(r.FormValue("duration")); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d < 0 {
			writeError(w, badRequest("invalid_duration", "duration must be a non-negative number of seconds"))
			return
		}
		in.Duration = &d
	}

	result, err := h.diary.ProcessRecording(r.Context(), userFrom(r.Context()), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// RecordingQuota reports today's remaining recordings (GET /api/recordings/quota).
func (h *Handlers) RecordingQuota(w http.ResponseWriter, r *http.Request) {
	q, err := h.diary.RecordingQuota(r.Context(), userFrom(r.Context()), h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func dateParam(r *http.Request) (time.Time, error) {
	d, err := time.Parse(diary.DateLayout, chi.URLParam(r, "date"))
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return d, nil
}

// DailyEmotions returns the day's aggregate (GET /api/days/{date}/emotions).
// A day without analysed recordings is 404 no_data, never a neutral summary.
func (h *Handlers) DailyEmotions(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, err := h.diary.DailyEmotions(r.Context(), userFrom(r.Context()), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// RefreshDay recomputes and stores the day's aggregate (POST /api/days/{date}/refresh).
func (h *Handlers) RefreshDay(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, err := h.diary.RefreshDailyEmotions(r.Context(), userFrom(r.Context()), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GenerateSummary writes the day's diary entry (POST /api/days/{date}/summary).
func (h *Handlers) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, err := h.diary.GenerateSummary(r.Context(), userFrom(r.Context()), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// chatRequest is the body of Chat.
type chatRequest struct {
	Message     string `json:"message"`
	RecordingID string `json:"recordingId,omitempty"`
}

// Chat answers one diary chat message (POST /api/chat).
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errInvalidBody)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, badRequest("invalid_message", "message is required"))
		return
	}

	var recordingID *uuid.UUID
	if req.RecordingID != "" {
		id, err := uuid.Parse(req.RecordingID)
		if err != nil {
			writeError(w, badRequest("invalid_recording_id", "recordingId must be a UUID"))
			return
		}
		recordingID = &id
	}

	reply, err := h.diary.Reply(r.Context(), userFrom(r.Context()), req.Message, recordingID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func limitParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > 366 {
		return 0, badRequest("invalid_limit", "limit must be between 1 and 366")
	}
	return n, nil
}

// Calendar lists recent days for the mood calendar (GET /api/calendar).
func (h *Handlers) Calendar(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	days, err := h.diary.Calendar(r.Context(), userFrom(r.Context()), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// MoodPeriods clusters recent days into mood periods (GET /api/mood-periods).
func (h *Handlers) MoodPeriods(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.diary.MoodPeriods(r.Context(), userFrom(r.Context()), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
