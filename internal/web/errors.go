package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/justestif/go-voice-diary/internal/analyzer"
	"github.com/justestif/go-voice-diary/internal/diary"
	"github.com/justestif/go-voice-diary/internal/openai"
)

// apiError is the JSON error body.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	errUnauthorized = &apiError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing " + UserHeader + " header"}
	errInvalidDate  = &apiError{Status: http.StatusBadRequest, Code: "invalid_date", Message: "date must be YYYY-MM-DD"}
	errInvalidBody  = &apiError{Status: http.StatusBadRequest, Code: "invalid_body", Message: "invalid JSON body"}
	errInternal     = &apiError{Status: http.StatusInternalServerError, Code: "internal", Message: "internal error"}
)

func badRequest(code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message}
}

// toAPIError maps service errors to responses. Unknown errors are reported
// as internal without leaking their text.
func toAPIError(err error) *apiError {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, diary.ErrNoEmotionData):
		return &apiError{Status: http.StatusNotFound, Code: "no_data", Message: err.Error()}
	case errors.Is(err, diary.ErrNoDiaryData):
		return &apiError{Status: http.StatusNotFound, Code: "no_diary", Message: err.Error()}
	case errors.Is(err, diary.ErrRecordingLimit):
		return &apiError{Status: http.StatusTooManyRequests, Code: "recording_limit", Message: err.Error()}
	case errors.Is(err, analyzer.ErrInvalidVAD):
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "invalid_vad", Message: err.Error()}
	case errors.Is(err, diary.ErrNotConfigured):
		return &apiError{Status: http.StatusServiceUnavailable, Code: "not_configured", Message: err.Error()}
	case errors.Is(err, openai.ErrRateLimited):
		return &apiError{Status: http.StatusServiceUnavailable, Code: "upstream_busy", Message: "text generation is rate limited, try again later"}
	default:
		return errInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err *apiError) {
	writeJSON(w, err.Status, err)
}
