package diary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/openai"
)

var replyOptions = openai.CompletionOptions{Temperature: 0.7, MaxTokens: 500}

// Reply is the assistant's answer to one chat turn.
type Reply struct {
	Response   string              `json:"response"`
	Mode       PromptMode          `json:"mode"`
	Assessment *emotion.Assessment `json:"assessment,omitempty"`
}

// Reply answers a chat message. When recordingID is set the message is the
// transcription of that recording, already saved as a voice turn, and its
// voice assessment may shape the prompt. Text messages are saved as a user
// turn. The assistant's answer is always saved.
func (s *Service) Reply(ctx context.Context, userID, message string, recordingID *uuid.UUID) (*Reply, error) {
	if s.chat == nil {
		return nil, fmt.Errorf("%w: chat model", ErrNotConfigured)
	}

	date := s.Today()
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "date": date.Format(DateLayout)})

	history, err := s.stores.Dialogue.History(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("loading dialogue: %w", err)
	}

	var vad *emotion.VAD
	var assessment *emotion.Assessment
	if recordingID != nil {
		analysis, err := s.stores.Analyses.GetByRecording(ctx, *recordingID)
		if err == nil && analysis.UserID != userID {
			log.WithField("recording_id", *recordingID).Warn("recording belongs to another user")
			analysis, err = nil, db.ErrNotFound
		}
		switch {
		case errors.Is(err, db.ErrNotFound):
			log.WithField("recording_id", *recordingID).Debug("no analysis for recording")
		case err != nil:
			return nil, fmt.Errorf("loading analysis: %w", err)
		default:
			avg := analysis.Result().Average()
			a := s.classifier.Assess(avg)
			s.metrics.ObserveAssessment(a)
			vad, assessment = &avg, &a
		}
	} else {
		turn := &db.DialogueTurn{
			UserID:    userID,
			Date:      date,
			Role:      db.RoleUser,
			Content:   message,
			InputType: db.InputText,
		}
		if err := s.stores.Dialogue.Append(ctx, turn); err != nil {
			return nil, fmt.Errorf("saving user turn: %w", err)
		}
	}

	prompt, mode := replyPrompt(message, vad, assessment)

	messages := []openai.Message{{Role: openai.RoleSystem, Content: counselorPrompt}}
	for _, t := range history {
		if recordingID != nil && t.RecordingID != nil && *t.RecordingID == *recordingID {
			continue
		}
		messages = append(messages, openai.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, openai.Message{Role: openai.RoleUser, Content: prompt})

	start := time.Now()
	response, err := s.chat.Complete(ctx, messages, replyOptions)
	s.observe("openai", "chat", start, err)
	if err != nil {
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	turn := &db.DialogueTurn{
		UserID:    userID,
		Date:      date,
		Role:      db.RoleAssistant,
		Content:   response,
		InputType: db.InputText,
	}
	if err := s.stores.Dialogue.Append(ctx, turn); err != nil {
		return nil, fmt.Errorf("saving assistant turn: %w", err)
	}

	log.WithField("mode", mode).Info("chat reply generated")
	return &Reply{Response: response, Mode: mode, Assessment: assessment}, nil
}
