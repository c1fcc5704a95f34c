// Package interview runs the live student-facing conversation: it persists
// the transcript and drives the model turn by turn with streaming output.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/summervoice/summervoice/internal/anthropic"
	"github.com/summervoice/summervoice/internal/storage"
)

// CompleteTag is appended by the model to its final message once every
// interview theme has been covered. Clients strip it before display.
const CompleteTag = "[INTERVIEW_COMPLETE]"

// fallbackReply is shown when both the streaming attempt and the
// non-streaming retry fail. It is not persisted so the transcript only
// contains real exchanges.
const fallbackReply = "Hmm, let me think... I'm having a little trouble right now. Could you try saying that again?"

const maxChatTokens = 1024

// Store is the storage surface a chat turn needs.
type Store interface {
	GetInterview(id string) (storage.Interview, error)
	AppendMessage(m storage.Message) error
	ListMessages(interviewID string) ([]storage.Message, error)
}

// Chatter generates assistant replies. *anthropic.Client satisfies it.
type Chatter interface {
	Stream(ctx context.Context, model, system string, messages []anthropic.Message, maxTokens int, onText func(string)) (string, error)
	Complete(ctx context.Context, model, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

// ModelResolver picks the model used for chat turns.
type ModelResolver interface {
	ChatModel() string
}

// Service handles one chat turn end to end.
type Service struct {
	store    Store
	client   Chatter
	settings ModelResolver
	logger   *slog.Logger
}

func NewService(store Store, client Chatter, settings ModelResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, client: client, settings: settings, logger: logger}
}

// TurnResult describes the outcome of a chat turn.
//
// Streamed reports whether Reply was already delivered incrementally through
// the onText callback; when false the caller must send Reply itself.
type TurnResult struct {
	Reply    string
	Complete bool
	Streamed bool
	Fallback bool
}

// Turn appends the student's message, generates the assistant reply and
// persists it. Generation failures degrade internally: a failed stream is
// retried once without streaming, and if that also fails a scripted fallback
// reply is returned without touching the transcript. An error is returned
// only for storage problems or an unknown interview.
func (s *Service) Turn(ctx context.Context, interviewID, content string, onText func(string)) (TurnResult, error) {
	iv, err := s.store.GetInterview(interviewID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("load interview: %w", err)
	}

	userMsg := storage.Message{
		ID:          uuid.New().String(),
		InterviewID: interviewID,
		Role:        "user",
		Content:     content,
	}
	if err := s.store.AppendMessage(userMsg); err != nil {
		return TurnResult{}, fmt.Errorf("save student message: %w", err)
	}

	history, err := s.store.ListMessages(interviewID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("load transcript: %w", err)
	}

	msgs := make([]anthropic.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, anthropic.Message{Role: m.Role, Content: m.Content})
	}

	model := s.settings.ChatModel()
	system := SystemPrompt(iv.Grade)

	reply, err := s.client.Stream(ctx, model, system, msgs, maxChatTokens, onText)
	streamed := err == nil
	if err != nil {
		s.logger.Warn("chat stream failed, retrying without streaming",
			"interview_id", interviewID, "error", err)
		reply, err = s.client.Complete(ctx, model, system, msgs, maxChatTokens)
	}
	if err != nil {
		s.logger.Error("chat generation failed", "interview_id", interviewID, "error", err)
		return TurnResult{Reply: fallbackReply, Fallback: true}, nil
	}

	assistantMsg := storage.Message{
		ID:          uuid.New().String(),
		InterviewID: interviewID,
		Role:        "assistant",
		Content:     reply,
	}
	if err := s.store.AppendMessage(assistantMsg); err != nil {
		return TurnResult{}, fmt.Errorf("save assistant message: %w", err)
	}

	return TurnResult{
		Reply:    reply,
		Complete: strings.Contains(reply, CompleteTag),
		Streamed: streamed,
	}, nil
}
