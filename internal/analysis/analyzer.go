package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/summervoice/summervoice/internal/anthropic"
	"github.com/summervoice/summervoice/internal/storage"
)

const maxAnalysisTokens = 8192

// How much of an unparsable response to keep in the log for diagnosis.
const rawResponseLogLimit = 1000

// Store is the persistence surface the analyzer needs.
type Store interface {
	ListMessages(interviewID string) ([]storage.Message, error)
	GetInterview(id string) (storage.Interview, error)
	DeleteSummary(interviewID string) error
	DeleteRatings(interviewID string) error
	InsertSummary(storage.Summary) error
	InsertRatings([]storage.Rating) error
	InsertRating(storage.Rating) error
	SetSafetyFlag(id string, notes string) error
}

// Completer is the model call the analyzer makes, satisfied by
// *anthropic.Client.
type Completer interface {
	Complete(ctx context.Context, model, system string, messages []anthropic.Message, maxTokens int) (string, error)
}

// ModelResolver supplies the analysis model identifier, read fresh on every
// run so model switching needs no redeploy.
type ModelResolver interface {
	AnalysisModel() string
}

// Analyzer turns one completed interview's transcript into persisted
// structured judgments: a summary row, a full rating set, and (when flagged)
// the interview's safety state.
//
// A run is idempotent at the interview level: prior summary and ratings are
// replaced wholesale, so re-running after a model change or a partial failure
// is safe. Concurrent runs on the same interview are not supported; the
// completion trigger enqueues at most one job per status transition.
type Analyzer struct {
	store    Store
	client   Completer
	settings ModelResolver
	logger   *slog.Logger
}

func NewAnalyzer(store Store, client Completer, settings ModelResolver, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		store:    store,
		client:   client,
		settings: settings,
		logger:   logger,
	}
}

// Run analyzes the interview's transcript and persists the result.
//
// An interview with no messages is skipped without error (abandoned session,
// nothing to analyze). A generation or parse failure aborts the run before
// any write, leaving prior analysis intact. After a successful parse, writes
// are best-effort sequential: insert failures are logged per row and never
// block the safety-flag update.
func (a *Analyzer) Run(ctx context.Context, interviewID string) error {
	messages, err := a.store.ListMessages(interviewID)
	if err != nil {
		return fmt.Errorf("loading transcript for %s: %w", interviewID, err)
	}
	if len(messages) == 0 {
		a.logger.Info("no transcript, skipping analysis", "interview_id", interviewID)
		return nil
	}

	// Demographics are optional context: fall back to unknown placeholders.
	iv, err := a.store.GetInterview(interviewID)
	if err != nil {
		a.logger.Warn("loading demographics failed, using placeholders", "interview_id", interviewID, "error", err)
		iv = storage.Interview{}
	}

	model := a.settings.AnalysisModel()
	a.logger.Info("starting analysis", "interview_id", interviewID, "model", model, "messages", len(messages))

	userMessage := BuildUserMessage(messages, iv)
	raw, err := a.client.Complete(ctx, model, SystemPrompt, []anthropic.Message{{Role: "user", Content: userMessage}}, maxAnalysisTokens)
	if err != nil {
		return fmt.Errorf("analysis generation for %s: %w", interviewID, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &result); err != nil {
		a.logger.Error("unparsable analysis response", "interview_id", interviewID, "error", err, "response_prefix", truncate(raw, rawResponseLogLimit))
		return fmt.Errorf("parsing analysis response for %s: %w", interviewID, err)
	}

	a.logger.Info("analysis parsed", "interview_id", interviewID, "safety_flag", result.SafetyFlag, "ratings", len(result.InferredRatings))

	// Replace prior results so re-runs don't accumulate rows.
	if err := a.store.DeleteSummary(interviewID); err != nil {
		a.logger.Error("deleting prior summary failed", "interview_id", interviewID, "error", err)
	}
	if err := a.store.DeleteRatings(interviewID); err != nil {
		a.logger.Error("deleting prior ratings failed", "interview_id", interviewID, "error", err)
	}

	if err := a.store.InsertSummary(storage.Summary{
		ID:                uuid.New().String(),
		InterviewID:       interviewID,
		Summary:           result.Summary,
		Themes:            result.Themes,
		KeyQuotes:         result.KeyQuotes,
		SentimentOverview: result.SentimentOverview,
		Strengths:         result.Strengths,
		Improvements:      result.Improvements,
		CreatedAt:         time.Now().UTC(),
	}); err != nil {
		a.logger.Error("inserting summary failed", "interview_id", interviewID, "error", err)
	}

	a.persistRatings(interviewID, result.InferredRatings)

	// Safety information has the highest operational priority: surface it
	// even when the summary or rating writes above partially failed.
	if result.SafetyFlag {
		if err := a.store.SetSafetyFlag(interviewID, result.SafetyNotes); err != nil {
			a.logger.Error("updating safety flag failed", "interview_id", interviewID, "error", err)
		} else {
			a.logger.Warn("safety flag raised", "interview_id", interviewID)
		}
	}

	a.logger.Info("analysis completed", "interview_id", interviewID)
	return nil
}

// persistRatings normalizes and stores the model's rating list. A bulk
// insert failure falls back to row-by-row insertion so one bad row cannot
// discard the rest, and the offending row is attributable in the log.
func (a *Analyzer) persistRatings(interviewID string, inferred []InferredRating) {
	if inferred == nil {
		// The model omitted the array entirely. Accepted degenerate case:
		// the analyzer never fabricates ratings the model didn't produce.
		a.logger.Warn("analysis response has no inferred_ratings", "interview_id", interviewID)
		return
	}

	ratings := make([]storage.Rating, len(inferred))
	for i, r := range inferred {
		source := "inferred"
		if r.Source == "direct" {
			source = "direct"
		}
		ratings[i] = storage.Rating{
			InterviewID:    interviewID,
			SurveyItem:     r.SurveyItem,
			SurveyCategory: r.SurveyCategory,
			Value:          NormalizeRating(r.Value),
			Source:         source,
			Confidence:     r.Confidence,
		}
	}
	if len(ratings) == 0 {
		return
	}

	err := a.store.InsertRatings(ratings)
	if err == nil {
		a.logger.Info("ratings inserted", "interview_id", interviewID, "count", len(ratings))
		return
	}
	a.logger.Error("bulk rating insert failed, retrying row by row", "interview_id", interviewID, "error", err)

	inserted := 0
	for _, r := range ratings {
		if err := a.store.InsertRating(r); err != nil {
			a.logger.Error("rating insert failed", "interview_id", interviewID, "survey_item", r.SurveyItem, "value", r.Value, "error", err)
			continue
		}
		inserted++
	}
	a.logger.Info("ratings inserted individually", "interview_id", interviewID, "inserted", inserted, "total", len(ratings))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
