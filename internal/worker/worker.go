// Package worker drains the analysis job queue in the background.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/summervoice/summervoice/internal/storage"
)

// JobTypeAnalyze is enqueued when an interview is completed.
const JobTypeAnalyze = "analyze_interview"

// JobStore abstracts the job queue operations.
type JobStore interface {
	ClaimNextJob(types []string) (*storage.Job, error)
	CompleteJob(id string) error
	FailJob(id string, errMsg string) error
}

// Runner executes the analysis for one interview. *analysis.Analyzer
// satisfies it.
type Runner interface {
	Run(ctx context.Context, interviewID string) error
}

// Worker processes analyze_interview jobs from the SQLite job queue.
type Worker struct {
	store    JobStore
	analyzer Runner
	poll     time.Duration
	logger   *slog.Logger
}

// NewWorker creates a Worker with the given dependencies.
// If pollInterval is <= 0, it defaults to 500ms.
func NewWorker(store JobStore, analyzer Runner, pollInterval time.Duration, logger *slog.Logger) *Worker {
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:    store,
		analyzer: analyzer,
		poll:     pollInterval,
		logger:   logger,
	}
}

// Run polls for jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		done, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("worker iteration failed", "error", err)
		}
		if done {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce claims and processes a single analyze_interview job.
// Returns true if a job was processed (regardless of success/failure).
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimNextJob([]string{JobTypeAnalyze})
	if err != nil {
		return false, fmt.Errorf("claiming job: %w", err)
	}
	if job == nil {
		return false, nil
	}

	if err := w.processJob(ctx, job); err != nil {
		w.logger.Warn("job failed", "job_id", job.ID, "error", err)
		if failErr := w.store.FailJob(job.ID, err.Error()); failErr != nil {
			w.logger.Error("failed to mark job as failed", "job_id", job.ID, "error", failErr)
		}
		return true, nil
	}

	if err := w.store.CompleteJob(job.ID); err != nil {
		return true, fmt.Errorf("completing job %s: %w", job.ID, err)
	}
	return true, nil
}

// AnalyzePayload is the JSON body of an analyze_interview job.
type AnalyzePayload struct {
	InterviewID string `json:"interview_id"`
}

func (w *Worker) processJob(ctx context.Context, job *storage.Job) error {
	var payload AnalyzePayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if payload.InterviewID == "" {
		return fmt.Errorf("job %s has no interview_id", job.ID)
	}

	w.logger.Info("analyzing interview", "job_id", job.ID, "interview_id", payload.InterviewID)
	if err := w.analyzer.Run(ctx, payload.InterviewID); err != nil {
		return fmt.Errorf("analyzing interview %s: %w", payload.InterviewID, err)
	}
	return nil
}
