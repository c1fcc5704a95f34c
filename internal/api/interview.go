package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/summervoice/summervoice/internal/storage"
	"github.com/summervoice/summervoice/internal/worker"
)

type createInterviewRequest struct {
	ProgramName   string   `json:"program_name"`
	DistrictName  string   `json:"district_name"`
	SchoolName    string   `json:"school_name"`
	Grade         int      `json:"grade"`
	Race          []string `json:"race"`
	Gender        string   `json:"gender"`
	HomeLanguages string   `json:"home_languages"`
}

func handleCreateInterview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req createInterviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if req.ProgramName == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "program_name is required")
			return
		}
		if req.Grade < 5 || req.Grade > 12 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "grade must be between 5 and 12, got %d", req.Grade)
			return
		}

		iv := storage.Interview{
			ID:            uuid.New().String(),
			ProgramName:   req.ProgramName,
			DistrictName:  req.DistrictName,
			SchoolName:    req.SchoolName,
			Grade:         req.Grade,
			Race:          req.Race,
			Gender:        req.Gender,
			HomeLanguages: req.HomeLanguages,
			Status:        storage.StatusInProgress,
		}
		if err := deps.Store.CreateInterview(iv); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to create interview: %v", err)
			return
		}

		deps.Logger.Info("interview created", "interview_id", iv.ID, "grade", iv.Grade)
		writeJSON(w, http.StatusCreated, map[string]string{"interview_id": iv.ID})
	}
}

type completeInterviewRequest struct {
	InterviewID string `json:"interview_id"`
}

func handleCompleteInterview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req completeInterviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.InterviewID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "interview_id is required")
			return
		}

		changed, err := deps.Store.CompleteInterview(req.InterviewID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "interview %s not found", req.InterviewID)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to complete interview: %v", err)
			return
		}

		// Only the request that actually flipped the status enqueues the
		// analysis, so repeated completes don't stack duplicate jobs.
		if changed {
			payload, err := json.Marshal(worker.AnalyzePayload{InterviewID: req.InterviewID})
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to marshal job payload: %v", err)
				return
			}
			job := storage.Job{
				ID:          uuid.New().String(),
				Type:        worker.JobTypeAnalyze,
				PayloadJSON: string(payload),
			}
			if err := deps.Store.EnqueueJob(job); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "failed to enqueue analysis: %v", err)
				return
			}
			deps.Logger.Info("interview completed", "interview_id", req.InterviewID)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":          storage.StatusCompleted,
			"analysis_queued": changed,
		})
	}
}

type chatRequest struct {
	InterviewID string `json:"interview_id"`
	Message     string `json:"message"`
}

type chatEvent struct {
	Text       string `json:"text,omitempty"`
	Done       bool   `json:"done,omitempty"`
	IsComplete bool   `json:"isComplete"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.InterviewID == "" || req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "interview_id and message are required")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			httpError(w, http.StatusInternalServerError, "api_error", "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		wroteHeader := false
		emit := func(ev chatEvent) {
			if !wroteHeader {
				w.WriteHeader(http.StatusOK)
				wroteHeader = true
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				deps.Logger.Error("failed to marshal chat event", "error", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}

		res, err := deps.Interviews.Turn(r.Context(), req.InterviewID, req.Message, func(text string) {
			emit(chatEvent{Text: text})
		})
		if err != nil {
			if wroteHeader {
				deps.Logger.Error("chat turn failed mid-stream", "interview_id", req.InterviewID, "error", err)
				return
			}
			w.Header().Del("Content-Type")
			w.Header().Del("Cache-Control")
			w.Header().Del("Connection")
			if errors.Is(err, storage.ErrNotFound) {
				httpError(w, http.StatusNotFound, "not_found_error", "interview %s not found", req.InterviewID)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "chat turn failed: %v", err)
			return
		}

		if !res.Streamed {
			emit(chatEvent{Text: res.Reply})
		}
		emit(chatEvent{Done: true, IsComplete: res.Complete})
	}
}

type analyzeRequest struct {
	InterviewID string `json:"interview_id"`
}

func handleAnalyze(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.InterviewID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "interview_id is required")
			return
		}

		if _, err := deps.Store.GetInterview(req.InterviewID); errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "interview %s not found", req.InterviewID)
			return
		} else if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load interview: %v", err)
			return
		}

		if err := deps.Analyzer.Run(r.Context(), req.InterviewID); err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "analysis failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "analyzed", "interview_id": req.InterviewID})
	}
}
