// Package api exposes the HTTP surface: the student-facing interview
// endpoints and the password/JWT-protected admin endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/summervoice/summervoice/internal/interview"
	"github.com/summervoice/summervoice/internal/settings"
	"github.com/summervoice/summervoice/internal/storage"
)

const maxBodySize = 1 << 20 // 1MB

// AnalysisRunner triggers a synchronous analysis of one interview.
type AnalysisRunner interface {
	Run(ctx context.Context, interviewID string) error
}

type Deps struct {
	Store         *storage.Store
	Interviews    *interview.Service
	Analyzer      AnalysisRunner
	Settings      *settings.Provider
	AdminPassword string
	JWTSecret     []byte
	Logger        *slog.Logger
}

func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))
	r.Post("/interview/create", handleCreateInterview(deps))
	r.Post("/interview/complete", handleCompleteInterview(deps))
	r.Post("/chat", handleChat(deps))
	r.Post("/admin/auth", handleAdminAuth(deps))

	r.Group(func(gr chi.Router) {
		gr.Use(AdminAuth(deps.AdminPassword, deps.JWTSecret))
		gr.Post("/analyze", handleAnalyze(deps))
		gr.Get("/admin/interviews", handleListInterviews(deps))
		gr.Get("/admin/interviews/{id}", handleGetInterview(deps))
		gr.Get("/admin/export", handleExport(deps))
		gr.Get("/admin/aggregate", handleAggregate(deps))
		gr.Get("/admin/settings", handleGetSettings(deps))
		gr.Put("/admin/settings", handlePutSettings(deps))
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
