package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/summervoice/summervoice/internal/settings"
	"github.com/summervoice/summervoice/internal/storage"
)

type interviewJSON struct {
	ID            string     `json:"id"`
	ProgramName   string     `json:"program_name"`
	DistrictName  string     `json:"district_name,omitempty"`
	SchoolName    string     `json:"school_name,omitempty"`
	Grade         int        `json:"grade"`
	Race          []string   `json:"race"`
	Gender        string     `json:"gender,omitempty"`
	HomeLanguages string     `json:"home_languages,omitempty"`
	Status        string     `json:"status"`
	SafetyFlag    bool       `json:"safety_flag"`
	SafetyNotes   string     `json:"safety_notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func toInterviewJSON(iv storage.Interview) interviewJSON {
	out := interviewJSON{
		ID:            iv.ID,
		ProgramName:   iv.ProgramName,
		DistrictName:  iv.DistrictName,
		SchoolName:    iv.SchoolName,
		Grade:         iv.Grade,
		Race:          iv.Race,
		Gender:        iv.Gender,
		HomeLanguages: iv.HomeLanguages,
		Status:        iv.Status,
		SafetyFlag:    iv.SafetyFlag,
		SafetyNotes:   iv.SafetyNotes,
		CreatedAt:     iv.CreatedAt,
	}
	if out.Race == nil {
		out.Race = []string{}
	}
	if !iv.CompletedAt.IsZero() {
		t := iv.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

type interviewOverviewJSON struct {
	interviewJSON
	HasSummary        bool              `json:"has_summary"`
	Summary           string            `json:"summary,omitempty"`
	Themes            []string          `json:"themes,omitempty"`
	SentimentOverview map[string]string `json:"sentiment_overview,omitempty"`
}

func handleListInterviews(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overviews, err := deps.Store.ListInterviewOverviews()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list interviews: %v", err)
			return
		}

		out := make([]interviewOverviewJSON, 0, len(overviews))
		for _, ov := range overviews {
			out = append(out, interviewOverviewJSON{
				interviewJSON:     toInterviewJSON(ov.Interview),
				HasSummary:        ov.HasSummary,
				Summary:           ov.Summary,
				Themes:            ov.Themes,
				SentimentOverview: ov.SentimentOverview,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"interviews": out})
	}
}

type messageJSON struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ratingJSON struct {
	SurveyItem     string  `json:"survey_item"`
	SurveyCategory string  `json:"survey_category"`
	Value          string  `json:"value"`
	Source         string  `json:"source"`
	Confidence     float64 `json:"confidence"`
}

type summaryJSON struct {
	Summary           string            `json:"summary"`
	Themes            []string          `json:"themes"`
	KeyQuotes         []string          `json:"key_quotes"`
	SentimentOverview map[string]string `json:"sentiment_overview"`
	Strengths         []string          `json:"strengths"`
	Improvements      []string          `json:"improvements"`
	CreatedAt         time.Time         `json:"created_at"`
}

func handleGetInterview(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		iv, err := deps.Store.GetInterview(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "interview %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load interview: %v", err)
			return
		}

		messages, err := deps.Store.ListMessages(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load transcript: %v", err)
			return
		}
		ratings, err := deps.Store.ListRatings(id)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load ratings: %v", err)
			return
		}

		resp := map[string]any{
			"interview": toInterviewJSON(iv),
		}

		msgs := make([]messageJSON, 0, len(messages))
		for _, m := range messages {
			msgs = append(msgs, messageJSON{ID: m.ID, Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
		}
		resp["messages"] = msgs

		rts := make([]ratingJSON, 0, len(ratings))
		for _, rt := range ratings {
			rts = append(rts, ratingJSON{
				SurveyItem:     rt.SurveyItem,
				SurveyCategory: rt.SurveyCategory,
				Value:          rt.Value,
				Source:         rt.Source,
				Confidence:     rt.Confidence,
			})
		}
		resp["ratings"] = rts

		summary, err := deps.Store.GetSummary(id)
		switch {
		case err == nil:
			resp["summary"] = summaryJSON{
				Summary:           summary.Summary,
				Themes:            summary.Themes,
				KeyQuotes:         summary.KeyQuotes,
				SentimentOverview: summary.SentimentOverview,
				Strengths:         summary.Strengths,
				Improvements:      summary.Improvements,
				CreatedAt:         summary.CreatedAt,
			}
		case errors.Is(err, storage.ErrNotFound):
			resp["summary"] = nil
		default:
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load summary: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type themeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

func handleAggregate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := storage.InterviewFilter{
			District: r.URL.Query().Get("district"),
			School:   r.URL.Query().Get("school"),
		}
		q := r.URL.Query()
		if v := q.Get("grade_min"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid grade_min: %q", v)
				return
			}
			filter.GradeMin = n
		}
		if v := q.Get("grade_max"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid grade_max: %q", v)
				return
			}
			filter.GradeMax = n
		}

		totalCompleted, err := deps.Store.CountInterviews(storage.StatusCompleted)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count interviews: %v", err)
			return
		}
		totalInProgress, err := deps.Store.CountInterviews(storage.StatusInProgress)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count interviews: %v", err)
			return
		}
		totalSafetyFlags, err := deps.Store.CountSafetyFlagged()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to count safety flags: %v", err)
			return
		}
		districts, err := deps.Store.DistinctDistricts()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list districts: %v", err)
			return
		}
		schools, err := deps.Store.DistinctSchools()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list schools: %v", err)
			return
		}

		resp := map[string]any{
			"total_completed":    totalCompleted,
			"total_in_progress":  totalInProgress,
			"total_safety_flags": totalSafetyFlags,
			"ratings_by_item":    map[string]map[string]int{},
			"themes":             []themeCount{},
			"districts":          districts,
			"schools":            schools,
		}

		ids, err := deps.Store.CompletedInterviewIDs(filter)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to resolve interviews: %v", err)
			return
		}
		if len(ids) == 0 {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		ratings, err := deps.Store.RatingsByInterviews(ids)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load ratings: %v", err)
			return
		}
		byItem := map[string]map[string]int{}
		for _, rt := range ratings {
			if byItem[rt.SurveyItem] == nil {
				byItem[rt.SurveyItem] = map[string]int{}
			}
			byItem[rt.SurveyItem][rt.Value]++
		}
		resp["ratings_by_item"] = byItem

		themes, err := deps.Store.ThemesByInterviews(ids)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load themes: %v", err)
			return
		}
		counts := map[string]int{}
		for _, theme := range themes {
			counts[theme]++
		}
		sorted := make([]themeCount, 0, len(counts))
		for theme, n := range counts {
			sorted = append(sorted, themeCount{Theme: theme, Count: n})
		}
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].Count != sorted[j].Count {
				return sorted[i].Count > sorted[j].Count
			}
			return sorted[i].Theme < sorted[j].Theme
		})
		resp["themes"] = sorted

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleGetSettings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"settings":         deps.Settings.All(),
			"available_models": settings.AvailableModels,
		})
	}
}

type putSettingsRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func handlePutSettings(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req putSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		if err := deps.Settings.Update(req.Key, req.Value); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		deps.Logger.Info("setting updated", "key", req.Key, "value", req.Value)
		writeJSON(w, http.StatusOK, map[string]any{"settings": deps.Settings.All()})
	}
}
