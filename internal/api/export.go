package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var exportHeader = []string{
	"interview_id",
	"program_name",
	"district_name",
	"school_name",
	"grade",
	"gender",
	"race",
	"safety_flag",
	"interview_date",
	"survey_category",
	"survey_item",
	"value",
	"source",
	"confidence",
}

// handleExport writes every rating joined with its interview's demographics
// as long-format CSV, one row per rating.
func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := deps.Store.RatingExportRows()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to export ratings: %v", err)
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=summer-voice-ratings-export.csv")

		cw := csv.NewWriter(w)
		if err := cw.Write(exportHeader); err != nil {
			deps.Logger.Error("csv write failed", "error", err)
			return
		}
		for _, row := range rows {
			record := []string{
				row.InterviewID,
				row.ProgramName,
				row.DistrictName,
				row.SchoolName,
				strconv.Itoa(row.Grade),
				row.Gender,
				strings.Join(row.Race, "; "),
				strconv.FormatBool(row.SafetyFlag),
				row.CreatedAt.UTC().Format(time.RFC3339),
				row.SurveyCategory,
				row.SurveyItem,
				row.Value,
				row.Source,
				strconv.FormatFloat(row.Confidence, 'g', -1, 64),
			}
			if err := cw.Write(record); err != nil {
				deps.Logger.Error("csv write failed", "error", err)
				return
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			deps.Logger.Error("csv flush failed", "error", err)
		}
	}
}
