package api

import (
	"encoding/csv"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/summervoice/summervoice/internal/storage"
)

func TestExportCSV(t *testing.T) {
	e := newTestEnv(t)
	id := createInterview(t, e, `{"program_name":"Summer Scholars","district_name":"Springfield","school_name":"North MS","grade":7,"race":["Asian","White"],"gender":"female"}`)
	completeInterview(t, e, id)
	if err := e.store.InsertRatings([]storage.Rating{
		{InterviewID: id, SurveyItem: "I feel safe at my summer program", SurveyCategory: "Safety", Value: "strongly_agree", Source: "direct", Confidence: 0.95},
		{InterviewID: id, SurveyItem: "I made new friends", SurveyCategory: "Belonging", Value: "not_discussed", Source: "inferred", Confidence: 0},
	}); err != nil {
		t.Fatalf("InsertRatings: %v", err)
	}

	rec := e.request(t, http.MethodGet, "/admin/export", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "summer-voice-ratings-export.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d", len(records))
	}
	if !reflect.DeepEqual(records[0], exportHeader) {
		t.Errorf("header = %v", records[0])
	}

	row := records[1]
	cols := map[string]string{}
	for i, name := range exportHeader {
		cols[name] = row[i]
	}
	if cols["interview_id"] != id {
		t.Errorf("interview_id = %q", cols["interview_id"])
	}
	if cols["program_name"] != "Summer Scholars" || cols["district_name"] != "Springfield" {
		t.Errorf("row = %v", row)
	}
	if cols["grade"] != "7" || cols["gender"] != "female" {
		t.Errorf("row = %v", row)
	}
	if cols["race"] != "Asian; White" {
		t.Errorf("race = %q", cols["race"])
	}
	if cols["safety_flag"] != "false" {
		t.Errorf("safety_flag = %q", cols["safety_flag"])
	}
	if cols["value"] != "strongly_agree" || cols["source"] != "direct" || cols["confidence"] != "0.95" {
		t.Errorf("row = %v", row)
	}
	if !strings.Contains(cols["interview_date"], "T") {
		t.Errorf("interview_date = %q", cols["interview_date"])
	}
}

func TestExportEmpty(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodGet, "/admin/export", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("rows = %d, want header only", len(records))
	}
}

func TestExportRequiresAuth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.request(t, http.MethodGet, "/admin/export", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d", rec.Code)
	}
}
