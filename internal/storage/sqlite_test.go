package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testInterview(id string) Interview {
	return Interview{
		ID:            id,
		ProgramName:   "Summer Scholars",
		DistrictName:  "Riverside USD",
		SchoolName:    "Lincoln Middle",
		Grade:         7,
		Race:          []string{"Black or African American", "Hispanic or Latino"},
		Gender:        "female",
		HomeLanguages: "English, Spanish",
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

// TestMigrationsOrdered verifies migrations are applied in ascending numeric order.
func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(versions) == 0 {
		t.Fatal("expected at least one applied migration")
	}

	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	indexes := []string{
		"idx_interviews_status", "idx_interviews_created",
		"idx_messages_interview_created", "idx_ratings_interview",
		"idx_summaries_interview", "idx_jobs_status_run_after",
	}
	for _, idx := range indexes {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

func TestInterviewRoundTrip(t *testing.T) {
	s := openTestStore(t)

	iv := testInterview("iv-1")
	if err := s.CreateInterview(iv); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	got, err := s.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if got.ProgramName != iv.ProgramName || got.Grade != iv.Grade || got.Gender != iv.Gender {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.Status != StatusInProgress {
		t.Errorf("Status = %q, want %q", got.Status, StatusInProgress)
	}
	if len(got.Race) != 2 || got.Race[0] != iv.Race[0] {
		t.Errorf("Race = %v, want %v", got.Race, iv.Race)
	}
	if got.SafetyFlag {
		t.Error("new interview should not be safety flagged")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be stamped")
	}
	if !got.CompletedAt.IsZero() {
		t.Error("CompletedAt should be zero for an in-progress interview")
	}
}

func TestGetInterviewNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetInterview("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInterview(unknown) = %v, want ErrNotFound", err)
	}
}

func TestCreateInterviewGradeConstraint(t *testing.T) {
	s := openTestStore(t)

	iv := testInterview("iv-bad")
	iv.Grade = 3
	if err := s.CreateInterview(iv); err == nil {
		t.Error("expected CHECK violation for grade 3")
	}
}

// TestCompleteInterviewOnce verifies only the first completion reports a
// transition, so callers enqueue the analysis job exactly once.
func TestCompleteInterviewOnce(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	changed, err := s.CompleteInterview("iv-1")
	if err != nil {
		t.Fatalf("CompleteInterview: %v", err)
	}
	if !changed {
		t.Error("first CompleteInterview should report a transition")
	}

	changed, err = s.CompleteInterview("iv-1")
	if err != nil {
		t.Fatalf("second CompleteInterview: %v", err)
	}
	if changed {
		t.Error("second CompleteInterview should be a no-op")
	}

	got, err := s.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, StatusCompleted)
	}
	if got.CompletedAt.IsZero() {
		t.Error("CompletedAt should be stamped after completion")
	}
}

func TestCompleteInterviewNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.CompleteInterview("ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CompleteInterview(unknown) = %v, want ErrNotFound", err)
	}
}

func TestSetSafetyFlag(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	if err := s.SetSafetyFlag("iv-1", "mentioned bullying near the gym"); err != nil {
		t.Fatalf("SetSafetyFlag: %v", err)
	}

	got, err := s.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if !got.SafetyFlag {
		t.Error("SafetyFlag not set")
	}
	if got.SafetyNotes != "mentioned bullying near the gym" {
		t.Errorf("SafetyNotes = %q", got.SafetyNotes)
	}

	if err := s.SetSafetyFlag("ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetSafetyFlag(unknown) = %v, want ErrNotFound", err)
	}
}

func TestMessageOrdering(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		m := Message{
			ID:          fmt.Sprintf("m-%d", i),
			InterviewID: "iv-1",
			Role:        role,
			Content:     fmt.Sprintf("message %d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.AppendMessage(m); err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
	}

	msgs, err := s.ListMessages("iv-1")
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("len(messages) = %d, want 5", len(msgs))
	}
	for i, m := range msgs {
		if m.ID != fmt.Sprintf("m-%d", i) {
			t.Errorf("message %d out of order: got %s", i, m.ID)
		}
	}
}

func TestMessageRoleConstraint(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	m := Message{ID: "m-1", InterviewID: "iv-1", Role: "system", Content: "x"}
	if err := s.AppendMessage(m); err == nil {
		t.Error("expected CHECK violation for role 'system'")
	}
}

func TestInsertRatingsAllOrNothing(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	good := Rating{InterviewID: "iv-1", SurveyItem: "I feel safe at my summer program", SurveyCategory: "Safety", Value: "agree", Source: "direct", Confidence: 0.9}
	bad := Rating{InterviewID: "iv-1", SurveyItem: "Broken item", SurveyCategory: "Safety", Value: "kinda", Source: "inferred", Confidence: 0.5}

	if err := s.InsertRatings([]Rating{good, bad}); err == nil {
		t.Fatal("expected batch insert to fail on invalid value")
	}

	ratings, err := s.ListRatings("iv-1")
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) != 0 {
		t.Errorf("batch failure should roll back all rows, found %d", len(ratings))
	}

	if err := s.InsertRatings([]Rating{good}); err != nil {
		t.Fatalf("InsertRatings: %v", err)
	}
	ratings, err = s.ListRatings("iv-1")
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) != 1 || ratings[0].Value != "agree" {
		t.Errorf("ratings = %+v", ratings)
	}
}

func TestDeleteRatings(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	r := Rating{InterviewID: "iv-1", SurveyItem: "I have friends at my summer program", SurveyCategory: "Relationships", Value: "strongly_agree", Source: "direct", Confidence: 1}
	if err := s.InsertRating(r); err != nil {
		t.Fatalf("InsertRating: %v", err)
	}
	if err := s.DeleteRatings("iv-1"); err != nil {
		t.Fatalf("DeleteRatings: %v", err)
	}
	ratings, err := s.ListRatings("iv-1")
	if err != nil {
		t.Fatalf("ListRatings: %v", err)
	}
	if len(ratings) != 0 {
		t.Errorf("expected no ratings after delete, got %d", len(ratings))
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	sum := Summary{
		ID:          "sum-1",
		InterviewID: "iv-1",
		Summary:     "The student enjoys the program overall.",
		Themes:      []string{"friendship", "reading growth"},
		KeyQuotes:   []string{"I love the field trips"},
		SentimentOverview: map[string]string{
			"peer_relationships": "positive",
			"safety":             "neutral",
		},
		Strengths:    []string{"caring staff"},
		Improvements: []string{"more sports"},
	}
	if err := s.InsertSummary(sum); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}

	got, err := s.GetSummary("iv-1")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if got.Summary != sum.Summary {
		t.Errorf("Summary = %q", got.Summary)
	}
	if len(got.Themes) != 2 || got.Themes[1] != "reading growth" {
		t.Errorf("Themes = %v", got.Themes)
	}
	if got.SentimentOverview["safety"] != "neutral" {
		t.Errorf("SentimentOverview = %v", got.SentimentOverview)
	}

	if _, err := s.GetSummary("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSummary(unknown) = %v, want ErrNotFound", err)
	}
}

func TestListInterviewOverviews(t *testing.T) {
	s := openTestStore(t)

	older := testInterview("iv-old")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	if err := s.CreateInterview(older); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	newer := testInterview("iv-new")
	newer.CreatedAt = time.Now().UTC()
	if err := s.CreateInterview(newer); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	sum := Summary{ID: "s-1", InterviewID: "iv-old", Summary: "short", Themes: []string{"t"}}
	if err := s.InsertSummary(sum); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}

	overviews, err := s.ListInterviewOverviews()
	if err != nil {
		t.Fatalf("ListInterviewOverviews: %v", err)
	}
	if len(overviews) != 2 {
		t.Fatalf("len = %d, want 2", len(overviews))
	}
	if overviews[0].ID != "iv-new" {
		t.Errorf("expected newest first, got %s", overviews[0].ID)
	}
	if overviews[0].HasSummary {
		t.Error("iv-new should have no summary")
	}
	if !overviews[1].HasSummary || overviews[1].Summary != "short" {
		t.Errorf("iv-old summary not joined: %+v", overviews[1])
	}
}

func TestCompletedInterviewIDsFilters(t *testing.T) {
	s := openTestStore(t)

	a := testInterview("iv-a")
	a.DistrictName = "North"
	a.Grade = 6
	b := testInterview("iv-b")
	b.DistrictName = "South"
	b.Grade = 10
	for _, iv := range []Interview{a, b} {
		if err := s.CreateInterview(iv); err != nil {
			t.Fatalf("CreateInterview: %v", err)
		}
		if _, err := s.CompleteInterview(iv.ID); err != nil {
			t.Fatalf("CompleteInterview: %v", err)
		}
	}
	// Still in progress, should never match.
	if err := s.CreateInterview(testInterview("iv-c")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	ids, err := s.CompletedInterviewIDs(InterviewFilter{})
	if err != nil {
		t.Fatalf("CompletedInterviewIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("unfiltered = %v, want 2 ids", ids)
	}

	ids, err = s.CompletedInterviewIDs(InterviewFilter{District: "North"})
	if err != nil {
		t.Fatalf("CompletedInterviewIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "iv-a" {
		t.Errorf("district filter = %v", ids)
	}

	ids, err = s.CompletedInterviewIDs(InterviewFilter{GradeMin: 8, GradeMax: 12})
	if err != nil {
		t.Fatalf("CompletedInterviewIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "iv-b" {
		t.Errorf("grade filter = %v", ids)
	}
}

func TestRatingExportRows(t *testing.T) {
	s := openTestStore(t)

	if err := s.CreateInterview(testInterview("iv-1")); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}
	r := Rating{InterviewID: "iv-1", SurveyItem: "I feel welcome at my summer program", SurveyCategory: "Belonging", Value: "strongly_agree", Source: "direct", Confidence: 0.95}
	if err := s.InsertRating(r); err != nil {
		t.Fatalf("InsertRating: %v", err)
	}

	rows, err := s.RatingExportRows()
	if err != nil {
		t.Fatalf("RatingExportRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ProgramName != "Summer Scholars" || row.Grade != 7 {
		t.Errorf("demographics not joined: %+v", row)
	}
	if row.Value != "strongly_agree" || row.Source != "direct" {
		t.Errorf("rating fields wrong: %+v", row)
	}
}

func TestSettingsUpsert(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetSetting("chat_model"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting(unset) = %v, want ErrNotFound", err)
	}

	if err := s.SetSetting("chat_model", "model-a"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("chat_model", "model-b"); err != nil {
		t.Fatalf("SetSetting(update): %v", err)
	}

	v, err := s.GetSetting("chat_model")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "model-b" {
		t.Errorf("value = %q, want model-b", v)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)

	job := Job{ID: "j-1", Type: "analyze_interview", PayloadJSON: `{"interview_id":"iv-1"}`}
	if err := s.EnqueueJob(job); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	claimed, err := s.ClaimNextJob([]string{"analyze_interview"})
	if err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if claimed == nil || claimed.ID != "j-1" {
		t.Fatalf("claimed = %+v", claimed)
	}
	if claimed.Status != "running" {
		t.Errorf("Status = %q, want running", claimed.Status)
	}

	// Claimed job should not be claimable again.
	again, err := s.ClaimNextJob([]string{"analyze_interview"})
	if err != nil {
		t.Fatalf("second ClaimNextJob: %v", err)
	}
	if again != nil {
		t.Errorf("running job claimed twice: %+v", again)
	}

	if err := s.CompleteJob("j-1"); err != nil {
		t.Fatalf("CompleteJob: %v", err)
	}
}

func TestFailJobBackoffAndExhaustion(t *testing.T) {
	s := openTestStore(t)

	job := Job{ID: "j-1", Type: "analyze_interview", PayloadJSON: `{}`, MaxAttempts: 2}
	if err := s.EnqueueJob(job); err != nil {
		t.Fatalf("EnqueueJob: %v", err)
	}

	if _, err := s.ClaimNextJob([]string{"analyze_interview"}); err != nil {
		t.Fatalf("ClaimNextJob: %v", err)
	}
	if err := s.FailJob("j-1", "model timeout"); err != nil {
		t.Fatalf("FailJob: %v", err)
	}

	// First failure reschedules with backoff, so it is pending but not
	// immediately claimable.
	claimed, err := s.ClaimNextJob([]string{"analyze_interview"})
	if err != nil {
		t.Fatalf("ClaimNextJob after fail: %v", err)
	}
	if claimed != nil {
		t.Errorf("job claimable before backoff elapsed: %+v", claimed)
	}

	var status string
	if err := s.db.QueryRow(`SELECT status FROM jobs WHERE id = 'j-1'`).Scan(&status); err != nil {
		t.Fatalf("query status: %v", err)
	}
	if status != "pending" {
		t.Errorf("status after first failure = %q, want pending", status)
	}

	if err := s.FailJob("j-1", "model timeout again"); err != nil {
		t.Fatalf("second FailJob: %v", err)
	}
	if err := s.db.QueryRow(`SELECT status FROM jobs WHERE id = 'j-1'`).Scan(&status); err != nil {
		t.Fatalf("query status: %v", err)
	}
	if status != "failed" {
		t.Errorf("status after max attempts = %q, want failed", status)
	}
}
