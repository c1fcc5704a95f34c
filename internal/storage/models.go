package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Interview statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Interview is one student interview session, created on intake form
// submission. Demographics are optional except for grade.
type Interview struct {
	ID            string
	ProgramName   string
	DistrictName  string
	SchoolName    string
	Grade         int
	Race          []string
	Gender        string
	HomeLanguages string
	Status        string // "in_progress" or "completed"
	SafetyFlag    bool
	SafetyNotes   string
	CreatedAt     time.Time
	CompletedAt   time.Time // zero until the interview is completed
}

// Message is one turn of an interview transcript. Messages are append-only;
// their creation order is the transcript order.
type Message struct {
	ID          string
	InterviewID string
	Role        string // "user" or "assistant"
	Content     string
	CreatedAt   time.Time
}

// Rating is one survey-item judgment produced by an analysis run. The item is
// referenced by its text and category rather than a catalog key, so the
// catalog can drift without breaking stored rows.
type Rating struct {
	InterviewID    string
	SurveyItem     string
	SurveyCategory string
	Value          string // one of the closed rating vocabulary
	Source         string // "direct" or "inferred"
	Confidence     float64
}

// Summary is the narrative analysis result for one interview. The whole row
// is replaced on re-analysis.
type Summary struct {
	ID                string
	InterviewID       string
	Summary           string
	Themes            []string
	KeyQuotes         []string
	SentimentOverview map[string]string
	Strengths         []string
	Improvements      []string
	CreatedAt         time.Time
}

// InterviewOverview is an interview joined with its summary (if analyzed),
// used by the admin listing.
type InterviewOverview struct {
	Interview
	HasSummary        bool
	Summary           string
	Themes            []string
	SentimentOverview map[string]string
}

// RatingExportRow is one row of the long-format export: a rating joined with
// its interview's demographics.
type RatingExportRow struct {
	Rating
	ProgramName  string
	DistrictName string
	SchoolName   string
	Grade        int
	Gender       string
	Race         []string
	SafetyFlag   bool
	CreatedAt    time.Time
}

// InterviewFilter narrows aggregate queries. Zero values mean "no filter".
type InterviewFilter struct {
	District string
	School   string
	GradeMin int
	GradeMax int
}

// Job is one queued background task.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
