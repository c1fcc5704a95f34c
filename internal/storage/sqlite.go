package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding interviews, transcripts, analysis
// results, settings, and the background job queue.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used by
// tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "summervoice.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	// Ensure schema_version table exists (bootstrap).
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		// Check if already applied.
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func marshalStrings(ss []string) string {
	if ss == nil {
		ss = []string{}
	}
	b, _ := json.Marshal(ss)
	return string(b)
}

func unmarshalStrings(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var ss []string
	if err := json.Unmarshal([]byte(raw), &ss); err != nil {
		return []string{}
	}
	return ss
}

func marshalStringMap(m map[string]string) string {
	if m == nil {
		m = map[string]string{}
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalStringMap(raw string) map[string]string {
	m := map[string]string{}
	if raw == "" {
		return m
	}
	json.Unmarshal([]byte(raw), &m)
	return m
}

// --- Interviews ---

func (s *Store) CreateInterview(iv Interview) error {
	createdAt := iv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := iv.Status
	if status == "" {
		status = StatusInProgress
	}
	_, err := s.db.Exec(`
		INSERT INTO interviews (id, program_name, district_name, school_name, grade, race, gender, home_languages, status, safety_flag, safety_notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.ProgramName, iv.DistrictName, iv.SchoolName, iv.Grade,
		marshalStrings(iv.Race), iv.Gender, iv.HomeLanguages, status,
		boolToInt(iv.SafetyFlag), iv.SafetyNotes, createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

const interviewColumns = `id, program_name, district_name, school_name, grade, race, gender, home_languages, status, safety_flag, safety_notes, created_at, completed_at`

func scanInterview(row interface{ Scan(...any) error }) (Interview, error) {
	var iv Interview
	var race, createdAt string
	var completedAt sql.NullString
	var safetyFlag int
	err := row.Scan(&iv.ID, &iv.ProgramName, &iv.DistrictName, &iv.SchoolName, &iv.Grade,
		&race, &iv.Gender, &iv.HomeLanguages, &iv.Status, &safetyFlag, &iv.SafetyNotes,
		&createdAt, &completedAt)
	if err != nil {
		return Interview{}, err
	}
	iv.Race = unmarshalStrings(race)
	iv.SafetyFlag = safetyFlag != 0
	if iv.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Interview{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if completedAt.Valid && completedAt.String != "" {
		if iv.CompletedAt, err = time.Parse(time.RFC3339, completedAt.String); err != nil {
			return Interview{}, fmt.Errorf("parsing completed_at: %w", err)
		}
	}
	return iv, nil
}

func (s *Store) GetInterview(id string) (Interview, error) {
	row := s.db.QueryRow(`SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id)
	iv, err := scanInterview(row)
	if err == sql.ErrNoRows {
		return Interview{}, ErrNotFound
	}
	return iv, err
}

// CompleteInterview marks an in-progress interview as completed and stamps
// completed_at. It reports whether the status actually transitioned, so a
// second completion request does not re-trigger analysis.
func (s *Store) CompleteInterview(id string) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM interviews WHERE id = ?`, id).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, ErrNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`
		UPDATE interviews SET status = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		StatusCompleted, now, id, StatusInProgress,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetSafetyFlag raises the safety flag on an interview and records the notes.
func (s *Store) SetSafetyFlag(id string, notes string) error {
	res, err := s.db.Exec(`UPDATE interviews SET safety_flag = 1, safety_notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListInterviewOverviews returns all interviews, newest first, each joined
// with its summary when one has been produced.
func (s *Store) ListInterviewOverviews() ([]InterviewOverview, error) {
	rows, err := s.db.Query(`
		SELECT i.id, i.program_name, i.district_name, i.school_name, i.grade, i.race, i.gender,
			i.home_languages, i.status, i.safety_flag, i.safety_notes, i.created_at, i.completed_at,
			s.summary, s.themes, s.sentiment_overview
		FROM interviews i
		LEFT JOIN summaries s ON s.interview_id = i.id
		ORDER BY i.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []InterviewOverview
	for rows.Next() {
		var o InterviewOverview
		var race, createdAt string
		var completedAt, summary, themes, sentiment sql.NullString
		var safetyFlag int
		if err := rows.Scan(&o.ID, &o.ProgramName, &o.DistrictName, &o.SchoolName, &o.Grade,
			&race, &o.Gender, &o.HomeLanguages, &o.Status, &safetyFlag, &o.SafetyNotes,
			&createdAt, &completedAt, &summary, &themes, &sentiment); err != nil {
			return nil, err
		}
		o.Race = unmarshalStrings(race)
		o.SafetyFlag = safetyFlag != 0
		if o.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if completedAt.Valid && completedAt.String != "" {
			if o.CompletedAt, err = time.Parse(time.RFC3339, completedAt.String); err != nil {
				return nil, fmt.Errorf("parsing completed_at: %w", err)
			}
		}
		if summary.Valid {
			o.HasSummary = true
			o.Summary = summary.String
			o.Themes = unmarshalStrings(themes.String)
			o.SentimentOverview = unmarshalStringMap(sentiment.String)
		}
		results = append(results, o)
	}
	return results, rows.Err()
}

// CompletedInterviewIDs returns ids of completed interviews matching the filter.
func (s *Store) CompletedInterviewIDs(f InterviewFilter) ([]string, error) {
	query := `SELECT id FROM interviews WHERE status = ?`
	args := []any{StatusCompleted}
	if f.District != "" {
		query += ` AND district_name = ?`
		args = append(args, f.District)
	}
	if f.School != "" {
		query += ` AND school_name = ?`
		args = append(args, f.School)
	}
	if f.GradeMin > 0 {
		query += ` AND grade >= ?`
		args = append(args, f.GradeMin)
	}
	if f.GradeMax > 0 {
		query += ` AND grade <= ?`
		args = append(args, f.GradeMax)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountInterviews returns the number of interviews with the given status.
func (s *Store) CountInterviews(status string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM interviews WHERE status = ?`, status).Scan(&n)
	return n, err
}

// CountSafetyFlagged returns the number of interviews with the safety flag raised.
func (s *Store) CountSafetyFlagged() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM interviews WHERE safety_flag = 1`).Scan(&n)
	return n, err
}

// DistinctDistricts returns the distinct non-empty district names.
func (s *Store) DistinctDistricts() ([]string, error) {
	return s.distinctColumn("district_name")
}

// DistinctSchools returns the distinct non-empty school names.
func (s *Store) DistinctSchools() ([]string, error) {
	return s.distinctColumn("school_name")
}

func (s *Store) distinctColumn(col string) ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT ` + col + ` FROM interviews WHERE ` + col + ` != '' ORDER BY ` + col)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// --- Messages ---

func (s *Store) AppendMessage(m Message) error {
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO messages (id, interview_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.InterviewID, m.Role, m.Content, createdAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListMessages returns the transcript of an interview in creation order.
func (s *Store) ListMessages(interviewID string) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, interview_id, role, content, created_at
		FROM messages WHERE interview_id = ?
		ORDER BY created_at ASC, rowid ASC`, interviewID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.InterviewID, &m.Role, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// --- Ratings ---

// DeleteRatings removes all ratings for an interview (re-analysis support).
func (s *Store) DeleteRatings(interviewID string) error {
	_, err := s.db.Exec(`DELETE FROM ratings WHERE interview_id = ?`, interviewID)
	return err
}

// InsertRatings inserts the full rating set in one transaction. If any row
// fails, the whole batch is rolled back and the error is returned so the
// caller can fall back to row-by-row insertion.
func (s *Store) InsertRatings(ratings []Rating) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning ratings transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO ratings (interview_id, survey_item, survey_category, value, source, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing ratings insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range ratings {
		if _, err := stmt.Exec(r.InterviewID, r.SurveyItem, r.SurveyCategory, r.Value, r.Source, r.Confidence); err != nil {
			return fmt.Errorf("inserting rating %q: %w", r.SurveyItem, err)
		}
	}
	return tx.Commit()
}

// InsertRating inserts a single rating row.
func (s *Store) InsertRating(r Rating) error {
	_, err := s.db.Exec(`
		INSERT INTO ratings (interview_id, survey_item, survey_category, value, source, confidence)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.InterviewID, r.SurveyItem, r.SurveyCategory, r.Value, r.Source, r.Confidence,
	)
	return err
}

// ListRatings returns all ratings for one interview.
func (s *Store) ListRatings(interviewID string) ([]Rating, error) {
	rows, err := s.db.Query(`
		SELECT interview_id, survey_item, survey_category, value, source, confidence
		FROM ratings WHERE interview_id = ? ORDER BY id ASC`, interviewID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRatings(rows)
}

// RatingsByInterviews returns ratings for the given interview ids.
func (s *Store) RatingsByInterviews(ids []string) ([]Rating, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat(",?", len(ids)-1)
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.Query(`
		SELECT interview_id, survey_item, survey_category, value, source, confidence
		FROM ratings WHERE interview_id IN (?`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRatings(rows)
}

func scanRatings(rows *sql.Rows) ([]Rating, error) {
	var ratings []Rating
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.InterviewID, &r.SurveyItem, &r.SurveyCategory, &r.Value, &r.Source, &r.Confidence); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// RatingExportRows returns every rating joined with its interview's
// demographics, ordered by interview, for the CSV export.
func (s *Store) RatingExportRows() ([]RatingExportRow, error) {
	rows, err := s.db.Query(`
		SELECT r.interview_id, r.survey_item, r.survey_category, r.value, r.source, r.confidence,
			i.program_name, i.district_name, i.school_name, i.grade, i.gender, i.race, i.safety_flag, i.created_at
		FROM ratings r
		JOIN interviews i ON i.id = r.interview_id
		ORDER BY r.interview_id, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RatingExportRow
	for rows.Next() {
		var row RatingExportRow
		var race, createdAt string
		var safetyFlag int
		if err := rows.Scan(&row.InterviewID, &row.SurveyItem, &row.SurveyCategory, &row.Value, &row.Source, &row.Confidence,
			&row.ProgramName, &row.DistrictName, &row.SchoolName, &row.Grade, &row.Gender, &race, &safetyFlag, &createdAt); err != nil {
			return nil, err
		}
		row.Race = unmarshalStrings(race)
		row.SafetyFlag = safetyFlag != 0
		if row.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// --- Summaries ---

// DeleteSummary removes the stored summary for an interview (re-analysis support).
func (s *Store) DeleteSummary(interviewID string) error {
	_, err := s.db.Exec(`DELETE FROM summaries WHERE interview_id = ?`, interviewID)
	return err
}

func (s *Store) InsertSummary(sum Summary) error {
	createdAt := sum.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO summaries (id, interview_id, summary, themes, key_quotes, sentiment_overview, strengths, improvements, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.InterviewID, sum.Summary,
		marshalStrings(sum.Themes), marshalStrings(sum.KeyQuotes), marshalStringMap(sum.SentimentOverview),
		marshalStrings(sum.Strengths), marshalStrings(sum.Improvements),
		createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetSummary(interviewID string) (Summary, error) {
	var sum Summary
	var themes, quotes, sentiment, strengths, improvements, createdAt string
	err := s.db.QueryRow(`
		SELECT id, interview_id, summary, themes, key_quotes, sentiment_overview, strengths, improvements, created_at
		FROM summaries WHERE interview_id = ?`, interviewID,
	).Scan(&sum.ID, &sum.InterviewID, &sum.Summary, &themes, &quotes, &sentiment, &strengths, &improvements, &createdAt)
	if err == sql.ErrNoRows {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, err
	}
	sum.Themes = unmarshalStrings(themes)
	sum.KeyQuotes = unmarshalStrings(quotes)
	sum.SentimentOverview = unmarshalStringMap(sentiment)
	sum.Strengths = unmarshalStrings(strengths)
	sum.Improvements = unmarshalStrings(improvements)
	if sum.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Summary{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return sum, nil
}

// CountSummaries returns the number of summary rows for one interview.
func (s *Store) CountSummaries(interviewID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM summaries WHERE interview_id = ?`, interviewID).Scan(&n)
	return n, err
}

// ThemesByInterviews returns every theme occurrence across the summaries of
// the given interviews (one entry per occurrence, for frequency counting).
func (s *Store) ThemesByInterviews(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat(",?", len(ids)-1)
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.Query(`SELECT themes FROM summaries WHERE interview_id IN (?`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		all = append(all, unmarshalStrings(raw)...)
	}
	return all, rows.Err()
}

// --- Settings ---

// GetSetting returns the value for a settings key, or ErrNotFound.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting upserts a settings key.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// --- Jobs ---

func (s *Store) EnqueueJob(job Job) error {
	now := time.Now().UTC().Format(time.RFC3339)
	runAfter := now
	if !job.RunAfter.IsZero() {
		runAfter = job.RunAfter.UTC().Format(time.RFC3339)
	}
	maxAttempts := job.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', 0, ?, ?, ?, ?)`,
		job.ID, job.Type, job.PayloadJSON, maxAttempts, runAfter, now, now,
	)
	return err
}

func (s *Store) ClaimNextJob(types []string) (*Job, error) {
	if len(types) == 0 {
		return nil, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	placeholders := strings.Repeat(",?", len(types)-1)
	query := `SELECT id, type, payload_json, status, attempts, max_attempts, run_after, created_at, updated_at, last_error
		FROM jobs
		WHERE status = 'pending' AND run_after <= ? AND type IN (?` + placeholders + `)
		ORDER BY run_after ASC, created_at ASC
		LIMIT 1`

	args := make([]any, 0, len(types)+1)
	args = append(args, now)
	for _, t := range types {
		args = append(args, t)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning claim transaction: %w", err)
	}

	var j Job
	var runAfter, createdAt, updatedAt string
	var lastError sql.NullString
	err = tx.QueryRow(query, args...).Scan(
		&j.ID, &j.Type, &j.PayloadJSON, &j.Status, &j.Attempts, &j.MaxAttempts,
		&runAfter, &createdAt, &updatedAt, &lastError,
	)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return nil, nil
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("selecting next job: %w", err)
	}

	res, err := tx.Exec(`UPDATE jobs SET status = 'running', updated_at = ? WHERE id = ? AND status = 'pending'`, now, j.ID)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("updating job status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("checking updated job rows: %w", err)
	}
	if n != 1 {
		tx.Rollback()
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing claim: %w", err)
	}

	j.Status = "running"
	j.LastError = lastError.String
	if j.RunAfter, err = time.Parse(time.RFC3339, runAfter); err != nil {
		return nil, fmt.Errorf("parsing run_after for job %s: %w", j.ID, err)
	}
	if j.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at for job %s: %w", j.ID, err)
	}
	if j.UpdatedAt, err = time.Parse(time.RFC3339, now); err != nil {
		return nil, fmt.Errorf("parsing updated_at for job %s: %w", j.ID, err)
	}
	return &j, nil
}

func (s *Store) CompleteJob(id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE jobs SET status = 'completed', updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FailJob(id string, errMsg string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning fail transaction: %w", err)
	}
	defer tx.Rollback()

	var attempts, maxAttempts int
	err = tx.QueryRow(`SELECT attempts, max_attempts FROM jobs WHERE id = ?`, id).Scan(&attempts, &maxAttempts)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	attempts++

	if attempts >= maxAttempts {
		_, err = tx.Exec(`UPDATE jobs SET status = 'failed', attempts = ?, last_error = ?, updated_at = ? WHERE id = ?`,
			attempts, errMsg, now.Format(time.RFC3339), id)
	} else {
		backoff := time.Duration(math.Pow(2, float64(attempts))) * time.Second
		runAfter := now.Add(backoff)
		_, err = tx.Exec(`UPDATE jobs SET status = 'pending', attempts = ?, last_error = ?, run_after = ?, updated_at = ? WHERE id = ?`,
			attempts, errMsg, runAfter.Format(time.RFC3339), now.Format(time.RFC3339), id)
	}

	if err != nil {
		return err
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
