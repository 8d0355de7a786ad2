package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/soaringjerry/hrpulse/internal/api"
	"github.com/soaringjerry/hrpulse/internal/models"
)

// SQLiteStore implements api.Store on top of database/sql. Timestamps are
// stored as RFC3339Nano UTC text.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path with the sqlite3 driver.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// NewStore runs migrations, seeds the department catalog when the table is
// empty and returns the store.
func NewStore(db *sql.DB, migrationsDir string, departments []string) (api.Store, error) {
	if err := RunMigrations(db, migrationsDir); err != nil {
		return nil, err
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	if err := s.SeedDepartments(departments); err != nil {
		return nil, err
	}
	return s, nil
}

// SeedDepartments inserts names in order when no department exists yet.
func (s *SQLiteStore) SeedDepartments(names []string) error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM departments`).Scan(&n); err != nil {
		return fmt.Errorf("count departments: %w", err)
	}
	if n > 0 {
		return nil
	}
	return s.withTx(context.Background(), func(tx *sql.Tx) error {
		for _, name := range names {
			if _, err := tx.Exec(`INSERT INTO departments (name) VALUES (?)`, name); err != nil {
				return fmt.Errorf("seed department %q: %w", name, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toNullString(p *string) sql.NullString {
	if p == nil || strings.TrimSpace(*p) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func (s *SQLiteStore) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t.UTC()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryList runs query and scans every row with scan.
func queryList[T any](db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) ([]*T, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// queryOne returns nil without an error when no row matches.
func queryOne[T any](db *sql.DB, scan func(rowScanner) (*T, error), query string, args ...any) (*T, error) {
	v, err := scan(db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

// --- Users ---

const userColumns = `id, username, pass_hash, name, role, created_at`

func scanUser(r rowScanner) (*models.User, error) {
	var u models.User
	var name, role sql.NullString
	var created string
	if err := r.Scan(&u.ID, &u.Username, &u.PassHash, &name, &role, &created); err != nil {
		return nil, err
	}
	u.Name = fromNullString(name)
	u.Role = fromNullString(role)
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (s *SQLiteStore) CreateUser(u *models.User) (*models.User, error) {
	c := *u
	c.CreatedAt = s.stamp(c.CreatedAt)
	c.Name = fromNullString(toNullString(c.Name))
	c.Role = fromNullString(toNullString(c.Role))
	res, err := s.db.Exec(`INSERT INTO users (username, pass_hash, name, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.Username, c.PassHash, toNullString(c.Name), toNullString(c.Role), formatTime(c.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetUser(id int64) (*models.User, error) {
	return queryOne(s.db, scanUser, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) GetUserByUsername(username string) (*models.User, error) {
	return queryOne(s.db, scanUser, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (s *SQLiteStore) ListUsers() ([]*models.User, error) {
	return queryList(s.db, scanUser, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// --- Assessments ---

const assessmentColumns = `id, name, type_id, start_date, end_date, created_by, created_at, ai_prompt`

func scanAssessment(r rowScanner) (*models.Assessment, error) {
	var a models.Assessment
	var created string
	var prompt sql.NullString
	if err := r.Scan(&a.ID, &a.Name, &a.TypeID, &a.StartDate, &a.EndDate, &a.CreatedBy, &created, &prompt); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(created)
	a.AIPrompt = fromNullString(prompt)
	return &a, nil
}

func (s *SQLiteStore) CreateAssessment(a *models.Assessment) (*models.Assessment, error) {
	c := *a
	c.CreatedAt = s.stamp(c.CreatedAt)
	c.AIPrompt = fromNullString(toNullString(c.AIPrompt))
	res, err := s.db.Exec(`INSERT INTO assessments (name, type_id, start_date, end_date, created_by, created_at, ai_prompt)
      VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Name, int(c.TypeID), c.StartDate, c.EndDate, c.CreatedBy, formatTime(c.CreatedAt), toNullString(c.AIPrompt))
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetAssessment(id int64) (*models.Assessment, error) {
	return queryOne(s.db, scanAssessment, `SELECT `+assessmentColumns+` FROM assessments WHERE id = ?`, id)
}

func (s *SQLiteStore) GetAssessmentsByUser(userID int64) ([]*models.Assessment, error) {
	return queryList(s.db, scanAssessment, `SELECT `+assessmentColumns+` FROM assessments WHERE created_by = ? ORDER BY id`, userID)
}

func (s *SQLiteStore) GetAssessmentsByType(t models.AssessmentType) ([]*models.Assessment, error) {
	return queryList(s.db, scanAssessment, `SELECT `+assessmentColumns+` FROM assessments WHERE type_id = ? ORDER BY id`, int(t))
}

// UpdateAssessment merges patch inside a transaction so concurrent updates
// to different fields do not overwrite each other.
func (s *SQLiteStore) UpdateAssessment(id int64, patch models.AssessmentPatch) (*models.Assessment, error) {
	var out *models.Assessment
	err := s.withTx(context.Background(), func(tx *sql.Tx) error {
		current, err := scanAssessment(tx.QueryRow(`SELECT `+assessmentColumns+` FROM assessments WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		merged := patch.Apply(*current)
		_, err = tx.Exec(`UPDATE assessments SET name = ?, type_id = ?, start_date = ?, end_date = ?, ai_prompt = ? WHERE id = ?`,
			merged.Name, int(merged.TypeID), merged.StartDate, merged.EndDate, toNullString(merged.AIPrompt), id)
		if err != nil {
			return fmt.Errorf("update assessment %d: %w", id, err)
		}
		out = &merged
		return nil
	})
	return out, err
}

// DeleteAssessment removes the assessment and its relation rows. Responses
// and analysis results are kept.
func (s *SQLiteStore) DeleteAssessment(id int64) (bool, error) {
	deleted := false
	err := s.withTx(context.Background(), func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM assessments WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete assessment %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		for _, table := range []string{"assessment_departments", "assessment_participants", "assessment_ai_options"} {
			if _, err := tx.Exec(`DELETE FROM `+table+` WHERE assessment_id = ?`, id); err != nil {
				return fmt.Errorf("delete %s for %d: %w", table, id, err)
			}
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// --- Departments ---

func scanDepartment(r rowScanner) (*models.Department, error) {
	var d models.Department
	if err := r.Scan(&d.ID, &d.Name); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStore) GetDepartments() ([]*models.Department, error) {
	return queryList(s.db, scanDepartment, `SELECT id, name FROM departments ORDER BY id`)
}

func (s *SQLiteStore) GetDepartment(id int64) (*models.Department, error) {
	return queryOne(s.db, scanDepartment, `SELECT id, name FROM departments WHERE id = ?`, id)
}

// GetDepartmentsByAssessment joins the relation so members whose department
// no longer exists are dropped.
func (s *SQLiteStore) GetDepartmentsByAssessment(assessmentID int64) ([]*models.Department, error) {
	return queryList(s.db, scanDepartment, `SELECT d.id, d.name FROM assessment_departments ad
      JOIN departments d ON d.id = ad.department_id WHERE ad.assessment_id = ? ORDER BY d.id`, assessmentID)
}

func (s *SQLiteStore) AddDepartmentToAssessment(assessmentID, departmentID int64) (bool, error) {
	return s.execAffected(`INSERT OR IGNORE INTO assessment_departments (assessment_id, department_id) VALUES (?, ?)`,
		assessmentID, departmentID)
}

func (s *SQLiteStore) RemoveDepartmentFromAssessment(assessmentID, departmentID int64) (bool, error) {
	return s.execAffected(`DELETE FROM assessment_departments WHERE assessment_id = ? AND department_id = ?`,
		assessmentID, departmentID)
}

// --- Participants ---

func (s *SQLiteStore) GetAssessmentParticipants(assessmentID int64) ([]*models.User, error) {
	return queryList(s.db, scanUser, `SELECT u.id, u.username, u.pass_hash, u.name, u.role, u.created_at
      FROM assessment_participants ap JOIN users u ON u.id = ap.user_id WHERE ap.assessment_id = ? ORDER BY u.id`, assessmentID)
}

func (s *SQLiteStore) AddParticipantToAssessment(assessmentID, userID int64) (bool, error) {
	return s.execAffected(`INSERT OR IGNORE INTO assessment_participants (assessment_id, user_id) VALUES (?, ?)`,
		assessmentID, userID)
}

func (s *SQLiteStore) RemoveParticipantFromAssessment(assessmentID, userID int64) (bool, error) {
	return s.execAffected(`DELETE FROM assessment_participants WHERE assessment_id = ? AND user_id = ?`,
		assessmentID, userID)
}

// --- AI options ---

func (s *SQLiteStore) GetAIOptionsByAssessment(assessmentID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT option_key FROM assessment_ai_options WHERE assessment_id = ? ORDER BY option_key`, assessmentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddAIOptionToAssessment(assessmentID int64, option string) (bool, error) {
	return s.execAffected(`INSERT OR IGNORE INTO assessment_ai_options (assessment_id, option_key) VALUES (?, ?)`,
		assessmentID, option)
}

func (s *SQLiteStore) RemoveAIOptionFromAssessment(assessmentID int64, option string) (bool, error) {
	return s.execAffected(`DELETE FROM assessment_ai_options WHERE assessment_id = ? AND option_key = ?`,
		assessmentID, option)
}

func (s *SQLiteStore) execAffected(query string, args ...any) (bool, error) {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Responses ---

func scanResponse(r rowScanner) (*models.Response, error) {
	var resp models.Response
	var submitted string
	if err := r.Scan(&resp.ID, &resp.AssessmentID, &resp.UserID, &resp.Data, &submitted); err != nil {
		return nil, err
	}
	resp.SubmittedAt = parseTime(submitted)
	return &resp, nil
}

func (s *SQLiteStore) CreateResponse(r *models.Response) (*models.Response, error) {
	c := *r
	c.SubmittedAt = s.stamp(c.SubmittedAt)
	res, err := s.db.Exec(`INSERT INTO responses (assessment_id, user_id, data, submitted_at) VALUES (?, ?, ?, ?)`,
		c.AssessmentID, c.UserID, c.Data, formatTime(c.SubmittedAt))
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetResponsesByAssessment(assessmentID int64) ([]*models.Response, error) {
	return queryList(s.db, scanResponse, `SELECT id, assessment_id, user_id, data, submitted_at
      FROM responses WHERE assessment_id = ? ORDER BY id`, assessmentID)
}

func (s *SQLiteStore) GetResponsesByUser(userID int64) ([]*models.Response, error) {
	return queryList(s.db, scanResponse, `SELECT id, assessment_id, user_id, data, submitted_at
      FROM responses WHERE user_id = ? ORDER BY id`, userID)
}

// --- Analysis results ---

func scanAnalysis(r rowScanner) (*models.AnalysisResult, error) {
	var a models.AnalysisResult
	var generated string
	if err := r.Scan(&a.ID, &a.AssessmentID, &a.Analysis, &generated); err != nil {
		return nil, err
	}
	a.GeneratedAt = parseTime(generated)
	return &a, nil
}

func (s *SQLiteStore) CreateAnalysisResult(r *models.AnalysisResult) (*models.AnalysisResult, error) {
	c := *r
	c.GeneratedAt = s.stamp(c.GeneratedAt)
	res, err := s.db.Exec(`INSERT INTO analysis_results (assessment_id, analysis, generated_at) VALUES (?, ?, ?)`,
		c.AssessmentID, c.Analysis, formatTime(c.GeneratedAt))
	if err != nil {
		return nil, fmt.Errorf("insert analysis result: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetAnalysisResult(id int64) (*models.AnalysisResult, error) {
	return queryOne(s.db, scanAnalysis, `SELECT id, assessment_id, analysis, generated_at FROM analysis_results WHERE id = ?`, id)
}

func (s *SQLiteStore) GetAnalysisResultsByAssessment(assessmentID int64) ([]*models.AnalysisResult, error) {
	return queryList(s.db, scanAnalysis, `SELECT id, assessment_id, analysis, generated_at
      FROM analysis_results WHERE assessment_id = ? ORDER BY id`, assessmentID)
}

var _ api.Store = (*SQLiteStore)(nil)
