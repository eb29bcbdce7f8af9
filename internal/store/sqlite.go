package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kuma/internal/db"
	"kuma/internal/models"
)

// Fixed-width UTC layout so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: conn}, nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *models.User) error {
	stamp(&u.ID, &u.CreatedAt)
	if u.Role == "" {
		u.Role = "teacher"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, subject, school, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Subject, u.School, u.Role, formatTime(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, subject, school, role, created_at
		FROM users `+where+`;`, arg)
	var (
		u       models.User
		created string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Subject, &u.School, &u.Role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, a *models.Assessment) error {
	stamp(&a.ID, &a.CreatedAt)
	items, err := marshalJSON(a.Items)
	if err != nil {
		return err
	}
	tasks, err := marshalJSON(a.Tasks)
	if err != nil {
		return err
	}
	descriptors, err := marshalJSON(a.Descriptors)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, owner_id, subject, grade_level, topic, content_kind,
			items, tasks, descriptors, criteria, total_points, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, a.ID, a.OwnerID, a.Subject, a.GradeLevel, a.Topic, a.ContentKind,
		items, tasks, descriptors, a.Criteria, a.TotalPoints, a.Source, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

const assessmentColumns = `id, owner_id, subject, grade_level, topic, content_kind,
	items, tasks, descriptors, criteria, total_points, source, created_at`

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*models.Assessment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assessmentColumns+` FROM assessments WHERE id = ?;`, id)
	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]models.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+assessmentColumns+` FROM assessments
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC;
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	out := []models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row scanner) (*models.Assessment, error) {
	var (
		a                           models.Assessment
		items, tasks, descs, created string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Subject, &a.GradeLevel, &a.Topic, &a.ContentKind,
		&items, &tasks, &descs, &a.Criteria, &a.TotalPoints, &a.Source, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan assessment: %w", err)
	}
	if err := unmarshalJSON(items, &a.Items); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(tasks, &a.Tasks); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(descs, &a.Descriptors); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(created)
	return &a, nil
}

func (s *SQLiteStore) CreateLessonPlan(ctx context.Context, p *models.LessonPlan) error {
	stamp(&p.ID, &p.CreatedAt)
	objectives, err := marshalJSON(p.Objectives)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lesson_plans (id, owner_id, subject, grade_level, topic, objectives, duration_minutes,
			introduction, goals, methods, main_body, assessment_note, reflection, homework, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, p.ID, p.OwnerID, p.Subject, p.GradeLevel, p.Topic, objectives, p.DurationMinutes,
		p.Introduction, p.Goals, p.Methods, p.MainBody, p.AssessmentNote, p.Reflection, p.Homework,
		p.Source, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert lesson plan: %w", err)
	}
	return nil
}

const lessonPlanColumns = `id, owner_id, subject, grade_level, topic, objectives, duration_minutes,
	introduction, goals, methods, main_body, assessment_note, reflection, homework, source, created_at`

func (s *SQLiteStore) GetLessonPlan(ctx context.Context, id string) (*models.LessonPlan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lessonPlanColumns+` FROM lesson_plans WHERE id = ?;`, id)
	p, err := scanLessonPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) ListLessonPlansByOwner(ctx context.Context, ownerID string) ([]models.LessonPlan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+lessonPlanColumns+` FROM lesson_plans
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC;
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query lesson plans: %w", err)
	}
	defer rows.Close()

	out := []models.LessonPlan{}
	for rows.Next() {
		p, err := scanLessonPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanLessonPlan(row scanner) (*models.LessonPlan, error) {
	var (
		p                   models.LessonPlan
		objectives, created string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Subject, &p.GradeLevel, &p.Topic, &objectives, &p.DurationMinutes,
		&p.Introduction, &p.Goals, &p.Methods, &p.MainBody, &p.AssessmentNote, &p.Reflection, &p.Homework,
		&p.Source, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan lesson plan: %w", err)
	}
	if err := unmarshalJSON(objectives, &p.Objectives); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(created)
	return &p, nil
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	stamp(&sub.ID, &sub.SubmittedAt)
	if sub.GradedAt.IsZero() {
		sub.GradedAt = sub.SubmittedAt
	}
	answers, err := marshalJSON(sub.GradedAnswers)
	if err != nil {
		return err
	}
	var analysis sql.NullString
	if sub.AIAnalysis != nil {
		raw, err := marshalJSON(sub.AIAnalysis)
		if err != nil {
			return err
		}
		analysis = sql.NullString{String: raw, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, assessment_id, student_name, graded_answers, essay_text, file_name,
			total_score, max_score, feedback, ai_analysis, graded_by, grading_source, submitted_at, graded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, sub.ID, sub.AssessmentID, sub.StudentName, answers, sub.EssayText, sub.FileName,
		sub.TotalScore, sub.MaxScore, sub.Feedback, analysis, sub.GradedBy, sub.GradingSource,
		formatTime(sub.SubmittedAt), formatTime(sub.GradedAt))
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

const submissionColumns = `id, assessment_id, student_name, graded_answers, essay_text, file_name,
	total_score, max_score, feedback, ai_analysis, graded_by, grading_source, submitted_at, graded_at`

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?;`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubmissionsByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE assessment_id = ?
		ORDER BY submitted_at DESC, rowid DESC;
	`, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	out := []models.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, rows.Err()
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var (
		sub                 models.Submission
		answers             string
		analysis            sql.NullString
		submitted, gradedAt string
	)
	if err := row.Scan(&sub.ID, &sub.AssessmentID, &sub.StudentName, &answers, &sub.EssayText, &sub.FileName,
		&sub.TotalScore, &sub.MaxScore, &sub.Feedback, &analysis, &sub.GradedBy, &sub.GradingSource,
		&submitted, &gradedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}
	if err := unmarshalJSON(answers, &sub.GradedAnswers); err != nil {
		return nil, err
	}
	if analysis.Valid {
		sub.AIAnalysis = &models.Analysis{}
		if err := unmarshalJSON(analysis.String, sub.AIAnalysis); err != nil {
			return nil, err
		}
	}
	sub.SubmittedAt = parseTime(submitted)
	sub.GradedAt = parseTime(gradedAt)
	return &sub, nil
}

func (s *SQLiteStore) RecordLLMCall(ctx context.Context, call *models.LLMCall) error {
	stamp(&call.ID, &call.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_calls (id, purpose, model, latency_ms, success, input_tokens, output_tokens, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, call.ID, call.Purpose, call.Model, call.LatencyMs, call.Success, call.InputTokens, call.OutputTokens,
		call.Error, formatTime(call.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert llm call: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	if string(raw) == "null" {
		return "[]", nil
	}
	return string(raw), nil
}

func unmarshalJSON(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
