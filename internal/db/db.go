package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open connects to the SQLite database and runs schema migrations.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" && !isURI(path) {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=1", path)
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return conn, nil
}

func isURI(path string) bool {
	return len(path) > 5 && path[:5] == "file:"
}

// Nested collections (items, tasks, answers, analysis) are stored as JSON text.
func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			school TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'teacher',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			grade_level TEXT NOT NULL,
			topic TEXT NOT NULL,
			content_kind TEXT NOT NULL CHECK(content_kind IN ('test','descriptor')),
			items TEXT NOT NULL DEFAULT '[]',
			tasks TEXT NOT NULL DEFAULT '[]',
			descriptors TEXT NOT NULL DEFAULT '[]',
			criteria TEXT NOT NULL DEFAULT '',
			total_points INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lesson_plans (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			grade_level TEXT NOT NULL,
			topic TEXT NOT NULL,
			objectives TEXT NOT NULL DEFAULT '[]',
			duration_minutes INTEGER NOT NULL,
			introduction TEXT NOT NULL DEFAULT '',
			goals TEXT NOT NULL DEFAULT '',
			methods TEXT NOT NULL DEFAULT '',
			main_body TEXT NOT NULL DEFAULT '',
			assessment_note TEXT NOT NULL DEFAULT '',
			reflection TEXT NOT NULL DEFAULT '',
			homework TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			assessment_id TEXT NOT NULL,
			student_name TEXT NOT NULL,
			graded_answers TEXT NOT NULL DEFAULT '[]',
			essay_text TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			total_score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			feedback TEXT NOT NULL DEFAULT '',
			ai_analysis TEXT,
			graded_by TEXT NOT NULL,
			grading_source TEXT NOT NULL,
			submitted_at TEXT NOT NULL,
			graded_at TEXT NOT NULL,
			FOREIGN KEY(assessment_id) REFERENCES assessments(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS llm_calls (
			id TEXT PRIMARY KEY,
			purpose TEXT NOT NULL,
			model TEXT NOT NULL,
			latency_ms INTEGER NOT NULL,
			success INTEGER NOT NULL,
			input_tokens INTEGER NOT NULL DEFAULT 0,
			output_tokens INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_owner ON assessments(owner_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_plans_owner ON lesson_plans(owner_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_assessment ON submissions(assessment_id, submitted_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}
