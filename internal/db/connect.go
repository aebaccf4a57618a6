package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps common aliases to a supported driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "pg", "pgx", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", s)
	}
}

// Open opens a DB, tunes the pool, ensures schema exists and returns a Gateway over it.
func Open(ctx context.Context, driver Driver, dsn string, log *slog.Logger) (*Gateway, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:exams.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/exams?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	sqldb, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	tunePool(driver, sqldb)

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db: ping: %w: %v", ErrUnavailable, err)
	}
	if driver == DriverSQLite {
		if err := applySQLitePragmas(ctx, sqldb); err != nil {
			_ = sqldb.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, sqldb, driver); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db: schema: %w", err)
	}
	return New(sqldb, driver, log), nil
}

// tunePool keeps SQLite to a single writer connection; server databases get a small pool.
func tunePool(driver Driver, db *sql.DB) {
	maxOpen := 20
	maxIdle := 10
	connLife := 45 * time.Minute
	idleLife := 15 * time.Minute

	if driver == DriverSQLite {
		maxOpen = 1
		maxIdle = 1
		connLife = 0
		idleLife = 0
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connLife)
	db.SetConnMaxIdleTime(idleLife)
}

func applySQLitePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("db: sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Dates are TEXT YYYY-MM-DD and times TEXT HH:MM:SS in both dialects so that
// lexical comparison is chronological.
const schemaSQLite = `
CREATE TABLE IF NOT EXISTS students (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS instructors (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS instructor_courses (
  instructor_id INTEGER NOT NULL REFERENCES instructors(id) ON DELETE CASCADE,
  course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  PRIMARY KEY (instructor_id, course_id)
);

CREATE TABLE IF NOT EXISTS student_courses (
  student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  PRIMARY KEY (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS questions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  type TEXT NOT NULL CHECK (type IN ('true_false','multiple_choice')),
  text TEXT NOT NULL,
  weight REAL NOT NULL DEFAULT 1 CHECK (weight > 0)
);

CREATE TABLE IF NOT EXISTS choices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL,
  is_correct INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS exams (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  course_id INTEGER NOT NULL REFERENCES courses(id),
  title TEXT NOT NULL,
  exam_date TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  total_marks REAL NOT NULL DEFAULT 0,
  created_by INTEGER,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exam_questions (
  exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  question_id INTEGER NOT NULL REFERENCES questions(id),
  position INTEGER NOT NULL,
  PRIMARY KEY (exam_id, question_id)
);

CREATE TABLE IF NOT EXISTS student_exams (
  student_id INTEGER NOT NULL REFERENCES students(id),
  exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  score REAL NOT NULL DEFAULT 0,
  submission_time INTEGER NOT NULL,
  status TEXT NOT NULL,
  PRIMARY KEY (student_id, exam_id)
);

CREATE TABLE IF NOT EXISTS student_exam_answers (
  student_id INTEGER NOT NULL,
  exam_id INTEGER NOT NULL,
  question_id INTEGER NOT NULL REFERENCES questions(id),
  selected_choice_id INTEGER REFERENCES choices(id),
  mark REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (student_id, exam_id, question_id),
  FOREIGN KEY (student_id, exam_id) REFERENCES student_exams(student_id, exam_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_exams_date ON exams(exam_date, start_time);
CREATE INDEX IF NOT EXISTS idx_questions_course_type ON questions(course_id, type);
CREATE INDEX IF NOT EXISTS idx_student_exams_exam ON student_exams(exam_id, score DESC);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS students (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS instructors (
  id BIGINT PRIMARY KEY,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS courses (
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS instructor_courses (
  instructor_id BIGINT NOT NULL REFERENCES instructors(id) ON DELETE CASCADE,
  course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  PRIMARY KEY (instructor_id, course_id)
);

CREATE TABLE IF NOT EXISTS student_courses (
  student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
  course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  PRIMARY KEY (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
  type TEXT NOT NULL CHECK (type IN ('true_false','multiple_choice')),
  text TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL DEFAULT 1 CHECK (weight > 0)
);

CREATE TABLE IF NOT EXISTS choices (
  id BIGSERIAL PRIMARY KEY,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  text TEXT NOT NULL,
  is_correct INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS exams (
  id BIGSERIAL PRIMARY KEY,
  course_id BIGINT NOT NULL REFERENCES courses(id),
  title TEXT NOT NULL,
  exam_date TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  total_marks DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_by BIGINT,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS exam_questions (
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  question_id BIGINT NOT NULL REFERENCES questions(id),
  position INTEGER NOT NULL,
  PRIMARY KEY (exam_id, question_id)
);

CREATE TABLE IF NOT EXISTS student_exams (
  student_id BIGINT NOT NULL REFERENCES students(id),
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  submission_time BIGINT NOT NULL,
  status TEXT NOT NULL,
  PRIMARY KEY (student_id, exam_id)
);

CREATE TABLE IF NOT EXISTS student_exam_answers (
  student_id BIGINT NOT NULL,
  exam_id BIGINT NOT NULL,
  question_id BIGINT NOT NULL REFERENCES questions(id),
  selected_choice_id BIGINT REFERENCES choices(id),
  mark DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (student_id, exam_id, question_id),
  FOREIGN KEY (student_id, exam_id) REFERENCES student_exams(student_id, exam_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_exams_date ON exams(exam_date, start_time);
CREATE INDEX IF NOT EXISTS idx_questions_course_type ON questions(course_id, type);
CREATE INDEX IF NOT EXISTS idx_student_exams_exam ON student_exams(exam_id, score DESC);
`
