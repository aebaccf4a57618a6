// Package auth verifies and provisions student and instructor accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/db"
)

var procs = map[string]string{
	"account.student":    `SELECT id, name, password_hash FROM students WHERE id = $1`,
	"account.instructor": `SELECT id, name, password_hash FROM instructors WHERE id = $1`,
	"account.student.save": `
INSERT INTO students (id, name, password_hash) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, password_hash = excluded.password_hash`,
	"account.instructor.save": `
INSERT INTO instructors (id, name, password_hash) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, password_hash = excluded.password_hash`,
	"account.enrol": `
INSERT INTO student_courses (student_id, course_id)
SELECT CAST($1 AS BIGINT), c.id FROM courses c WHERE c.name = $2
ON CONFLICT DO NOTHING`,
	"account.assign": `
INSERT INTO instructor_courses (instructor_id, course_id)
SELECT CAST($1 AS BIGINT), c.id FROM courses c WHERE c.name = $2
ON CONFLICT DO NOTHING`,
	"course.ensure": `
INSERT INTO courses (name) VALUES ($1)
ON CONFLICT (name) DO NOTHING`,
}

// ErrUnknownCourse is returned when enrolling into a course that does not exist.
var ErrUnknownCourse = errors.New("unknown course")

// Accounts implements credential checks over the students and instructors tables.
type Accounts struct {
	gw   *db.Gateway
	cost int
}

func NewAccounts(gw *db.Gateway) *Accounts {
	gw.RegisterAll(procs)
	return &Accounts{gw: gw, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost used by Save; tests use bcrypt.MinCost.
func (a *Accounts) WithCost(cost int) *Accounts {
	a.cost = cost
	return a
}

func (a *Accounts) load(ctx context.Context, kind authmw.Kind, id int64) (db.Record, error) {
	if !kind.Valid() {
		return db.Record{}, authmw.ErrBadCredentials
	}
	rec, err := a.gw.CallOne(ctx, "account."+string(kind), id)
	if errors.Is(err, db.ErrNoRows) {
		return db.Record{}, authmw.ErrBadCredentials
	}
	return rec, err
}

// Authenticate checks password against the stored bcrypt hash. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (a *Accounts) Authenticate(ctx context.Context, kind authmw.Kind, id int64, password string) (authmw.Identity, error) {
	rec, err := a.load(ctx, kind, id)
	if err != nil {
		return authmw.Identity{}, err
	}
	hash := rec.String("password_hash")
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return authmw.Identity{}, authmw.ErrBadCredentials
	}
	return authmw.Identity{Kind: kind, ID: rec.Int64("id"), Name: rec.String("name")}, nil
}

// Lookup returns the current identity for an account without checking a password.
func (a *Accounts) Lookup(ctx context.Context, kind authmw.Kind, id int64) (authmw.Identity, error) {
	rec, err := a.load(ctx, kind, id)
	if err != nil {
		return authmw.Identity{}, err
	}
	return authmw.Identity{Kind: kind, ID: rec.Int64("id"), Name: rec.String("name")}, nil
}

// Save creates or replaces an account with a freshly hashed password.
func (a *Accounts) Save(ctx context.Context, kind authmw.Kind, id int64, name, password string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown account kind %q", kind)
	}
	if id <= 0 || strings.TrimSpace(name) == "" || password == "" {
		return errors.New("id, name and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return err
	}
	_, err = a.gw.CallExec(ctx, "account."+string(kind)+".save", id, strings.TrimSpace(name), string(hash))
	return err
}

// EnsureCourse creates the course if it does not exist yet.
func (a *Accounts) EnsureCourse(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrUnknownCourse
	}
	_, err := a.gw.CallExec(ctx, "course.ensure", name)
	return err
}

// Enrol links a student to a course, or an instructor to a course they teach.
// Repeating it is a no-op.
func (a *Accounts) Enrol(ctx context.Context, kind authmw.Kind, id int64, course string) error {
	proc := "account.enrol"
	if kind == authmw.KindInstructor {
		proc = "account.assign"
	}
	var exists bool
	err := a.gw.InTx(ctx, func(q db.Querier) error {
		recs, err := q.Query(ctx, `SELECT id FROM courses WHERE name = $1`, strings.TrimSpace(course))
		if err != nil {
			return err
		}
		if exists = len(recs) > 0; !exists {
			return nil
		}
		_, err = q.CallExec(ctx, proc, id, strings.TrimSpace(course))
		return err
	})
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCourse, course)
	}
	return nil
}
