package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// seedFile is the on-disk layout read by "examctl seed".
type seedFile struct {
	Courses []struct {
		Name      string                  `json:"name"`
		Questions []exam.NewQuestionInput `json:"questions"`
	} `json:"courses"`
	Students    []seedAccount `json:"students"`
	Instructors []seedAccount `json:"instructors"`
}

type seedAccount struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	Courses  []string `json:"courses"`
}

type seedStats struct {
	Courses, Accounts, Questions int
}

type accountStore interface {
	Save(ctx context.Context, kind authmw.Kind, id int64, name, password string) error
	EnsureCourse(ctx context.Context, name string) error
	Enrol(ctx context.Context, kind authmw.Kind, id int64, course string) error
}

type questionBank interface {
	AddQuestion(ctx context.Context, in exam.NewQuestionInput) (exam.Question, error)
}

// seed creates courses first so accounts can be enrolled and questions attached.
// Questions are appended on every run; accounts are upserted.
func seed(ctx context.Context, r io.Reader, accounts accountStore, bank questionBank) (seedStats, error) {
	var in seedFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return seedStats{}, fmt.Errorf("seed: decode: %w", err)
	}

	var st seedStats
	for _, c := range in.Courses {
		if err := accounts.EnsureCourse(ctx, c.Name); err != nil {
			return st, fmt.Errorf("seed: course %q: %w", c.Name, err)
		}
		st.Courses++
	}

	for _, group := range []struct {
		kind authmw.Kind
		list []seedAccount
	}{{authmw.KindStudent, in.Students}, {authmw.KindInstructor, in.Instructors}} {
		for _, a := range group.list {
			if err := accounts.Save(ctx, group.kind, a.ID, a.Name, a.Password); err != nil {
				return st, fmt.Errorf("seed: %s %d: %w", group.kind, a.ID, err)
			}
			for _, course := range a.Courses {
				if err := accounts.Enrol(ctx, group.kind, a.ID, course); err != nil {
					return st, fmt.Errorf("seed: enrol %s %d in %q: %w", group.kind, a.ID, course, err)
				}
			}
			st.Accounts++
		}
	}

	for _, c := range in.Courses {
		for i, q := range c.Questions {
			q.CourseName = c.Name
			if _, err := bank.AddQuestion(ctx, q); err != nil {
				return st, fmt.Errorf("seed: %s question %d: %w", c.Name, i+1, err)
			}
			st.Questions++
		}
	}
	return st, nil
}
