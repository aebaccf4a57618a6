package grading

import (
	"context"
	"fmt"
)

// Question types understood by the built-in strategies.
const (
	TypeTrueFalse      = "true_false"
	TypeMultipleChoice = "multiple_choice"
)

// Q is a minimal view of a question needed for grading.
type Q struct {
	ID              int64
	Type            string
	Weight          float64
	CorrectChoiceID int64 // 0 when the question has no marked choice
}

// Response is the student's selection for one question; nil means unanswered.
type Response struct {
	SelectedChoiceID *int64
}

// Result is the outcome of grading a single question response.
type Result struct {
	Points    float64 // either 0 or MaxPoints
	MaxPoints float64
	Correct   bool
	Feedback  []string
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q Q, resp Response) (Result, error)
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, resp Response) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, resp Response) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: weight(q)}, fmt.Errorf("grading: no strategy for question type %q", q.Type)
	}
	return s.Grade(ctx, q, resp)
}

type Option func(*config)

type config struct {
	extra map[string]Strategy
}

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(questionType string, s Strategy) Option {
	return func(c *config) { c.extra[questionType] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{extra: map[string]Strategy{}}
	for _, o := range opts {
		o(cfg)
	}
	strategies := map[string]Strategy{
		TypeTrueFalse:      singleChoiceStrategy{},
		TypeMultipleChoice: singleChoiceStrategy{},
	}
	for k, s := range cfg.extra {
		strategies[k] = s
	}
	return &defaultGrader{strategies: strategies}
}

// singleChoiceStrategy awards the full weight when the selected choice is the
// marked one and nothing otherwise. There is no partial credit.
type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(_ context.Context, q Q, resp Response) (Result, error) {
	res := Result{MaxPoints: weight(q)}
	switch {
	case resp.SelectedChoiceID == nil:
		res.Feedback = append(res.Feedback, "unanswered")
	case q.CorrectChoiceID == 0:
		res.Feedback = append(res.Feedback, "no correct choice marked")
	case *resp.SelectedChoiceID == q.CorrectChoiceID:
		res.Points = res.MaxPoints
		res.Correct = true
	}
	return res, nil
}

// weight is the stored weight, the same figure exam totals are summed from.
// A non-positive weight is worth nothing.
func weight(q Q) float64 {
	if q.Weight <= 0 {
		return 0
	}
	return q.Weight
}

// Total sums awarded points.
func Total(results []Result) float64 {
	sum := 0.0
	for _, r := range results {
		sum += r.Points
	}
	return sum
}
