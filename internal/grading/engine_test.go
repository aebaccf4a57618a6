package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choice(id int64) *int64 { return &id }

func TestDefaultGrader_SingleChoice(t *testing.T) {
	g := NewDefaultGrader()
	ctx := context.Background()

	tests := []struct {
		name    string
		q       Q
		resp    Response
		points  float64
		correct bool
	}{
		{
			name:    "multiple choice correct",
			q:       Q{ID: 1, Type: TypeMultipleChoice, Weight: 1, CorrectChoiceID: 3},
			resp:    Response{SelectedChoiceID: choice(3)},
			points:  1,
			correct: true,
		},
		{
			name:   "multiple choice wrong",
			q:      Q{ID: 2, Type: TypeMultipleChoice, Weight: 1, CorrectChoiceID: 5},
			resp:   Response{SelectedChoiceID: choice(7)},
			points: 0,
		},
		{
			name:    "true false weighted",
			q:       Q{ID: 3, Type: TypeTrueFalse, Weight: 2, CorrectChoiceID: 9},
			resp:    Response{SelectedChoiceID: choice(9)},
			points:  2,
			correct: true,
		},
		{
			name:   "unanswered",
			q:      Q{ID: 4, Type: TypeTrueFalse, Weight: 1, CorrectChoiceID: 9},
			resp:   Response{},
			points: 0,
		},
		{
			name:   "no marked choice",
			q:      Q{ID: 5, Type: TypeMultipleChoice, Weight: 1},
			resp:   Response{SelectedChoiceID: choice(1)},
			points: 0,
		},
		{
			name:    "zero weight is worth nothing",
			q:       Q{ID: 6, Type: TypeMultipleChoice, CorrectChoiceID: 4},
			resp:    Response{SelectedChoiceID: choice(4)},
			points:  0,
			correct: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Grade(ctx, tt.q, tt.resp)
			require.NoError(t, err)
			assert.Equal(t, tt.points, res.Points)
			assert.Equal(t, tt.correct, res.Correct)
			// no partial credit
			assert.True(t, res.Points == 0 || res.Points == res.MaxPoints)
		})
	}
}

func TestDefaultGrader_UnknownType(t *testing.T) {
	g := NewDefaultGrader()
	res, err := g.Grade(context.Background(), Q{Type: "essay", Weight: 3}, Response{SelectedChoiceID: choice(1)})
	assert.Error(t, err)
	assert.Zero(t, res.Points)
	assert.Equal(t, 3.0, res.MaxPoints)
}

type fixedStrategy struct{ pts float64 }

func (f fixedStrategy) Grade(_ context.Context, q Q, _ Response) (Result, error) {
	return Result{Points: f.pts, MaxPoints: f.pts}, nil
}

func TestWithStrategy_Overrides(t *testing.T) {
	g := NewDefaultGrader(WithStrategy(TypeTrueFalse, fixedStrategy{pts: 4}))
	res, err := g.Grade(context.Background(), Q{Type: TypeTrueFalse}, Response{})
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Points)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 3.0, Total([]Result{{Points: 1}, {Points: 0}, {Points: 2}}))
	assert.Zero(t, Total(nil))
}
