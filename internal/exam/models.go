package exam

import "time"

type QuestionType string

const (
	TrueFalse      QuestionType = "true_false"
	MultipleChoice QuestionType = "multiple_choice"
)

func (t QuestionType) Valid() bool { return t == TrueFalse || t == MultipleChoice }

// Status is the materialized state of one (student, exam) pair at a given time.
type Status string

const (
	StatusNotStarted Status = "not_started" // window not yet open
	StatusInProgress Status = "in_progress" // window open, not submitted
	StatusSubmitted  Status = "submitted"
	StatusExpired    Status = "expired" // window closed without an attempt
)

// AttemptSubmitted is the stored status of every attempt row.
const AttemptSubmitted = "Submitted"

type Course struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"question_count,omitempty"`
}

type Choice struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

type Question struct {
	ID       int64        `json:"id"`
	CourseID int64        `json:"course_id"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Weight   float64      `json:"weight"`
	Choices  []Choice     `json:"choices"`
	// CorrectChoiceID is zeroed on every student-facing path.
	CorrectChoiceID int64 `json:"correct_choice_id,omitempty"`
}

type Exam struct {
	ID         int64      `json:"id"`
	CourseID   int64      `json:"course_id"`
	CourseName string     `json:"course_name"`
	Title      string     `json:"title"`
	Date       string     `json:"exam_date"`  // YYYY-MM-DD
	StartTime  string     `json:"start_time"` // HH:MM:SS
	EndTime    string     `json:"end_time"`
	TotalMarks float64    `json:"total_marks"`
	CreatedBy  *int64     `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Questions  []Question `json:"questions,omitempty"`
}

func (e Exam) Window() Window { return Window{Date: e.Date, Start: e.StartTime, End: e.EndTime} }

func (e Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:         e.ID,
		Title:      e.Title,
		CourseName: e.CourseName,
		Date:       e.Date,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		TotalMarks: e.TotalMarks,
	}
}

// CountByType tallies linked questions per type.
func (e Exam) CountByType() map[QuestionType]int {
	out := map[QuestionType]int{}
	for _, q := range e.Questions {
		out[q.Type]++
	}
	return out
}

type ExamSummary struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	CourseName string  `json:"course_name"`
	Date       string  `json:"exam_date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	TotalMarks float64 `json:"total_marks"`
}

func (s ExamSummary) Window() Window { return Window{Date: s.Date, Start: s.StartTime, End: s.EndTime} }

type CompletedExam struct {
	ExamSummary
	Score       float64   `json:"score"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ScheduledExam struct {
	ExamSummary
	Status Status   `json:"status"`
	Score  *float64 `json:"score,omitempty"`
}

// Attempt is one StudentExam row.
type Attempt struct {
	StudentID   int64     `json:"student_id"`
	ExamID      int64     `json:"exam_id"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
	Status      string    `json:"status"`
}

// AttemptSheet is what a student sees when starting an exam.
type AttemptSheet struct {
	Exam      ExamSummary `json:"exam"`
	Questions []Question  `json:"questions"`
	ClosesAt  time.Time   `json:"closes_at"`
}

type AnswerResult struct {
	QuestionID       int64   `json:"question_id"`
	SelectedChoiceID *int64  `json:"selected_choice_id"`
	CorrectChoiceID  int64   `json:"correct_choice_id"`
	Mark             float64 `json:"mark"`
	Weight           float64 `json:"weight"`
	Correct          bool    `json:"correct"`
}

type GradingResult struct {
	Attempt    Attempt        `json:"attempt"`
	Answers    []AnswerResult `json:"answers"`
	TotalScore float64        `json:"total_score"`
	TotalMarks float64        `json:"total_marks"`
	Graded     bool           `json:"graded"`
}

type QuestionResult struct {
	QuestionID       int64        `json:"question_id"`
	Text             string       `json:"question_text"`
	Type             QuestionType `json:"type"`
	Choices          []Choice     `json:"choices"`
	SelectedChoiceID *int64       `json:"selected_choice_id"`
	CorrectChoiceID  int64        `json:"correct_choice_id"`
	Mark             float64      `json:"mark"`
	Weight           float64      `json:"weight"`
}

type ExamResult struct {
	Exam        ExamSummary      `json:"exam"`
	Questions   []QuestionResult `json:"per_question"`
	TotalScore  float64          `json:"total_score"`
	TotalMarks  float64          `json:"total_marks"`
	Status      string           `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

type StudentResult struct {
	StudentID   int64     `json:"student_id"`
	StudentName string    `json:"student_name"`
	Score       float64   `json:"score"`
	TotalMarks  float64   `json:"total_marks"`
	SubmittedAt time.Time `json:"submission_time"`
	Status      string    `json:"status"`
}

type InstructorCourse struct {
	CourseID     int64  `json:"course_id"`
	CourseName   string `json:"course_name"`
	StudentCount int    `json:"student_count"`
}

type InstructorExam struct {
	ExamSummary
	StudentsTaken int `json:"students_taken"`
}

type CreateExamInput struct {
	CourseName     string `json:"course_name"`
	Date           string `json:"exam_date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	TrueFalse      int    `json:"no_tf"`
	MultipleChoice int    `json:"no_mcq"`
	Title          string `json:"title,omitempty"`
	CreatedBy      *int64 `json:"-"`
}

type NewQuestionInput struct {
	CourseName   string       `json:"course_name"`
	Type         QuestionType `json:"type"`
	Text         string       `json:"text"`
	Choices      []string     `json:"choices,omitempty"`
	CorrectIndex int          `json:"correct_index"`
	Weight       float64      `json:"weight,omitempty"`
	ExamID       *int64       `json:"exam_id,omitempty"`
}
