package exam

// Named statements registered on the gateway. Both dialects accept $N
// placeholders; a value needed twice is bound twice.
const (
	procCourseByName         = "course.by_name"
	procCoursesWithQuestions = "course.with_questions"
	procQuestionPool         = "question.pool"
	procQuestionInsert       = "question.insert"
	procChoiceInsert         = "choice.insert"
	procExamInsert           = "exam.insert"
	procExamLinkQuestion     = "exam.link_question"
	procExamAppendQuestion   = "exam.append_question"
	procExamRecomputeTotal   = "exam.recompute_total"
	procExamByID             = "exam.by_id"
	procExamQuestions        = "exam.questions"
	procExamChoices          = "exam.choices"
	procExamsAvailable       = "exam.available"
	procExamsCompleted       = "exam.completed"
	procExamsSchedule        = "exam.schedule"
	procAttemptGet           = "attempt.get"
	procAttemptInsert        = "attempt.insert"
	procAnswerInsert         = "attempt.answer_insert"
	procAnswersForGrading    = "attempt.answers_for_grading"
	procAnswerSetMark        = "attempt.answer_set_mark"
	procAttemptSetScore      = "attempt.set_score"
	procResultQuestions      = "results.questions"
	procResultsByExam        = "results.by_exam"
	procInstructorCourses    = "instructor.courses"
	procInstructorExams      = "instructor.exams"
)

var procedures = map[string]string{
	procCourseByName: `
SELECT c.id, c.name,
       (SELECT COUNT(*) FROM questions q WHERE q.course_id = c.id) AS question_count
FROM courses c
WHERE c.name = $1`,

	procCoursesWithQuestions: `
SELECT c.id, c.name, COUNT(q.id) AS question_count
FROM courses c
JOIN questions q ON q.course_id = c.id
GROUP BY c.id, c.name
ORDER BY c.name`,

	procQuestionPool: `
SELECT id, weight
FROM questions
WHERE course_id = $1 AND type = $2
ORDER BY id`,

	procQuestionInsert: `
INSERT INTO questions (course_id, type, text, weight)
VALUES ($1, $2, $3, $4)
RETURNING id`,

	procChoiceInsert: `
INSERT INTO choices (question_id, text, is_correct, position)
VALUES ($1, $2, $3, $4)
RETURNING id`,

	procExamInsert: `
INSERT INTO exams (course_id, title, exam_date, start_time, end_time, total_marks, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,

	procExamLinkQuestion: `
INSERT INTO exam_questions (exam_id, question_id, position)
VALUES ($1, $2, $3)`,

	procExamAppendQuestion: `
INSERT INTO exam_questions (exam_id, question_id, position)
SELECT CAST($1 AS BIGINT), CAST($2 AS BIGINT), COALESCE(MAX(eq.position), 0) + 1
FROM exam_questions eq
WHERE eq.exam_id = $3`,

	procExamRecomputeTotal: `
UPDATE exams SET total_marks = (
  SELECT COALESCE(SUM(q.weight), 0)
  FROM exam_questions eq
  JOIN questions q ON q.id = eq.question_id
  WHERE eq.exam_id = $1)
WHERE id = $2
RETURNING total_marks`,

	procExamByID: `
SELECT e.id, e.course_id, c.name AS course_name, e.title, e.exam_date,
       e.start_time, e.end_time, e.total_marks, e.created_by, e.created_at
FROM exams e
JOIN courses c ON c.id = e.course_id
WHERE e.id = $1`,

	procExamQuestions: `
SELECT q.id, q.course_id, q.type, q.text, q.weight,
       (SELECT ch.id FROM choices ch
         WHERE ch.question_id = q.id AND ch.is_correct = 1
         ORDER BY ch.id LIMIT 1) AS correct_choice_id
FROM exam_questions eq
JOIN questions q ON q.id = eq.question_id
WHERE eq.exam_id = $1
ORDER BY eq.position`,

	procExamChoices: `
SELECT ch.id, ch.question_id, ch.text
FROM choices ch
JOIN exam_questions eq ON eq.question_id = ch.question_id
WHERE eq.exam_id = $1
ORDER BY ch.question_id, ch.position, ch.id`,

	procExamsAvailable: `
SELECT e.id, e.title, c.name AS course_name, e.exam_date, e.start_time, e.end_time, e.total_marks
FROM exams e
JOIN courses c ON c.id = e.course_id
WHERE e.exam_date = $1
  AND e.start_time <= $2
  AND e.end_time >= $3
  AND NOT EXISTS (
    SELECT 1 FROM student_exams se WHERE se.student_id = $4 AND se.exam_id = e.id
  )
ORDER BY e.start_time, e.id`,

	procExamsCompleted: `
SELECT e.id, e.title, c.name AS course_name, e.exam_date, e.start_time, e.end_time,
       e.total_marks, se.score, se.status, se.submission_time
FROM student_exams se
JOIN exams e ON e.id = se.exam_id
JOIN courses c ON c.id = e.course_id
WHERE se.student_id = $1
ORDER BY se.submission_time DESC, e.id`,

	procExamsSchedule: `
SELECT e.id, e.title, c.name AS course_name, e.exam_date, e.start_time, e.end_time,
       e.total_marks, se.score, se.status AS attempt_status
FROM exams e
JOIN courses c ON c.id = e.course_id
LEFT JOIN student_exams se ON se.exam_id = e.id AND se.student_id = $1
WHERE se.student_id IS NOT NULL
   OR e.course_id IN (SELECT sc.course_id FROM student_courses sc WHERE sc.student_id = $2)
ORDER BY e.exam_date, e.start_time, e.id`,

	procAttemptGet: `
SELECT student_id, exam_id, score, submission_time, status
FROM student_exams
WHERE student_id = $1 AND exam_id = $2`,

	procAttemptInsert: `
INSERT INTO student_exams (student_id, exam_id, score, submission_time, status)
VALUES ($1, $2, 0, $3, $4)`,

	procAnswerInsert: `
INSERT INTO student_exam_answers (student_id, exam_id, question_id, selected_choice_id, mark)
VALUES ($1, $2, $3, $4, 0)`,

	procAnswersForGrading: `
SELECT a.question_id, a.selected_choice_id, q.type, q.weight,
       (SELECT ch.id FROM choices ch
         WHERE ch.question_id = q.id AND ch.is_correct = 1
         ORDER BY ch.id LIMIT 1) AS correct_choice_id
FROM student_exam_answers a
JOIN questions q ON q.id = a.question_id
WHERE a.student_id = $1 AND a.exam_id = $2
ORDER BY a.question_id`,

	procAnswerSetMark: `
UPDATE student_exam_answers SET mark = $1
WHERE student_id = $2 AND exam_id = $3 AND question_id = $4`,

	procAttemptSetScore: `
UPDATE student_exams SET score = $1
WHERE student_id = $2 AND exam_id = $3`,

	procResultQuestions: `
SELECT q.id, q.type, q.text, q.weight,
       a.selected_choice_id,
       COALESCE(a.mark, 0) AS mark,
       (SELECT ch.id FROM choices ch
         WHERE ch.question_id = q.id AND ch.is_correct = 1
         ORDER BY ch.id LIMIT 1) AS correct_choice_id
FROM exam_questions eq
JOIN questions q ON q.id = eq.question_id
LEFT JOIN student_exam_answers a
       ON a.exam_id = eq.exam_id AND a.question_id = q.id AND a.student_id = $2
WHERE eq.exam_id = $1
ORDER BY eq.position`,

	procResultsByExam: `
SELECT se.student_id, s.name AS student_name, se.score, e.total_marks,
       se.submission_time, se.status
FROM student_exams se
JOIN students s ON s.id = se.student_id
JOIN exams e ON e.id = se.exam_id
WHERE se.exam_id = $1
ORDER BY se.score DESC, se.submission_time ASC, se.student_id ASC`,

	procInstructorCourses: `
SELECT c.id, c.name,
       (SELECT COUNT(*) FROM student_courses sc WHERE sc.course_id = c.id) AS student_count
FROM instructor_courses ic
JOIN courses c ON c.id = ic.course_id
WHERE ic.instructor_id = $1
ORDER BY c.name`,

	procInstructorExams: `
SELECT e.id, e.title, c.name AS course_name, e.exam_date, e.start_time, e.end_time, e.total_marks,
       (SELECT COUNT(*) FROM student_exams se WHERE se.exam_id = e.id) AS students_taken
FROM exams e
JOIN courses c ON c.id = e.course_id
WHERE e.course_id IN (SELECT ic.course_id FROM instructor_courses ic WHERE ic.instructor_id = $1)
ORDER BY e.exam_date DESC, e.start_time DESC, e.id DESC`,
}
