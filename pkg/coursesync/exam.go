package coursesync

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// DefaultPassingScore is the pass threshold used when none is configured.
const DefaultPassingScore = 70

// ErrQuestionOutOfRange is returned when an index does not name a question or option.
var ErrQuestionOutOfRange = errors.New("coursesync: question or option out of range")

// Question is a multiple-choice exam question. Correct is the index of the right option.
type Question struct {
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Score is the graded outcome of an attempt.
type Score struct {
	Total     int
	Correct   int
	Percent   int
	Threshold int
	Passed    bool
}

// Attempt is one learner's pass through an exam.
type Attempt struct {
	questions []Question
	answers   []int
	current   int
	submitted bool
}

// NewAttempt starts an attempt with every question unanswered.
func NewAttempt(questions []Question) *Attempt {
	a := &Attempt{questions: questions}
	a.Retake()
	return a
}

// Select records option as the answer to question index.
func (a *Attempt) Select(index, option int) error {
	if index < 0 || index >= len(a.questions) || option < 0 || option >= len(a.questions[index].Options) {
		return ErrQuestionOutOfRange
	}
	a.answers[index] = option
	return nil
}

// Goto moves to question index.
func (a *Attempt) Goto(index int) error {
	if index < 0 || index >= len(a.questions) {
		return ErrQuestionOutOfRange
	}
	a.current = index
	return nil
}

// Current returns the index of the displayed question.
func (a *Attempt) Current() int { return a.current }

// Submitted reports whether the attempt has been submitted.
func (a *Attempt) Submitted() bool { return a.submitted }

// Answered returns how many questions have an answer.
func (a *Attempt) Answered() int {
	count := 0
	for _, answer := range a.answers {
		if answer >= 0 {
			count++
		}
	}
	return count
}

// Score grades the attempt against threshold. A non-positive threshold uses DefaultPassingScore.
func (a *Attempt) Score(threshold int) Score {
	if threshold <= 0 {
		threshold = DefaultPassingScore
	}
	correct := 0
	for i, question := range a.questions {
		if a.answers[i] == question.Correct {
			correct++
		}
	}
	percent := 0
	if total := len(a.questions); total > 0 {
		percent = int(math.Round(100 * float64(correct) / float64(total)))
	}
	return Score{
		Total:     len(a.questions),
		Correct:   correct,
		Percent:   percent,
		Threshold: threshold,
		Passed:    percent >= threshold,
	}
}

// Retake clears every answer and returns to the first question.
func (a *Attempt) Retake() {
	a.answers = make([]int, len(a.questions))
	for i := range a.answers {
		a.answers[i] = -1
	}
	a.current = 0
	a.submitted = false
}

// SubmitExam grades attempt and posts the result for courseID. The attempt is marked
// submitted only when the post succeeds.
func SubmitExam(ctx context.Context, transport Transport, token, courseID string, attempt *Attempt, threshold int) (Score, error) {
	score := attempt.Score(threshold)
	if token == "" {
		return score, errors.New("coursesync: not signed in")
	}
	err := transport.SubmitExam(ctx, token, ExamSubmission{
		CourseID:       courseID,
		QuizScore:      float64(score.Percent),
		PassingScore:   float64(score.Threshold),
		TotalQuestions: score.Total,
		CorrectAnswers: score.Correct,
	})
	if err != nil {
		return score, fmt.Errorf("submit exam: %w", err)
	}
	attempt.submitted = true
	return score, nil
}
