package dto

// ExamSubmitRequest carries a scored exam attempt. Pass/fail is never accepted from the client.
type ExamSubmitRequest struct {
	CourseID       string   `json:"course_id" validate:"max=64"`
	QuizScore      *float64 `json:"quiz_score"`
	PassingScore   *float64 `json:"passing_score"`
	TotalQuestions *int     `json:"total_questions"`
	CorrectAnswers *int     `json:"correct_answers"`
}

// ExamResult is the server-side evaluation of an exam submission.
type ExamResult struct {
	QuizScore      int              `json:"quiz_score"`
	QuizPassed     bool             `json:"quiz_passed"`
	PassingScore   int              `json:"passing_score"`
	TotalQuestions int              `json:"total_questions"`
	CorrectAnswers int              `json:"correct_answers"`
	Progress       ProgressSnapshot `json:"progress"`
}

// ExamSubmitResponse is the HTTP body of an exam submission.
type ExamSubmitResponse struct {
	Success bool `json:"success"`
	ExamResult
}
