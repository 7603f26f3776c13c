package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/handler"
	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/service"
)

type stubExamService struct {
	last   dto.ExamSubmitRequest
	result dto.ExamResult
	err    error
}

func (s *stubExamService) Submit(_ context.Context, _ service.Learner, req dto.ExamSubmitRequest) (dto.ExamResult, error) {
	s.last = req
	return s.result, s.err
}

func examApp(svc service.ExamService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/exams", middleware.JWTProtected(middleware.NewTokenVerifier(testSecret)))
	handler.NewExamHandler(svc, zerolog.Nop()).Register(group, middleware.RequireScriptContext())
	return app
}

func TestExamHandler_Submit(t *testing.T) {
	svc := &stubExamService{result: dto.ExamResult{
		QuizScore:      95,
		QuizPassed:     true,
		PassingScore:   70,
		TotalQuestions: 20,
		CorrectAnswers: 19,
		Progress:       dto.ProgressSnapshot{Status: "in_progress", ProgressPercent: 60},
	}}

	req := jsonRequest(t, http.MethodPost, "/api/v1/exams/submit", map[string]interface{}{
		"course_id":       "pt-msk-001",
		"total_questions": 20,
		"correct_answers": 19,
	})
	req.Header.Set("Authorization", bearer(t, "user-1"))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp := perform(t, examApp(svc), req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.ExamSubmitResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, 95, body.QuizScore)
	require.True(t, body.QuizPassed)
	require.Equal(t, "in_progress", body.Progress.Status)
	require.Equal(t, 20, *svc.last.TotalQuestions)
	require.Nil(t, svc.last.QuizScore)
}

func TestExamHandler_MissingScore(t *testing.T) {
	req := jsonRequest(t, http.MethodPost, "/api/v1/exams/submit", map[string]interface{}{"course_id": "pt-msk-001"})
	req.Header.Set("Authorization", bearer(t, "user-1"))
	req.Header.Set("X-Requested-With", "fetch")

	resp := perform(t, examApp(&stubExamService{err: service.ErrQuizScoreRequired}), req)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
