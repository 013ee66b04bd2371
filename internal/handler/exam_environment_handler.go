package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/examenv-backend/internal/examenv"
	"github.com/stemsi/examenv-backend/internal/middleware"
	"github.com/stemsi/examenv-backend/internal/model"
	"github.com/stemsi/examenv-backend/internal/response"
	"github.com/stemsi/examenv-backend/internal/service"
	"github.com/stemsi/examenv-backend/internal/validator"
)

// ExamEnvironmentHandler serves the exam environment app.
type ExamEnvironmentHandler struct {
	examService *service.ExamEnvironmentService
	authService *service.AuthService
}

// NewExamEnvironmentHandler creates a new ExamEnvironmentHandler.
func NewExamEnvironmentHandler(examService *service.ExamEnvironmentService, authService *service.AuthService) *ExamEnvironmentHandler {
	return &ExamEnvironmentHandler{
		examService: examService,
		authService: authService,
	}
}

// VerifyToken godoc
// POST /api/v1/exam-environment/token/verify
// Reports whether the token in the exam-environment-authorization-token header was issued.
func (h *ExamEnvironmentHandler) VerifyToken(c *gin.Context) {
	// A missing token is unverifiable like any other and is rejected with 403.
	msg, err := h.authService.VerifyToken(c.Request.Context(), middleware.ExtractToken(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired):
			response.Fail(c, http.StatusForbidden, response.ErrTokenExpired)
		case errors.Is(err, service.ErrTokenInvalid):
			response.Fail(c, http.StatusForbidden, response.ErrTokenInvalid)
		default:
			failInternal(c, err)
		}
		return
	}

	response.Success(c, http.StatusOK, msg)
}

// GenerateExam godoc
// POST /api/v1/exam-environment/exam/generate
// Starts a new attempt at the exam, or resumes the one in progress.
func (h *ExamEnvironmentHandler) GenerateExam(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrUnreachable)
		return
	}

	var req model.GenerateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// The binding tag already guarantees a UUID.
	examID := uuid.MustParse(req.ExamID)

	session, err := h.examService.GenerateExam(c.Request.Context(), userID, examID)
	if err != nil {
		writeExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, session)
}

// SubmitAttempt godoc
// POST /api/v1/exam-environment/exam/attempt
// Records the answers given so far on the latest attempt.
func (h *ExamEnvironmentHandler) SubmitAttempt(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrUnreachable)
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.examService.SubmitAttempt(c.Request.Context(), userID, &req); err != nil {
		writeExamError(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil)
}

// writeExamError maps exam environment errors onto statuses and codes.
func writeExamError(c *gin.Context, err error) {
	var invalid *examenv.ValidationError
	switch {
	case errors.As(err, &invalid):
		response.FailWithDetails(c, http.StatusBadRequest, response.ErrInvalidAttempt, invalid.Problems)
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, service.ErrPrerequisitesUnmet):
		response.Fail(c, http.StatusForbidden, response.ErrPrerequisitesUnmet)
	case errors.Is(err, service.ErrCooldownActive):
		response.FailWithDetails(c, http.StatusForbidden, response.ErrCooldownActive, []string{err.Error()})
	case errors.Is(err, service.ErrAttemptExpired):
		response.Fail(c, http.StatusForbidden, response.ErrAttemptExpired)
	case errors.Is(err, service.ErrGeneratedExamMissing):
		logError(c, err)
		response.Fail(c, http.StatusInternalServerError, response.ErrGeneratedExamAbsent)
	case errors.Is(err, examenv.ErrExamMismatch), errors.Is(err, examenv.ErrInvalidCatalog):
		logError(c, err)
		response.Fail(c, http.StatusInternalServerError, response.ErrIntegrity)
	case errors.Is(err, service.ErrNoAttempt), errors.Is(err, service.ErrUserNotFound):
		logError(c, err)
		response.Fail(c, http.StatusInternalServerError, response.ErrUnreachable)
	default:
		failInternal(c, err)
	}
}

func failInternal(c *gin.Context, err error) {
	logError(c, err)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

func logError(c *gin.Context, err error) {
	_ = c.Error(err)
	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("path", c.FullPath()).
		Msg("Request failed")
}
