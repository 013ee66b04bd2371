package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examenv-backend/internal/middleware"
	"github.com/stemsi/examenv-backend/internal/response"
	"github.com/stemsi/examenv-backend/internal/service"
)

// ScreenshotHandler accepts screenshots from the exam environment app.
type ScreenshotHandler struct {
	screenshotService *service.ScreenshotService
}

// NewScreenshotHandler creates a new ScreenshotHandler.
func NewScreenshotHandler(screenshotService *service.ScreenshotService) *ScreenshotHandler {
	return &ScreenshotHandler{screenshotService: screenshotService}
}

// Upload godoc
// POST /api/v1/exam-environment/screenshot
// Stores the multipart "screenshot" file for the authenticated user.
func (h *ScreenshotHandler) Upload(c *gin.Context) {
	if !h.screenshotService.Enabled() {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrScreenshotsDisabled)
		return
	}

	file, header, err := c.Request.FormFile("screenshot")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	key, err := h.screenshotService.Save(c.Request.Context(), middleware.GetUserID(c), file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			failInternal(c, err)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"key": key})
}
