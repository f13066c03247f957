package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/dto"
	apierrors "github.com/yukikurage/shared-calendar-api/internal/errors"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/services"
)

// ReportHandler serves the weekly completed-task report.
type ReportHandler struct {
	taskService *services.TaskService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(taskService *services.TaskService) *ReportHandler {
	return &ReportHandler{
		taskService: taskService,
	}
}

// WeeklyReport returns the current week's completed tasks grouped by
// date and creator.
func (h *ReportHandler) WeeklyReport(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	report, err := h.taskService.WeeklyReport(calendar.ID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWeeklyReportResponse(report))
}

// WeeklyReportTranscript returns the report as copy-ready plain text.
func (h *ReportHandler) WeeklyReportTranscript(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	report, err := h.taskService.WeeklyReport(calendar.ID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.String(http.StatusOK, report.Transcript())
}
