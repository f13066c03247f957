package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/dto"
	apierrors "github.com/yukikurage/shared-calendar-api/internal/errors"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/services"
	"github.com/yukikurage/shared-calendar-api/internal/utils"
)

// NotificationHandler serves the per-user activity log.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListNotifications returns a page of the user's notifications, newest first.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	entries, total, err := h.notificationService.List(userID, params)
	if err != nil {
		apierrors.InternalError(c, "Failed to list notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": dto.ToNotificationDTOs(entries),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(notificationID, userID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			apierrors.NotFound(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// MarkAllRead marks every notification of the user as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		apierrors.InternalError(c, "Failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read"})
}
