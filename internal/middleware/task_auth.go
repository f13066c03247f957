package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/database"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// RequireTaskAccess checks if the user has access to a task
// User must be an active member of the task's calendar
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get task ID from URL parameter
		taskIDStr := c.Param("id")
		taskID, err := strconv.ParseUint(taskIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid task ID",
			})
			c.Abort()
			return
		}

		// Get current user ID
		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		// Check if task exists and load relations
		var task models.Task
		if err := database.GetDB().
			Preload("Creator").
			Preload("Calendar").
			First(&task, taskID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Task not found",
			})
			c.Abort()
			return
		}

		// Check if user is an active member of the task's calendar
		var member models.CalendarMember
		err = database.GetDB().
			Where("calendar_id = ? AND user_id = ? AND status = ?", task.CalendarID, userID, models.StatusActive).
			First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking task existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Task not found",
			})
			c.Abort()
			return
		}

		c.Set("task", task)
		c.Next()
	}
}
