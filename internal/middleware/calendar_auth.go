package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/database"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// RequireCalendarAccess checks if the user is an active member of the calendar
func RequireCalendarAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get calendar ID from URL parameter
		calendarIDStr := c.Param("id")
		calendarID, err := strconv.ParseUint(calendarIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid calendar ID",
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

		// Check if calendar exists
		var calendar models.Calendar
		if err := database.GetDB().First(&calendar, calendarID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Calendar not found",
			})
			c.Abort()
			return
		}

		// A pending invitee can see the invitation but not the calendar
		var member models.CalendarMember
		err = database.GetDB().
			Where("calendar_id = ? AND user_id = ? AND status = ?", calendarID, userID, models.StatusActive).
			First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking calendar existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Calendar not found",
			})
			c.Abort()
			return
		}

		// Store calendar and membership in context
		c.Set("calendar", calendar)
		c.Set("calendar_member", member)
		c.Next()
	}
}

// RequireCalendarOwner checks if the user is the owner of the calendar
func RequireCalendarOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get calendar member from context (set by RequireCalendarAccess)
		memberInterface, exists := c.Get("calendar_member")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Calendar access required",
			})
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.CalendarMember)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid calendar member data",
			})
			c.Abort()
			return
		}

		// Check if user is owner
		if member.Role != models.RoleOwner {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Only the calendar owner can perform this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
