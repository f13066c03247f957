package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apierrors "github.com/yukikurage/shared-calendar-api/internal/errors"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/realtime"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session cookie auth happens before the upgrade; cross-origin
	// browsers carry the cookie, so the origin itself is not checked.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RealtimeHandler upgrades authenticated requests into change-feed
// subscriptions.
type RealtimeHandler struct {
	hub          *realtime.Hub
	calendarRepo repository.CalendarRepository
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(hub *realtime.Hub, calendarRepo repository.CalendarRepository) *RealtimeHandler {
	return &RealtimeHandler{
		hub:          hub,
		calendarRepo: calendarRepo,
	}
}

// Subscribe upgrades the connection and registers it for the change
// feed of the calendar named by the calendar_id query parameter. The
// caller must be an active member of that calendar.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	calendarID, err := strconv.ParseUint(c.Query("calendar_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid calendar ID")
		return
	}

	member, err := h.calendarRepo.FindMember(calendarID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "Calendar not found")
			return
		}
		apierrors.InternalError(c, "Failed to verify membership")
		return
	}
	if member.Status != models.StatusActive {
		apierrors.NotFound(c, "Calendar not found")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	h.hub.Subscribe(realtime.NewClient(conn, userID, calendarID))
}
