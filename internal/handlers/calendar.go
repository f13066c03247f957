package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/shared-calendar-api/internal/dto"
	apierrors "github.com/yukikurage/shared-calendar-api/internal/errors"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/services"
)

// CalendarHandler coordinates calendar and sharing HTTP handlers.
type CalendarHandler struct {
	membershipService *services.MembershipService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(membershipService *services.MembershipService) *CalendarHandler {
	return &CalendarHandler{
		membershipService: membershipService,
	}
}

// CreateCalendar creates a calendar owned by the current user.
func (h *CalendarHandler) CreateCalendar(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateCalendarRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	calendar, err := h.membershipService.CreateCalendar(services.CreateCalendarInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCalendarDTO(*calendar))
}

// ListCalendars returns the current user's calendars with roles. A user
// with no calendars gets a personal default calendar provisioned here.
func (h *CalendarHandler) ListCalendars(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.membershipService.ListCalendars(userID)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	calendars := make([]dto.CalendarWithRoleDTO, len(memberships))
	for i, membership := range memberships {
		calendars[i] = dto.ToCalendarWithRoleDTO(membership)
	}

	c.JSON(http.StatusOK, gin.H{"calendars": calendars})
}

// GetCalendar returns a calendar with its active members.
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	calendar := c.MustGet("calendar").(models.Calendar)
	member := c.MustGet("calendar_member").(models.CalendarMember)

	_, members, err := h.membershipService.GetCalendarWithMembers(calendar.ID)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCalendarDetailDTO(calendar, members, member.Role))
}

// RenameCalendar updates the calendar name.
func (h *CalendarHandler) RenameCalendar(c *gin.Context) {
	calendar := c.MustGet("calendar").(models.Calendar)

	type RenameRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.membershipService.RenameCalendar(calendar.ID, req.Name)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCalendarDTO(*updated))
}

// Invite creates a pending invitation for a user, looked up by username.
func (h *CalendarHandler) Invite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	type InviteRequest struct {
		Username string `json:"username" binding:"required"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.membershipService.Invite(services.InviteInput{
		CalendarID:      calendar.ID,
		InviterID:       userID,
		InviteeUsername: req.Username,
	})
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":     member.ID,
		"status": member.Status,
	})
}

// ListMembers returns the calendar's active members besides the caller.
func (h *CalendarHandler) ListMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	calendar := c.MustGet("calendar").(models.Calendar)

	members, err := h.membershipService.ActiveMembers(calendar.ID, userID)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	memberDTOs := make([]dto.CalendarMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = dto.ToCalendarMemberDTO(member)
	}

	c.JSON(http.StatusOK, gin.H{"members": memberDTOs})
}

// PendingInvitations lists invitations addressed to the current user.
func (h *CalendarHandler) PendingInvitations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	invitations, err := h.membershipService.PendingInvitations(userID)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

// Approve accepts a pending invitation.
func (h *CalendarHandler) Approve(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	membershipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := h.membershipService.Approve(membershipID, userID)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        member.ID,
		"status":    member.Status,
		"joined_at": member.JoinedAt,
	})
}

// Reject declines or retracts a pending invitation.
func (h *CalendarHandler) Reject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	membershipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.membershipService.Reject(membershipID, userID); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invitation removed"})
}

// Unshare removes an active membership from a calendar.
func (h *CalendarHandler) Unshare(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	membershipID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.membershipService.Unshare(membershipID, userID); err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sharing removed"})
}

func respondMembershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCalendarName):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrSelfInvite):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInviteeNotFound),
		errors.Is(err, services.ErrCalendarNotFound),
		errors.Is(err, services.ErrMembershipNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyShared):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotInvitee),
		errors.Is(err, services.ErrNotInviteParticipant),
		errors.Is(err, services.ErrNotCalendarMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrCalendarBootstrapFailed):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
