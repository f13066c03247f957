package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/database"
	"github.com/yukikurage/shared-calendar-api/internal/middleware"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"github.com/yukikurage/shared-calendar-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type calendarTestEnv struct {
	db         *gorm.DB
	handler    *CalendarHandler
	membership *services.MembershipService
	users      repository.UserRepository
}

func setupCalendarTestEnv(t *testing.T) calendarTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Calendar{},
		&models.CalendarMember{},
		&models.Task{},
		&models.NotificationLog{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	notifier := services.NewNotificationService(notificationRepo, calendarRepo, nil)
	membership := services.NewMembershipService(calendarRepo, userRepo, notifier, nil)
	handler := NewCalendarHandler(membership)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return calendarTestEnv{
		db:         db,
		handler:    handler,
		membership: membership,
		users:      userRepo,
	}
}

func (env calendarTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, env.users.Create(user))
	return user
}

// newCalendarRouter builds a router authenticated as the given user.
func (env calendarTestEnv) newCalendarRouter(userID uint64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
	})

	r.POST("/api/calendars", env.handler.CreateCalendar)
	r.GET("/api/calendars", env.handler.ListCalendars)
	r.GET("/api/calendars/:id", middleware.RequireCalendarAccess(), env.handler.GetCalendar)
	r.POST("/api/calendars/:id/invite", middleware.RequireCalendarAccess(), env.handler.Invite)
	r.GET("/api/invitations", env.handler.PendingInvitations)
	r.POST("/api/invitations/:id/approve", env.handler.Approve)
	r.POST("/api/invitations/:id/reject", env.handler.Reject)

	return r
}

func TestCalendarHandler_CreateAndGet(t *testing.T) {
	env := setupCalendarTestEnv(t)
	owner := env.createUser(t, "owner")
	r := env.newCalendarRouter(owner.ID)

	body, err := json.Marshal(map[string]string{"name": "家族カレンダー"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/calendars", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "家族カレンダー", created.Name)

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/calendars/%d", created.ID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Name     string `json:"name"`
		YourRole string `json:"your_role"`
		Members  []struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Equal(t, "家族カレンダー", detail.Name)
	require.Equal(t, "owner", detail.YourRole)
	require.Len(t, detail.Members, 1)
}

func TestCalendarHandler_GetCalendar_NonMemberGets404(t *testing.T) {
	env := setupCalendarTestEnv(t)
	owner := env.createUser(t, "owner")
	stranger := env.createUser(t, "stranger")

	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "private", OwnerID: owner.ID})
	require.NoError(t, err)

	r := env.newCalendarRouter(stranger.ID)
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/calendars/%d", calendar.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Existence is not leaked to non-members.
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalendarHandler_ListCalendars_ProvisionsDefault(t *testing.T) {
	env := setupCalendarTestEnv(t)
	user := env.createUser(t, "fresh")
	r := env.newCalendarRouter(user.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/calendars", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Calendars []struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"calendars"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Calendars, 1)
	require.Equal(t, constants.DefaultCalendarName, response.Calendars[0].Name)
	require.Equal(t, "owner", response.Calendars[0].Role)
}

func TestCalendarHandler_InviteFlow(t *testing.T) {
	env := setupCalendarTestEnv(t)
	owner := env.createUser(t, "owner")
	partner := env.createUser(t, "partner")

	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "shared", OwnerID: owner.ID})
	require.NoError(t, err)

	// Owner invites partner by username.
	ownerRouter := env.newCalendarRouter(owner.ID)
	body, err := json.Marshal(map[string]string{"username": "partner"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/calendars/%d/invite", calendar.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ownerRouter.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var invite struct {
		ID     uint64 `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invite))
	require.Equal(t, "pending", invite.Status)

	// A second invite conflicts.
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/calendars/%d/invite", calendar.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	ownerRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusConflict, w.Code)

	// Partner sees and approves the invitation.
	partnerRouter := env.newCalendarRouter(partner.ID)
	req = httptest.NewRequest(http.MethodGet, "/api/invitations", nil)
	w = httptest.NewRecorder()
	partnerRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var invitations struct {
		Invitations []struct {
			ID        uint64 `json:"id"`
			InvitedBy struct {
				Username string `json:"username"`
			} `json:"invited_by"`
		} `json:"invitations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invitations))
	require.Len(t, invitations.Invitations, 1)
	require.Equal(t, "owner", invitations.Invitations[0].InvitedBy.Username)

	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/invitations/%d/approve", invite.ID), nil)
	w = httptest.NewRecorder()
	partnerRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Partner can now open the calendar.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/calendars/%d", calendar.ID), nil)
	w = httptest.NewRecorder()
	partnerRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCalendarHandler_RejectInvitation(t *testing.T) {
	env := setupCalendarTestEnv(t)
	owner := env.createUser(t, "owner")
	partner := env.createUser(t, "partner")

	calendar, err := env.membership.CreateCalendar(services.CreateCalendarInput{Name: "shared", OwnerID: owner.ID})
	require.NoError(t, err)

	member, err := env.membership.Invite(services.InviteInput{
		CalendarID:      calendar.ID,
		InviterID:       owner.ID,
		InviteeUsername: "partner",
	})
	require.NoError(t, err)

	partnerRouter := env.newCalendarRouter(partner.ID)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/invitations/%d/reject", member.ID), nil)
	w := httptest.NewRecorder()
	partnerRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The calendar stays inaccessible.
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/calendars/%d", calendar.ID), nil)
	w = httptest.NewRecorder()
	partnerRouter.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
