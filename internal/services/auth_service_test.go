package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Calendar{},
		&models.CalendarMember{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	userRepo := repository.NewUserRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	return NewAuthService(userRepo, calendarRepo, nil)
}

func TestSignup_Validation(t *testing.T) {
	service := setupAuthService(t)

	_, err := service.Signup(SignupInput{Username: "a", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidUsername)

	_, err = service.Signup(SignupInput{Username: "日本語", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidUsername)

	_, err = service.Signup(SignupInput{Username: "valid.user_name-1", Password: "short"})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	service := setupAuthService(t)

	_, err := service.Signup(SignupInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	_, err = service.Signup(SignupInput{Username: "alice", Password: "othersecret"})
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestSignup_HashesPasswordAndSeedsAvatar(t *testing.T) {
	service := setupAuthService(t)

	user, err := service.Signup(SignupInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	require.NotEqual(t, "supersecret", user.PasswordHash)
	require.NotEmpty(t, user.AvatarSeed)
}

func TestLogin(t *testing.T) {
	service := setupAuthService(t)

	created, err := service.Signup(SignupInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)

	user, err := service.Login(LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	_, err = service.Login(LoginInput{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown users get the same error as bad passwords.
	_, err = service.Login(LoginInput{Username: "nobody", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	service := setupAuthService(t)

	user, err := service.Signup(SignupInput{Username: "before", Password: "supersecret"})
	require.NoError(t, err)

	newName := "after"
	updated, err := service.UpdateProfile(user.ID, UpdateProfileInput{Username: &newName})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Username)

	// Taken usernames are rejected.
	_, err = service.Signup(SignupInput{Username: "taken", Password: "supersecret"})
	require.NoError(t, err)
	taken := "taken"
	_, err = service.UpdateProfile(user.ID, UpdateProfileInput{Username: &taken})
	require.ErrorIs(t, err, ErrUsernameTaken)
}
