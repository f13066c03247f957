package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/realtime"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"github.com/yukikurage/shared-calendar-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidUsername      = errors.New("username must be 2-50 characters of letters, digits, '.', '_' or '-'")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// usernameRegexp mirrors the client-side rule: ASCII letters, digits
// and the three symbols, 2 to 50 characters.
var usernameRegexp = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,50}$`)

// AuthService handles authentication and profile business logic.
type AuthService struct {
	userRepo     repository.UserRepository
	calendarRepo repository.CalendarRepository
	publisher    realtime.Publisher
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, calendarRepo repository.CalendarRepository, publisher realtime.Publisher) *AuthService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &AuthService{
		userRepo:     userRepo,
		calendarRepo: calendarRepo,
		publisher:    publisher,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Password string
}

// Signup creates a new user. The personal default calendar is not
// created here; it is provisioned lazily on the first calendar fetch.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if !usernameRegexp.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	avatarSeed, err := utils.GenerateAvatarSeed()
	if err != nil {
		return nil, ErrFailedToCreateUser
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		AvatarSeed:   avatarSeed,
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, ErrFailedToCreateUser
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds the editable profile fields.
type UpdateProfileInput struct {
	Username   *string
	AvatarSeed *string
}

// UpdateProfile changes the username or avatar seed and announces the
// profile change to the user's active calendars so partners refetch.
func (s *AuthService) UpdateProfile(userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if !usernameRegexp.MatchString(username) {
			return nil, ErrInvalidUsername
		}
		if username != user.Username {
			if _, err := s.userRepo.FindByUsername(username); err == nil {
				return nil, ErrUsernameTaken
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			user.Username = username
		}
	}
	if input.AvatarSeed != nil {
		user.AvatarSeed = *input.AvatarSeed
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	calendarIDs, err := s.calendarRepo.ListActiveCalendarIDs(userID)
	if err == nil {
		for _, calendarID := range calendarIDs {
			s.publisher.Publish(realtime.ChangeEvent{
				Table:        realtime.TableProfiles,
				Action:       realtime.ActionUpdate,
				CalendarID:   calendarID,
				OriginUserID: userID,
			})
		}
	}

	return user, nil
}
