package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/realtime"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCalendarNotFound        = errors.New("calendar not found")
	ErrInvalidCalendarName     = errors.New("calendar name cannot be empty")
	ErrInviteeNotFound         = errors.New("no user with that username")
	ErrSelfInvite              = errors.New("cannot invite yourself")
	ErrAlreadyShared           = errors.New("already requested or already shared")
	ErrMembershipNotFound      = errors.New("membership not found")
	ErrNotInvitee              = errors.New("only the invited user can accept")
	ErrNotInviteParticipant    = errors.New("only the invitee or the inviter can cancel")
	ErrNotCalendarMember       = errors.New("user is not an active member of the calendar")
	ErrCalendarBootstrapFailed = errors.New("failed to load or provision calendars")
)

// MembershipService drives the calendar sharing state machine:
// no row -> pending (invite) -> active (approve), with deletion on
// reject and unshare. It also owns the calendar-list bootstrap with
// its default-calendar fallback.
type MembershipService struct {
	calendarRepo repository.CalendarRepository
	userRepo     repository.UserRepository
	notifier     *NotificationService
	publisher    realtime.Publisher
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(calendarRepo repository.CalendarRepository, userRepo repository.UserRepository, notifier *NotificationService, publisher realtime.Publisher) *MembershipService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &MembershipService{
		calendarRepo: calendarRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		publisher:    publisher,
	}
}

// CreateCalendarInput represents parameters to create a new calendar.
type CreateCalendarInput struct {
	Name    string
	OwnerID uint64
}

// CreateCalendar creates a calendar with the owner's membership already active.
func (s *MembershipService) CreateCalendar(input CreateCalendarInput) (*models.Calendar, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidCalendarName
	}

	calendar := &models.Calendar{
		Name:      input.Name,
		CreatedBy: input.OwnerID,
	}

	if err := s.calendarRepo.CreateWithOwner(calendar, input.OwnerID); err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	return calendar, nil
}

// ListCalendars returns the calendars reachable through the user's
// active memberships. The fetch runs under the bootstrap state machine:
// a transient failure is retried once, and an empty (or unrecoverable)
// result falls back to auto-provisioning a personal default calendar.
func (s *MembershipService) ListCalendars(userID uint64) ([]models.CalendarMember, error) {
	memberships, _, err := s.listCalendarsWithBootstrap(userID)
	return memberships, err
}

func (s *MembershipService) listCalendarsWithBootstrap(userID uint64) ([]models.CalendarMember, *Bootstrap, error) {
	boot := NewBootstrap(constants.MaxBootstrapRetries)

	var memberships []models.CalendarMember
	var err error
	for {
		boot.Begin()
		memberships, err = s.calendarRepo.ListActiveMembershipsOf(userID)
		if err == nil {
			break
		}
		if !boot.Retry() {
			// Retry budget spent; treat as empty and try provisioning.
			memberships = nil
			break
		}
	}

	if len(memberships) == 0 {
		if provErr := s.provisionDefaultCalendar(userID); provErr != nil {
			boot.Fail()
			return nil, boot, ErrCalendarBootstrapFailed
		}
		memberships, err = s.calendarRepo.ListActiveMembershipsOf(userID)
		if err != nil {
			boot.Fail()
			return nil, boot, ErrCalendarBootstrapFailed
		}
	}

	boot.Ready()
	return memberships, boot, nil
}

func (s *MembershipService) provisionDefaultCalendar(userID uint64) error {
	calendar := &models.Calendar{
		Name:      constants.DefaultCalendarName,
		CreatedBy: userID,
	}
	return s.calendarRepo.CreateWithOwner(calendar, userID)
}

// GetCalendarWithMembers returns a calendar and its active members.
func (s *MembershipService) GetCalendarWithMembers(calendarID uint64) (*models.Calendar, []models.CalendarMember, error) {
	calendar, err := s.calendarRepo.FindByID(calendarID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCalendarNotFound
		}
		return nil, nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	members, err := s.calendarRepo.ListActiveMembers(calendarID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list calendar members: %w", err)
	}

	return calendar, members, nil
}

// RenameCalendar updates a calendar's name.
func (s *MembershipService) RenameCalendar(calendarID uint64, name string) (*models.Calendar, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidCalendarName
	}

	calendar, err := s.calendarRepo.FindByID(calendarID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCalendarNotFound
		}
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	calendar.Name = name
	if err := s.calendarRepo.Update(calendar); err != nil {
		return nil, fmt.Errorf("failed to update calendar: %w", err)
	}

	return calendar, nil
}

// InviteInput represents an invitation of a user, by username, to a calendar.
type InviteInput struct {
	CalendarID      uint64
	InviterID       uint64
	InviteeUsername string
}

// Invite creates a pending membership for the invitee. A second invite
// for the same (calendar, user) pair fails with ErrAlreadyShared
// whether the existing row is pending or active.
func (s *MembershipService) Invite(input InviteInput) (*models.CalendarMember, error) {
	if err := s.ensureActiveMember(input.CalendarID, input.InviterID); err != nil {
		return nil, err
	}

	invitee, err := s.userRepo.FindByUsername(strings.TrimSpace(input.InviteeUsername))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteeNotFound
		}
		return nil, fmt.Errorf("failed to resolve username: %w", err)
	}

	if invitee.ID == input.InviterID {
		return nil, ErrSelfInvite
	}

	if _, err := s.calendarRepo.FindMember(input.CalendarID, invitee.ID); err == nil {
		return nil, ErrAlreadyShared
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	member := &models.CalendarMember{
		CalendarID: input.CalendarID,
		UserID:     invitee.ID,
		Role:       models.RoleMember,
		Status:     models.StatusPending,
		InvitedBy:  input.InviterID,
	}

	if err := s.calendarRepo.AddMember(member); err != nil {
		// A concurrent invite can slip past the check above and land on
		// the unique (calendar, user) index.
		return nil, ErrAlreadyShared
	}

	s.publisher.Publish(realtime.ChangeEvent{
		Table:        realtime.TableMemberships,
		Action:       realtime.ActionInsert,
		TargetUserID: invitee.ID,
		OriginUserID: input.InviterID,
	})

	if s.notifier != nil {
		if inviter, err := s.userRepo.FindByID(input.InviterID); err == nil {
			if calendar, err := s.calendarRepo.FindByID(input.CalendarID); err == nil {
				message := fmt.Sprintf("%sがカレンダー「%s」に招待しました", inviter.Username, calendar.Name)
				_ = s.notifier.NotifyUser(invitee.ID, input.InviterID, message)
			}
		}
	}

	return member, nil
}

// Approve transitions a pending membership to active. Only the invitee
// may approve. The approver should refetch calendars and tasks after
// this call; the published event tells other members to do the same.
func (s *MembershipService) Approve(membershipID, actorID uint64) (*models.CalendarMember, error) {
	member, err := s.calendarRepo.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}

	if member.Status != models.StatusPending {
		return nil, ErrMembershipNotFound
	}
	if member.UserID != actorID {
		return nil, ErrNotInvitee
	}

	now := time.Now()
	member.Status = models.StatusActive
	member.JoinedAt = &now

	if err := s.calendarRepo.UpdateMember(member); err != nil {
		return nil, fmt.Errorf("failed to activate membership: %w", err)
	}

	s.publisher.Publish(realtime.ChangeEvent{
		Table:        realtime.TableMemberships,
		Action:       realtime.ActionUpdate,
		CalendarID:   member.CalendarID,
		OriginUserID: actorID,
	})

	return member, nil
}

// Reject deletes a pending membership. The invitee declines or the
// inviter retracts; both end in the same row deletion.
func (s *MembershipService) Reject(membershipID, actorID uint64) error {
	member, err := s.calendarRepo.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if member.Status != models.StatusPending {
		return ErrMembershipNotFound
	}
	if member.UserID != actorID && member.InvitedBy != actorID {
		return ErrNotInviteParticipant
	}

	if err := s.calendarRepo.RemoveMember(member.ID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	s.publisher.Publish(realtime.ChangeEvent{
		Table:        realtime.TableMemberships,
		Action:       realtime.ActionDelete,
		TargetUserID: member.UserID,
		OriginUserID: actorID,
	})

	return nil
}

// Unshare deletes an active membership. Any active member of the
// calendar may remove the row, covering both "I leave" and "I stop
// sharing with you".
func (s *MembershipService) Unshare(membershipID, actorID uint64) error {
	member, err := s.calendarRepo.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if member.Status != models.StatusActive {
		return ErrMembershipNotFound
	}
	if err := s.ensureActiveMember(member.CalendarID, actorID); err != nil {
		return err
	}

	if err := s.calendarRepo.RemoveMember(member.ID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	s.publisher.Publish(realtime.ChangeEvent{
		Table:        realtime.TableMemberships,
		Action:       realtime.ActionDelete,
		CalendarID:   member.CalendarID,
		OriginUserID: actorID,
	})

	return nil
}

// PendingInvitations lists pending invitations addressed to the user,
// with the inviter and calendar loaded for display.
func (s *MembershipService) PendingInvitations(userID uint64) ([]models.CalendarMember, error) {
	invitations, err := s.calendarRepo.ListPendingForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// ActiveMembers lists a calendar's active members excluding the given user.
func (s *MembershipService) ActiveMembers(calendarID, excludeUserID uint64) ([]models.CalendarMember, error) {
	members, err := s.calendarRepo.ListActiveMembers(calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	result := make([]models.CalendarMember, 0, len(members))
	for _, m := range members {
		if m.UserID == excludeUserID {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (s *MembershipService) ensureActiveMember(calendarID, userID uint64) error {
	member, err := s.calendarRepo.FindMember(calendarID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotCalendarMember
		}
		return fmt.Errorf("failed to verify membership: %w", err)
	}
	if member.Status != models.StatusActive {
		return ErrNotCalendarMember
	}
	return nil
}
