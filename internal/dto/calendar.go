package dto

import (
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// CalendarDTO represents a calendar in API responses
type CalendarDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// CalendarWithRoleDTO represents a calendar with the user's role
type CalendarWithRoleDTO struct {
	CalendarDTO
	Role models.MemberRole `json:"role"`
}

// CalendarMemberDTO represents an active member of a calendar
type CalendarMemberDTO struct {
	User     UserDTO           `json:"user"`
	Role     models.MemberRole `json:"role"`
	JoinedAt *time.Time        `json:"joined_at"`
}

// CalendarDetailDTO represents detailed calendar information
type CalendarDetailDTO struct {
	CalendarDTO
	Members  []CalendarMemberDTO `json:"members"`
	YourRole models.MemberRole   `json:"your_role"`
}

// InvitationDTO represents a pending invitation in API responses
type InvitationDTO struct {
	ID        uint64      `json:"id"`
	Calendar  CalendarDTO `json:"calendar"`
	InvitedBy UserDTO     `json:"invited_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// ToCalendarDTO converts a Calendar model to CalendarDTO
func ToCalendarDTO(calendar models.Calendar) CalendarDTO {
	return CalendarDTO{
		ID:   calendar.ID,
		Name: calendar.Name,
	}
}

// ToCalendarWithRoleDTO converts a calendar membership to DTO with role
func ToCalendarWithRoleDTO(member models.CalendarMember) CalendarWithRoleDTO {
	return CalendarWithRoleDTO{
		CalendarDTO: ToCalendarDTO(member.Calendar),
		Role:        member.Role,
	}
}

// ToCalendarMemberDTO converts a member to DTO
func ToCalendarMemberDTO(member models.CalendarMember) CalendarMemberDTO {
	return CalendarMemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToCalendarDetailDTO converts a calendar with members to detailed DTO
func ToCalendarDetailDTO(calendar models.Calendar, members []models.CalendarMember, yourRole models.MemberRole) CalendarDetailDTO {
	memberDTOs := make([]CalendarMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToCalendarMemberDTO(member)
	}

	return CalendarDetailDTO{
		CalendarDTO: ToCalendarDTO(calendar),
		Members:     memberDTOs,
		YourRole:    yourRole,
	}
}

// ToInvitationDTO converts a pending membership to InvitationDTO
func ToInvitationDTO(member models.CalendarMember) InvitationDTO {
	return InvitationDTO{
		ID:        member.ID,
		Calendar:  ToCalendarDTO(member.Calendar),
		InvitedBy: ToUserDTO(member.Inviter),
		CreatedAt: member.CreatedAt,
	}
}

// ToInvitationDTOs converts a slice of pending memberships
func ToInvitationDTOs(members []models.CalendarMember) []InvitationDTO {
	dtos := make([]InvitationDTO, len(members))
	for i, member := range members {
		dtos[i] = ToInvitationDTO(member)
	}
	return dtos
}
