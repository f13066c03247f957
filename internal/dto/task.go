package dto

import (
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/views"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                 uint64          `json:"id"`
	CalendarID         uint64          `json:"calendar_id"`
	Title              string          `json:"title"`
	Date               string          `json:"date"`
	Completed          bool            `json:"completed"`
	Priority           models.Priority `json:"priority"`
	Position           int             `json:"position"`
	ReminderTime       *string         `json:"reminder_time"`
	ReminderDate       *string         `json:"reminder_date"`
	IsMonthlyRecurring bool            `json:"is_monthly_recurring"`
	CreatorID          uint64          `json:"creator_id"`
	CreatedByUsername  string          `json:"created_by_username"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Creator            *UserDTO        `json:"creator,omitempty"`
}

// DayViewResponse represents one day's task list plus per-creator
// colors. Colors is omitted when fewer than two members created tasks.
type DayViewResponse struct {
	Date   string            `json:"date"`
	Tasks  []TaskDTO         `json:"tasks"`
	Colors map[string]string `json:"colors,omitempty"`
}

// TaskListResponse represents a calendar's tasks
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:                 task.ID,
		CalendarID:         task.CalendarID,
		Title:              task.Title,
		Date:               task.Date.Format("2006-01-02"),
		Completed:          task.Completed,
		Priority:           task.Priority,
		Position:           task.Position,
		ReminderTime:       task.ReminderTime,
		IsMonthlyRecurring: task.IsMonthlyRecurring,
		CreatorID:          task.CreatorID,
		CreatedByUsername:  task.CreatedByUsername,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}

	if task.ReminderDate != nil {
		d := task.ReminderDate.Format("2006-01-02")
		dto.ReminderDate = &d
	}

	// Include creator if preloaded
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	dtos := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		dtos[i] = ToTaskDTO(task)
	}
	return dtos
}

// ToDayViewResponse converts a day's sorted tasks and color map
func ToDayViewResponse(day time.Time, tasks []models.Task, colors map[string]string) DayViewResponse {
	return DayViewResponse{
		Date:   day.Format("2006-01-02"),
		Tasks:  ToTaskDTOs(tasks),
		Colors: colors,
	}
}

// ToWeeklyReportResponse flattens a weekly report into response shape
func ToWeeklyReportResponse(report views.WeeklyReport) WeeklyReportResponse {
	days := make([]ReportDayDTO, len(report.Days))
	for i, day := range report.Days {
		groups := make([]ReportGroupDTO, len(day.Groups))
		for j, group := range day.Groups {
			groups[j] = ReportGroupDTO{
				Creator: group.Creator,
				Tasks:   ToTaskDTOs(group.Tasks),
			}
		}
		days[i] = ReportDayDTO{
			Date:   day.Date.Format("2006-01-02"),
			Groups: groups,
		}
	}

	return WeeklyReportResponse{
		WeekStart: report.WeekStart.Format("2006-01-02"),
		WeekEnd:   report.WeekEnd.AddDate(0, 0, -1).Format("2006-01-02"),
		Total:     report.Total,
		ByPriority: map[string]int{
			string(models.PriorityHigh):   report.ByPriority[models.PriorityHigh],
			string(models.PriorityMedium): report.ByPriority[models.PriorityMedium],
			string(models.PriorityLow):    report.ByPriority[models.PriorityLow],
		},
		Days: days,
	}
}

type WeeklyReportResponse struct {
	WeekStart  string         `json:"week_start"`
	WeekEnd    string         `json:"week_end"`
	Total      int            `json:"total"`
	ByPriority map[string]int `json:"by_priority"`
	Days       []ReportDayDTO `json:"days"`
}

type ReportDayDTO struct {
	Date   string           `json:"date"`
	Groups []ReportGroupDTO `json:"groups"`
}

type ReportGroupDTO struct {
	Creator string    `json:"creator"`
	Tasks   []TaskDTO `json:"tasks"`
}
