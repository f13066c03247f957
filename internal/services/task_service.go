package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
	"github.com/yukikurage/shared-calendar-api/internal/realtime"
	"github.com/yukikurage/shared-calendar-api/internal/recurrence"
	"github.com/yukikurage/shared-calendar-api/internal/repository"
	"github.com/yukikurage/shared-calendar-api/internal/views"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrNotTaskCreator       = errors.New("only the task creator can perform this action")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleEmpty           = errors.New("title cannot be empty")
	ErrInvalidPriority      = errors.New("priority must be high, medium or low")
	ErrInvalidReminderTime  = errors.New("reminder time must be in HH:MM format")
	ErrInvalidReminderDay   = errors.New("reminder day must be 1-31 or 0 for the last day")
	ErrTaskCalendarMismatch = errors.New("task does not belong to the given calendar")
)

// TaskService handles task business logic. Every mutation fans a log
// message out to the calendar's active members and publishes a change
// event so other sessions refetch.
type TaskService struct {
	taskRepo     repository.TaskRepository
	calendarRepo repository.CalendarRepository
	userRepo     repository.UserRepository
	notifier     *NotificationService
	publisher    realtime.Publisher
	now          func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, calendarRepo repository.CalendarRepository, userRepo repository.UserRepository, notifier *NotificationService, publisher realtime.Publisher) *TaskService {
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &TaskService{
		taskRepo:     taskRepo,
		calendarRepo: calendarRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		publisher:    publisher,
		now:          time.Now,
	}
}

// ListTasks returns all tasks of a calendar, date ascending. Per-day
// display order is derived in the views package.
func (s *TaskService) ListTasks(calendarID, userID uint64) ([]models.Task, error) {
	if err := s.ensureActiveMember(calendarID, userID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByCalendar(calendarID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	CalendarID   uint64
	CreatorID    uint64
	Title        string
	Date         time.Time
	Priority     models.Priority
	ReminderTime *string
	ReminderDate *time.Time
	// ReminderDay schedules a monthly recurring reminder on a day of
	// month (1-31, or 0 meaning the last day). When set it wins over
	// the other reminder fields.
	ReminderDay *int
}

// CreateTask creates a task at the top of its day bucket (position 0,
// no renumbering of siblings).
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if input.ReminderTime != nil {
		if _, err := time.Parse("15:04", *input.ReminderTime); err != nil {
			return nil, ErrInvalidReminderTime
		}
	}

	if err := s.ensureActiveMember(input.CalendarID, input.CreatorID); err != nil {
		return nil, err
	}

	creator, err := s.userRepo.FindByID(input.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find creator: %w", err)
	}

	task := &models.Task{
		CalendarID:        input.CalendarID,
		CreatorID:         input.CreatorID,
		CreatedByUsername: creator.Username,
		Title:             input.Title,
		Date:              recurrence.DateOnly(input.Date),
		Priority:          input.Priority,
		Position:          0,
		ReminderTime:      input.ReminderTime,
		ReminderDate:      input.ReminderDate,
	}

	if input.ReminderDay != nil {
		if *input.ReminderDay > 31 {
			return nil, ErrInvalidReminderDay
		}
		next := recurrence.NextOccurrence(*input.ReminderDay, s.now())
		task.Date = next
		task.ReminderDate = &next
		task.IsMonthlyRecurring = true
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.announce(task, input.CreatorID, realtime.ActionInsert,
		fmt.Sprintf("%sが「%s」を追加しました", creator.Username, task.Title))

	return task, nil
}

// ToggleCompleted flips a task's completion state. Completing a monthly
// recurring task also inserts its next occurrence; the completed row is
// kept so the completion history accumulates.
func (s *TaskService) ToggleCompleted(taskID, actorID uint64) (*models.Task, error) {
	task, err := s.findAccessibleTask(taskID, actorID)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	actorName := s.usernameOf(actorID)
	if task.Completed {
		s.announce(task, actorID, realtime.ActionUpdate,
			fmt.Sprintf("%sが「%s」を完了しました", actorName, task.Title))

		if task.IsMonthlyRecurring {
			next := recurrence.NextInstance(*task)
			if err := s.taskRepo.Create(&next); err != nil {
				return nil, fmt.Errorf("failed to create next occurrence: %w", err)
			}
			s.publisher.Publish(realtime.ChangeEvent{
				Table:        realtime.TableTasks,
				Action:       realtime.ActionInsert,
				CalendarID:   next.CalendarID,
				OriginUserID: actorID,
			})
		}
	} else {
		s.announce(task, actorID, realtime.ActionUpdate,
			fmt.Sprintf("%sが「%s」を未完了に戻しました", actorName, task.Title))
	}

	return task, nil
}

// UpdateTaskInput represents a partial update of a task.
type UpdateTaskInput struct {
	Title              *string
	Priority           *models.Priority
	ReminderTime       *string
	ClearReminderTime  bool
	ReminderDate       *time.Time
	ClearReminderDate  bool
	IsMonthlyRecurring *bool
}

// UpdateTask patches task fields. A priority change is fanned out to
// the calendar members like other mutating actions.
func (s *TaskService) UpdateTask(taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findAccessibleTask(taskID, actorID)
	if err != nil {
		return nil, err
	}

	priorityChanged := false

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		priorityChanged = task.Priority != *input.Priority
		task.Priority = *input.Priority
	}
	if input.ClearReminderTime {
		task.ReminderTime = nil
	} else if input.ReminderTime != nil {
		if _, err := time.Parse("15:04", *input.ReminderTime); err != nil {
			return nil, ErrInvalidReminderTime
		}
		task.ReminderTime = input.ReminderTime
	}
	if input.ClearReminderDate {
		task.ReminderDate = nil
	} else if input.ReminderDate != nil {
		task.ReminderDate = input.ReminderDate
	}
	if input.IsMonthlyRecurring != nil {
		task.IsMonthlyRecurring = *input.IsMonthlyRecurring
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if priorityChanged {
		s.announce(task, actorID, realtime.ActionUpdate,
			fmt.Sprintf("%sが「%s」の優先度を%sに変更しました",
				s.usernameOf(actorID), task.Title, task.Priority.Label()))
	} else {
		s.publisher.Publish(realtime.ChangeEvent{
			Table:        realtime.TableTasks,
			Action:       realtime.ActionUpdate,
			CalendarID:   task.CalendarID,
			OriginUserID: actorID,
		})
	}

	return task, nil
}

// DeleteTask deletes a task. Only the creator may delete.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.findAccessibleTask(taskID, actorID)
	if err != nil {
		return err
	}

	if task.CreatorID != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.announce(task, actorID, realtime.ActionDelete,
		fmt.Sprintf("%sが「%s」を削除しました", s.usernameOf(actorID), task.Title))

	return nil
}

// ReorderInput is the full ordered task list of one day after a move.
type ReorderInput struct {
	CalendarID uint64
	ActorID    uint64
	TaskIDs    []uint64
}

// ReorderTasks persists position = index for the tasks the acting user
// owns. Rows owned by other members are left untouched: a member cannot
// renumber someone else's rows, so a mixed-ownership day can hold
// diverging positions until each owner's client persists its own
// subset. Returns the number of rows written.
func (s *TaskService) ReorderTasks(input ReorderInput) (int, error) {
	if err := s.ensureActiveMember(input.CalendarID, input.ActorID); err != nil {
		return 0, err
	}

	persisted := 0
	for index, taskID := range input.TaskIDs {
		task, err := s.taskRepo.FindByID(taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return persisted, ErrTaskNotFound
			}
			return persisted, fmt.Errorf("failed to find task: %w", err)
		}
		if task.CalendarID != input.CalendarID {
			return persisted, ErrTaskCalendarMismatch
		}
		if task.CreatorID != input.ActorID {
			continue
		}
		if err := s.taskRepo.UpdatePosition(taskID, index); err != nil {
			return persisted, fmt.Errorf("failed to update position: %w", err)
		}
		persisted++
	}

	if persisted > 0 {
		s.publisher.Publish(realtime.ChangeEvent{
			Table:        realtime.TableTasks,
			Action:       realtime.ActionUpdate,
			CalendarID:   input.CalendarID,
			OriginUserID: input.ActorID,
		})
	}

	return persisted, nil
}

// ListReminders returns the user's incomplete tasks that carry a
// reminder, across all active calendars. Monthly recurring tasks with
// the same title collapse to the single most-future instance.
func (s *TaskService) ListReminders(userID uint64) ([]models.Task, error) {
	calendarIDs, err := s.calendarRepo.ListActiveCalendarIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	tasks, err := s.taskRepo.ListIncompleteByCalendars(calendarIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	var withReminder []models.Task
	for _, t := range tasks {
		if t.ReminderKind() != models.ReminderNone {
			withReminder = append(withReminder, t)
		}
	}

	return recurrence.CollapseMonthly(withReminder), nil
}

// WeeklyReport builds the completed-task report for the week containing
// the current time, grouped by date and creator. The caller's own tasks
// land in the self bucket.
func (s *TaskService) WeeklyReport(calendarID, userID uint64) (views.WeeklyReport, error) {
	if err := s.ensureActiveMember(calendarID, userID); err != nil {
		return views.WeeklyReport{}, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return views.WeeklyReport{}, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	start := views.WeekStart(now)
	tasks, err := s.taskRepo.ListCompletedInRange(calendarID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return views.WeeklyReport{}, fmt.Errorf("failed to list completed tasks: %w", err)
	}

	return views.BuildWeeklyReport(tasks, now, user.Username), nil
}

// announce fans the message out to the calendar members and publishes
// the task change event. Fan-out failure is logged by the notifier and
// never fails the mutation itself.
func (s *TaskService) announce(task *models.Task, actorID uint64, action realtime.Action, message string) {
	if s.notifier != nil {
		_ = s.notifier.FanOut(task.CalendarID, actorID, message)
	}
	s.publisher.Publish(realtime.ChangeEvent{
		Table:        realtime.TableTasks,
		Action:       action,
		CalendarID:   task.CalendarID,
		OriginUserID: actorID,
	})
}

func (s *TaskService) findAccessibleTask(taskID, actorID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureActiveMember(task.CalendarID, actorID); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) ensureActiveMember(calendarID, userID uint64) error {
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

func (s *TaskService) usernameOf(userID uint64) string {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "?"
	}
	return user.Username
}
