package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// Notifier delivers a due-reminder alert to a user. Delivery is best
// effort; a failing or absent sink must never break the scan.
type Notifier interface {
	Notify(userID uint64, title, body string)
}

// TaskSource supplies the incomplete tasks to scan. The scan works on
// whatever snapshot the source returns; it holds no task state itself.
type TaskSource interface {
	IncompleteTasks() ([]models.Task, error)
}

// ReminderScheduler scans the task set once a minute and alerts owners
// of due reminders. Two independent checks run per scan:
//
//   - due reminders: a task with a reminder time is due once wall clock
//     passes date@reminder_time; a task with only a reminder date is
//     due at reminder_date@09:00. Each (task, day) pair fires at most
//     once, so a task due today alerts a single time even though the
//     scan repeats every minute. A still-incomplete task can fire again
//     when a new day starts.
//   - overdue tasks: any incomplete task dated today or earlier fires
//     exactly once per task id for the lifetime of the process.
type ReminderScheduler struct {
	source   TaskSource
	notifier Notifier
	cron     *cron.Cron
	now      func() time.Time

	mu           sync.Mutex
	fired        map[string]struct{}
	overdueFired map[uint64]struct{}
}

// New creates a scheduler. notifier may be nil.
func New(source TaskSource, notifier Notifier) *ReminderScheduler {
	return &ReminderScheduler{
		source:       source,
		notifier:     notifier,
		cron:         cron.New(),
		now:          time.Now,
		fired:        make(map[string]struct{}),
		overdueFired: make(map[uint64]struct{}),
	}
}

// Start begins the periodic scan.
func (s *ReminderScheduler) Start() error {
	if _, err := s.cron.AddFunc(constants.ReminderScanSpec, s.Scan); err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop cancels the periodic scan. Reminders that fall due while the
// scheduler is stopped are not fired retroactively.
func (s *ReminderScheduler) Stop() {
	s.cron.Stop()
}

// Scan runs one pass over the task set.
func (s *ReminderScheduler) Scan() {
	tasks, err := s.source.IncompleteTasks()
	if err != nil {
		log.Printf("reminder scan failed: %v", err)
		return
	}

	now := s.now()
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		s.checkDue(task, now)
		s.checkOverdue(task, now)
	}
}

func (s *ReminderScheduler) checkDue(task models.Task, now time.Time) {
	due, ok := dueAt(task)
	if !ok || now.Before(due) {
		return
	}

	key := fmt.Sprintf("%d:%s", task.ID, now.Format("2006-01-02"))

	s.mu.Lock()
	if _, already := s.fired[key]; already {
		s.mu.Unlock()
		return
	}
	s.fired[key] = struct{}{}
	s.mu.Unlock()

	s.notify(task.CreatorID, "リマインダー", task.Title)
}

func (s *ReminderScheduler) checkOverdue(task models.Task, now time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if task.Date.After(today) {
		return
	}

	s.mu.Lock()
	if _, already := s.overdueFired[task.ID]; already {
		s.mu.Unlock()
		return
	}
	s.overdueFired[task.ID] = struct{}{}
	s.mu.Unlock()

	s.notify(task.CreatorID, "期限切れのタスク", task.Title)
}

// dueAt resolves the instant a task's reminder falls due. Tasks without
// reminder fields have no due instant.
func dueAt(task models.Task) (time.Time, bool) {
	if task.ReminderTime != nil && *task.ReminderTime != "" {
		t, err := time.Parse("15:04", *task.ReminderTime)
		if err != nil {
			return time.Time{}, false
		}
		d := task.Date
		return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location()), true
	}

	if task.ReminderDate != nil {
		d := *task.ReminderDate
		return time.Date(d.Year(), d.Month(), d.Day(), constants.DefaultReminderHour, 0, 0, 0, d.Location()), true
	}

	return time.Time{}, false
}

func (s *ReminderScheduler) notify(userID uint64, title, body string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(userID, title, body)
}
