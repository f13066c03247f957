package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

type stubSource struct {
	tasks []models.Task
}

func (s *stubSource) IncompleteTasks() ([]models.Task, error) {
	return s.tasks, nil
}

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) Notify(userID uint64, title, body string) {
	n.calls = append(n.calls, title+"/"+body)
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func newTestScheduler(source TaskSource, notifier Notifier, now time.Time) *ReminderScheduler {
	s := New(source, notifier)
	s.now = func() time.Time { return now }
	return s
}

func TestScan_TimeOfDayReminderFiresOncePerDay(t *testing.T) {
	reminderTime := "14:00"
	source := &stubSource{tasks: []models.Task{{
		ID:           1,
		CreatorID:    5,
		Title:        "ゴミ出し",
		Date:         at(2026, time.August, 29, 0, 0),
		ReminderTime: &reminderTime,
	}}}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, at(2026, time.August, 29, 14, 1))

	s.Scan()
	s.Scan()
	s.Scan()

	require.Equal(t, []string{"リマインダー/ゴミ出し", "期限切れのタスク/ゴミ出し"}, notifier.calls)
}

func TestScan_NotDueYet(t *testing.T) {
	reminderTime := "14:00"
	source := &stubSource{tasks: []models.Task{{
		ID:           1,
		Title:        "ゴミ出し",
		Date:         at(2026, time.August, 29, 0, 0),
		ReminderTime: &reminderTime,
	}}}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, at(2026, time.August, 29, 13, 59))

	s.Scan()

	// Not yet 14:00 and the task is dated today, so only the overdue
	// check fires.
	require.Equal(t, []string{"期限切れのタスク/ゴミ出し"}, notifier.calls)
}

func TestScan_DateReminderUsesDefaultHour(t *testing.T) {
	reminderDate := at(2026, time.August, 29, 0, 0)
	task := models.Task{
		ID:           2,
		Title:        "家賃振込",
		Date:         at(2026, time.September, 1, 0, 0),
		ReminderDate: &reminderDate,
	}
	notifier := &recordingNotifier{}

	s := newTestScheduler(&stubSource{tasks: []models.Task{task}}, notifier, at(2026, time.August, 29, 8, 59))
	s.Scan()
	require.Empty(t, notifier.calls)

	s = newTestScheduler(&stubSource{tasks: []models.Task{task}}, notifier, at(2026, time.August, 29, 9, 0))
	s.Scan()
	require.Equal(t, []string{"リマインダー/家賃振込"}, notifier.calls)
}

func TestScan_ReminderFiresAgainNextDay(t *testing.T) {
	reminderTime := "14:00"
	source := &stubSource{tasks: []models.Task{{
		ID:           1,
		Title:        "ゴミ出し",
		Date:         at(2026, time.August, 29, 0, 0),
		ReminderTime: &reminderTime,
	}}}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, at(2026, time.August, 29, 15, 0))

	s.Scan()
	s.now = func() time.Time { return at(2026, time.August, 30, 15, 0) }
	s.Scan()

	// Two reminder fires (one per day), one overdue fire (once ever).
	require.Equal(t, []string{
		"リマインダー/ゴミ出し",
		"期限切れのタスク/ゴミ出し",
		"リマインダー/ゴミ出し",
	}, notifier.calls)
}

func TestScan_OverdueFiresOnceEver(t *testing.T) {
	source := &stubSource{tasks: []models.Task{{
		ID:    3,
		Title: "古いタスク",
		Date:  at(2026, time.August, 20, 0, 0),
	}}}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, at(2026, time.August, 29, 10, 0))

	s.Scan()
	s.now = func() time.Time { return at(2026, time.August, 30, 10, 0) }
	s.Scan()

	require.Equal(t, []string{"期限切れのタスク/古いタスク"}, notifier.calls)
}

func TestScan_FutureTaskSilent(t *testing.T) {
	source := &stubSource{tasks: []models.Task{{
		ID:    4,
		Title: "未来のタスク",
		Date:  at(2026, time.September, 10, 0, 0),
	}}}
	notifier := &recordingNotifier{}
	s := newTestScheduler(source, notifier, at(2026, time.August, 29, 10, 0))

	s.Scan()

	require.Empty(t, notifier.calls)
}

func TestScan_NilNotifierDoesNotPanic(t *testing.T) {
	source := &stubSource{tasks: []models.Task{{
		ID:    5,
		Title: "task",
		Date:  at(2026, time.August, 20, 0, 0),
	}}}
	s := newTestScheduler(source, nil, at(2026, time.August, 29, 10, 0))

	require.NotPanics(t, func() { s.Scan() })
}
