package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayTasks_FiltersAndSorts(t *testing.T) {
	target := day(2026, time.August, 29)
	tasks := []models.Task{
		{ID: 1, Title: "low first", Date: target, Priority: models.PriorityLow, Position: 0},
		{ID: 2, Title: "other day", Date: day(2026, time.August, 30), Priority: models.PriorityHigh},
		{ID: 3, Title: "high late", Date: target, Priority: models.PriorityHigh, Position: 5},
		{ID: 4, Title: "high early", Date: target, Priority: models.PriorityHigh, Position: 1},
		{ID: 5, Title: "medium", Date: target, Priority: models.PriorityMedium, Position: 0},
	}

	result := DayTasks(tasks, target)

	require.Len(t, result, 4)
	require.Equal(t, []uint64{4, 3, 5, 1}, []uint64{result[0].ID, result[1].ID, result[2].ID, result[3].ID})
}

func TestSortDay_StableForEqualKeys(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, Priority: models.PriorityMedium, Position: 2},
		{ID: 2, Priority: models.PriorityMedium, Position: 2},
		{ID: 3, Priority: models.PriorityMedium, Position: 2},
	}

	SortDay(tasks)

	// Equal (priority, position) keys keep their input order.
	require.Equal(t, uint64(1), tasks[0].ID)
	require.Equal(t, uint64(2), tasks[1].ID)
	require.Equal(t, uint64(3), tasks[2].ID)
}

func TestCreatorColors_SingleCreatorGetsNoColors(t *testing.T) {
	tasks := []models.Task{
		{CreatedByUsername: "alice"},
		{CreatedByUsername: "alice"},
	}

	require.Nil(t, CreatorColors(tasks))
}

func TestCreatorColors_AssignsDistinctColors(t *testing.T) {
	tasks := []models.Task{
		{CreatedByUsername: "bob"},
		{CreatedByUsername: "alice"},
		{CreatedByUsername: "bob"},
	}

	colors := CreatorColors(tasks)

	require.Len(t, colors, 2)
	require.Equal(t, Palette[0], colors["alice"])
	require.Equal(t, Palette[1], colors["bob"])
	require.NotEqual(t, colors["alice"], colors["bob"])
}

func TestCreatorColors_CyclesPalette(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	var tasks []models.Task
	for _, n := range names {
		tasks = append(tasks, models.Task{CreatedByUsername: n})
	}

	colors := CreatorColors(tasks)

	require.Len(t, colors, len(names))
	// Sixth creator wraps back to the first palette color.
	require.Equal(t, Palette[0], colors["f"])
}
