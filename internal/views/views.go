package views

import (
	"sort"
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// Palette is the fixed set of creator colors. Colors are assigned
// cyclically over the lexicographically sorted creator names, so the
// mapping is a pure function of the current creator set and can shift
// as members join or leave.
var Palette = []string{
	"#f87171", // red
	"#60a5fa", // blue
	"#4ade80", // green
	"#facc15", // yellow
	"#c084fc", // purple
}

// DayTasks filters tasks to one calendar day and sorts them into the
// display order: high before medium before low, ascending position
// within equal priority.
func DayTasks(tasks []models.Task, day time.Time) []models.Task {
	var result []models.Task
	for _, t := range tasks {
		if t.SameDay(day) {
			result = append(result, t)
		}
	}
	SortDay(result)
	return result
}

// SortDay sorts one day's tasks in place by (priority rank, position).
func SortDay(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return tasks[i].Position < tasks[j].Position
	})
}

// CreatorColors maps each distinct creator username among the loaded
// tasks to a palette color. With fewer than two distinct creators there
// is nothing to distinguish and the map is nil.
func CreatorColors(tasks []models.Task) map[string]string {
	seen := make(map[string]struct{})
	var names []string
	for _, t := range tasks {
		if _, ok := seen[t.CreatedByUsername]; ok {
			continue
		}
		seen[t.CreatedByUsername] = struct{}{}
		names = append(names, t.CreatedByUsername)
	}

	if len(names) < 2 {
		return nil
	}

	sort.Strings(names)

	colors := make(map[string]string, len(names))
	for i, name := range names {
		colors[name] = Palette[i%len(Palette)]
	}
	return colors
}
