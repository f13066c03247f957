package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yukikurage/shared-calendar-api/internal/constants"
	"github.com/yukikurage/shared-calendar-api/internal/models"
)

// WeeklyReport aggregates the completed tasks of the Monday-start week
// containing the reference time, grouped by date and then by creator.
type WeeklyReport struct {
	WeekStart  time.Time               `json:"week_start"`
	WeekEnd    time.Time               `json:"week_end"`
	Total      int                     `json:"total"`
	ByPriority map[models.Priority]int `json:"by_priority"`
	Days       []ReportDay             `json:"days"`
}

// ReportDay is one date's completed tasks, split per creator.
type ReportDay struct {
	Date   time.Time     `json:"date"`
	Groups []ReportGroup `json:"groups"`
}

// ReportGroup is one creator's completed tasks on one date. The
// requesting user's own tasks are bucketed under the "self" label.
type ReportGroup struct {
	Creator string        `json:"creator"`
	Tasks   []models.Task `json:"tasks"`
}

// WeekStart returns the Monday 00:00 of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday-start week
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// BuildWeeklyReport filters tasks to the completed ones within the
// current week and buckets them by date then creator. Tasks authored by
// selfUsername are grouped under the "self" label.
func BuildWeeklyReport(tasks []models.Task, now time.Time, selfUsername string) WeeklyReport {
	start := WeekStart(now)
	end := start.AddDate(0, 0, 7)

	report := WeeklyReport{
		WeekStart: start,
		WeekEnd:   end,
		ByPriority: map[models.Priority]int{
			models.PriorityHigh:   0,
			models.PriorityMedium: 0,
			models.PriorityLow:    0,
		},
	}

	byDay := make(map[string]map[string][]models.Task)
	for _, t := range tasks {
		if !t.Completed || t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}

		report.Total++
		report.ByPriority[t.Priority]++

		creator := t.CreatedByUsername
		if creator == selfUsername {
			creator = constants.SelfReportLabel
		}

		key := t.Date.Format("2006-01-02")
		if byDay[key] == nil {
			byDay[key] = make(map[string][]models.Task)
		}
		byDay[key][creator] = append(byDay[key][creator], t)
	}

	dates := make([]string, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		date, _ := time.ParseInLocation("2006-01-02", d, now.Location())
		day := ReportDay{Date: date}

		creators := make([]string, 0, len(byDay[d]))
		for c := range byDay[d] {
			creators = append(creators, c)
		}
		// Self first, other members lexicographically after.
		sort.Slice(creators, func(i, j int) bool {
			if creators[i] == constants.SelfReportLabel {
				return true
			}
			if creators[j] == constants.SelfReportLabel {
				return false
			}
			return creators[i] < creators[j]
		})

		for _, c := range creators {
			day.Groups = append(day.Groups, ReportGroup{Creator: c, Tasks: byDay[d][c]})
		}
		report.Days = append(report.Days, day)
	}

	return report
}

// Transcript renders the report as copy-ready text: a header with
// totals, then one section per date. Other members' tasks are printed
// under their username; the self label line is omitted.
func (r WeeklyReport) Transcript() string {
	var b strings.Builder

	fmt.Fprintf(&b, "今週の完了タスク %d件（高%d / 中%d / 低%d）\n",
		r.Total,
		r.ByPriority[models.PriorityHigh],
		r.ByPriority[models.PriorityMedium],
		r.ByPriority[models.PriorityLow],
	)

	for _, day := range r.Days {
		b.WriteString("\n")
		b.WriteString(day.Date.Format("1月2日"))
		b.WriteString("\n")

		for _, group := range day.Groups {
			if group.Creator != constants.SelfReportLabel {
				fmt.Fprintf(&b, "%s:\n", group.Creator)
			}
			for _, t := range group.Tasks {
				fmt.Fprintf(&b, "・%s（%s）\n", t.Title, t.Priority.Label())
			}
		}
	}

	return b.String()
}
