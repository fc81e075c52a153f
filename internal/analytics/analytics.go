// Package analytics derives statistics from an owner's in-memory task list.
// Every function is pure and recomputes from scratch; nothing is cached or
// incrementally updated.
package analytics

import (
	"time"

	dom "github.com/Roroshi7/TaskManager/internal/domain"
)

// StatusDistribution counts tasks by status. Every enumerated status is
// present in the result, so the counts always sum to len(tasks).
func StatusDistribution(tasks []dom.Task) map[dom.Status]int {
	counts := map[dom.Status]int{
		dom.StatusTodo:       0,
		dom.StatusInProgress: 0,
		dom.StatusCompleted:  0,
	}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

// PriorityDistribution counts tasks by priority. Every enumerated priority is
// present in the result, so the counts always sum to len(tasks).
func PriorityDistribution(tasks []dom.Task) map[dom.Priority]int {
	counts := map[dom.Priority]int{
		dom.PriorityLow:    0,
		dom.PriorityMedium: 0,
		dom.PriorityHigh:   0,
	}
	for _, t := range tasks {
		counts[t.Priority]++
	}
	return counts
}

// Summary is the dashboard headline: totals, overdue count, and a rounded
// completion percentage.
type Summary struct {
	Total          int
	Completed      int
	InProgress     int
	Todo           int
	Overdue        int
	CompletionRate int
}

// Summarize computes the Summary at instant now. CompletionRate is
// round(100 * completed / total), or 0 when total is 0; it is always in [0,100].
func Summarize(tasks []dom.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case dom.StatusCompleted:
			s.Completed++
		case dom.StatusInProgress:
			s.InProgress++
		case dom.StatusTodo:
			s.Todo++
		}
		if t.Overdue(now) {
			s.Overdue++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(float64(s.Completed)/float64(s.Total)*100 + 0.5)
	}
	return s
}

// Trend holds windowDays consecutive calendar-day buckets, oldest first,
// ending on now's day. Labels are formatted YYYY-MM-DD.
type Trend struct {
	Labels    []string
	Completed []int
	Created   []int
}

// CompletionTrend buckets tasks by calendar day in now's location. For each
// day, Completed counts tasks whose status is completed and whose updatedAt
// falls on that day; Created counts tasks created that day.
//
// Completion is bucketed by updatedAt at query time, not by a historical log
// of state transitions: a completed task that is edited again moves to the
// later day's bucket, and a past day's count can change retroactively. This
// is a known approximation, kept deliberately.
func CompletionTrend(tasks []dom.Task, windowDays int, now time.Time) Trend {
	if windowDays < 1 {
		windowDays = 1
	}
	tr := Trend{
		Labels:    make([]string, 0, windowDays),
		Completed: make([]int, 0, windowDays),
		Created:   make([]int, 0, windowDays),
	}
	loc := now.Location()
	for i := windowDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		tr.Labels = append(tr.Labels, day.Format("2006-01-02"))

		completed := 0
		created := 0
		for _, t := range tasks {
			if t.Status == dom.StatusCompleted && sameDay(t.UpdatedAt, day, loc) {
				completed++
			}
			if sameDay(t.CreatedAt, day, loc) {
				created++
			}
		}
		tr.Completed = append(tr.Completed, completed)
		tr.Created = append(tr.Created, created)
	}
	return tr
}

// sameDay compares calendar days in loc, so a task touched at 23:59 and again
// at 00:01 counts toward the later day.
func sameDay(t, day time.Time, loc *time.Location) bool {
	ty, tm, td := t.In(loc).Date()
	dy, dm, dd := day.In(loc).Date()
	return ty == dy && tm == dm && td == dd
}
