// Package view filters and sorts an immutable snapshot of an owner's tasks.
// The snapshot is one full fetch; filter and sort changes recompute from it
// without touching the store, memoized per query so repeated queries against
// the same Snapshot reuse the previous result. The memo lives on the Snapshot:
// a caller that builds a fresh Snapshot per request gets one-shot behavior,
// while a caller that holds one across renders gets the cached results.
package view

import (
	"sort"
	"sync"

	dom "github.com/Roroshi7/TaskManager/internal/domain"
)

// SortKey selects the sort field.
type SortKey string

const (
	SortByCreatedAt SortKey = "createdAt"
	SortByDueDate   SortKey = "dueDate"
	SortByPriority  SortKey = "priority"
)

// Order is the sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// FilterAll disables a filter dimension.
const FilterAll = "all"

// Query is one filter/sort combination. Zero values mean: no filters,
// createdAt descending (the list's natural order).
type Query struct {
	Status   string
	Priority string
	SortBy   SortKey
	Order    Order
}

func (q Query) normalize() Query {
	if q.Status == "" {
		q.Status = FilterAll
	}
	if q.Priority == "" {
		q.Priority = FilterAll
	}
	switch q.SortBy {
	case SortByCreatedAt, SortByDueDate, SortByPriority:
	default:
		q.SortBy = SortByCreatedAt
	}
	if q.Order != Asc {
		q.Order = Desc
	}
	return q
}

func (q Query) key() string {
	return q.Status + "|" + q.Priority + "|" + string(q.SortBy) + "|" + string(q.Order)
}

// Snapshot is an immutable view over one fetch of an owner's tasks.
type Snapshot struct {
	tasks []dom.Task

	mu   sync.Mutex
	memo map[string][]dom.Task
}

// NewSnapshot wraps tasks. The caller must not mutate the slice afterwards.
func NewSnapshot(tasks []dom.Task) *Snapshot {
	return &Snapshot{tasks: tasks, memo: make(map[string][]dom.Task)}
}

// Tasks returns the underlying unfiltered list.
func (s *Snapshot) Tasks() []dom.Task { return s.tasks }

// Apply returns the tasks matching q, sorted. Results are memoized by query,
// so a repeated query against the same snapshot returns the cached slice.
func (s *Snapshot) Apply(q Query) []dom.Task {
	q = q.normalize()
	k := q.key()

	s.mu.Lock()
	if cached, ok := s.memo[k]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	out := make([]dom.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if q.Status != FilterAll && string(t.Status) != q.Status {
			continue
		}
		if q.Priority != FilterAll && string(t.Priority) != q.Priority {
			continue
		}
		out = append(out, t)
	}
	sortTasks(out, q.SortBy, q.Order)

	s.mu.Lock()
	s.memo[k] = out
	s.mu.Unlock()
	return out
}

// sortTasks orders in place. Ascending means oldest/earliest/lowest first;
// descending reverses that. Tasks without a due date always sort last under
// the dueDate key.
func sortTasks(tasks []dom.Task, by SortKey, order Order) {
	asc := order == Asc
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch by {
		case SortByDueDate:
			if (a.DueDate == nil) != (b.DueDate == nil) {
				return b.DueDate == nil
			}
			if a.DueDate == nil {
				return false
			}
			if asc {
				return a.DueDate.Before(*b.DueDate)
			}
			return b.DueDate.Before(*a.DueDate)
		case SortByPriority:
			if asc {
				return a.Priority.Rank() < b.Priority.Rank()
			}
			return a.Priority.Rank() > b.Priority.Rank()
		default: // createdAt
			if asc {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return b.CreatedAt.Before(a.CreatedAt)
		}
	})
}
