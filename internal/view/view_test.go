package view

import (
	"testing"
	"time"

	dom "github.com/Roroshi7/TaskManager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTasks() []dom.Task {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	due1 := base.AddDate(0, 0, 3)
	due2 := base.AddDate(0, 0, 1)
	return []dom.Task{
		{Title: "a", Status: dom.StatusTodo, Priority: dom.PriorityLow, CreatedAt: base.Add(3 * time.Hour), DueDate: &due1},
		{Title: "b", Status: dom.StatusInProgress, Priority: dom.PriorityHigh, CreatedAt: base.Add(2 * time.Hour), DueDate: &due2},
		{Title: "c", Status: dom.StatusCompleted, Priority: dom.PriorityMedium, CreatedAt: base.Add(1 * time.Hour)},
	}
}

func titles(tasks []dom.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestApplyDefaultIsCreatedAtDesc(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{})
	assert.Equal(t, []string{"a", "b", "c"}, titles(out))
}

func TestApplyStatusFilter(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{Status: "completed"})
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].Title)
}

func TestApplyPriorityFilter(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{Priority: "high"})
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Title)
}

func TestApplyAllDisablesFilter(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{Status: FilterAll, Priority: FilterAll})
	assert.Len(t, out, 3)
}

func TestApplyCombinedFilters(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{Status: "todo", Priority: "high"})
	assert.Empty(t, out)
}

func TestSortCreatedAtAsc(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{SortBy: SortByCreatedAt, Order: Asc})
	assert.Equal(t, []string{"c", "b", "a"}, titles(out))
}

func TestSortPriority(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())

	desc := snap.Apply(Query{SortBy: SortByPriority, Order: Desc})
	assert.Equal(t, []string{"b", "c", "a"}, titles(desc), "high > medium > low")

	asc := snap.Apply(Query{SortBy: SortByPriority, Order: Asc})
	assert.Equal(t, []string{"a", "c", "b"}, titles(asc))
}

func TestSortDueDateNilLast(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())

	asc := snap.Apply(Query{SortBy: SortByDueDate, Order: Asc})
	assert.Equal(t, []string{"b", "a", "c"}, titles(asc), "earliest first, nil due date last")

	desc := snap.Apply(Query{SortBy: SortByDueDate, Order: Desc})
	assert.Equal(t, []string{"a", "b", "c"}, titles(desc), "latest first, nil due date still last")
}

func TestApplyDoesNotMutateSnapshot(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	_ = snap.Apply(Query{SortBy: SortByPriority, Order: Desc})
	assert.Equal(t, []string{"a", "b", "c"}, titles(snap.Tasks()))
}

func TestApplyMemoizesPerQuery(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	q := Query{Status: "todo", SortBy: SortByCreatedAt, Order: Desc}

	first := snap.Apply(q)
	second := snap.Apply(q)
	require.Len(t, first, 1)
	// Same backing array: the second call returned the memoized slice.
	assert.Equal(t, &first[0], &second[0])
}

func TestUnknownSortAndOrderFallBack(t *testing.T) {
	snap := NewSnapshot(fixtureTasks())
	out := snap.Apply(Query{SortBy: "bogus", Order: "sideways"})
	assert.Equal(t, []string{"a", "b", "c"}, titles(out))
}
