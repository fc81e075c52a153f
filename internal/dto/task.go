package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "github.com/Roroshi7/TaskManager/internal/domain"
)

// DueDate parses dueDate from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",     // date only
		time.RFC3339,     // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano, // with nanoseconds
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			// If it was date-only (no time component), use start of day UTC
			if layout == "2006-01-02" {
				parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			}
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// CreateTaskRequest deliberately has no owner field: the owner always comes
// from the verified bearer token, never from the body.
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"max=2000"`
	Status      string  `json:"status" binding:"omitempty,oneof=todo in-progress completed"`
	Priority    string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     DueDate `json:"dueDate"` // optional: "2026-02-19" or RFC3339
}

// UpdateTaskRequest carries a partial update: absent (or null) fields are left
// unchanged. Sending dueDate as an empty string clears the due date.
type UpdateTaskRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Status      *string  `json:"status" binding:"omitempty,oneof=todo in-progress completed"`
	Priority    *string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *DueDate `json:"dueDate"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskStatsResponse is the dashboard summary plus both distributions.
type TaskStatsResponse struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	InProgress     int            `json:"inProgress"`
	Todo           int            `json:"todo"`
	Overdue        int            `json:"overdue"`
	CompletionRate int            `json:"completionRate"`
	ByStatus       map[string]int `json:"byStatus"`
	ByPriority     map[string]int `json:"byPriority"`
}

// TrendResponse holds windowDays consecutive calendar-day buckets, oldest
// first, ending today.
type TrendResponse struct {
	Labels    []string `json:"labels"`
	Completed []int    `json:"completed"`
	Created   []int    `json:"created"`
}

func TaskToResponse(t dom.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func TasksToResponses(list []dom.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = TaskToResponse(list[i])
	}
	return out
}
