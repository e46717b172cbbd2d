package domain

import (
	"slices"
	"strings"

	"github.com/fastygo/planner/pkg/dateutil"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// FilterAll disables the priority or status predicate of a TaskFilter.
const FilterAll = "all"

// CopySuffix is appended to the title of duplicated tasks.
const CopySuffix = " (Copia)"

// Task represents an academic to-do item owned by a single user.
type Task struct {
	ID             int64           `json:"id"`
	OwnerID        string          `json:"-"`
	Title          string          `json:"title" validate:"notblank"`
	Subject        string          `json:"subject" validate:"notblank"`
	Description    string          `json:"description" validate:"max=500"`
	DueDate        dateutil.Date   `json:"dueDate" validate:"required"`
	EstimatedHours int             `json:"estimatedHours" validate:"min=1"`
	Priority       Priority        `json:"priority" validate:"oneof=high medium low"`
	Status         Status          `json:"status" validate:"oneof=pending in-progress completed"`
	Reminder       bool            `json:"reminder"`
	ReminderTime   *dateutil.Clock `json:"reminderTime,omitempty"`
	CreatedAt      dateutil.Date   `json:"createdAt"`
	CompletedAt    *dateutil.Date  `json:"completedAt,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// SyncCompletion keeps CompletedAt present exactly when the task is completed.
func (t *Task) SyncCompletion(today dateutil.Date) {
	if t.Status != StatusCompleted {
		t.CompletedAt = nil
		return
	}
	if t.CompletedAt == nil || t.CompletedAt.IsZero() {
		done := today
		t.CompletedAt = &done
	}
}

// ReminderDue reports whether the reminder is armed for the given day.
func (t *Task) ReminderDue(day dateutil.Date) bool {
	return t.Reminder && t.ReminderTime != nil && !t.IsCompleted() && t.DueDate.Equal(day)
}

// Clone returns a deep copy so callers never share pointer fields with a repository.
func (t Task) Clone() Task {
	if t.ReminderTime != nil {
		rt := *t.ReminderTime
		t.ReminderTime = &rt
	}
	if t.CompletedAt != nil {
		done := *t.CompletedAt
		t.CompletedAt = &done
	}
	return t
}

// TaskFilter holds the planner's list criteria. All predicates are ANDed.
type TaskFilter struct {
	Search        string `json:"search,omitempty"`
	Priority      string `json:"priority,omitempty"`
	Status        string `json:"status,omitempty"`
	ShowCompleted bool   `json:"showCompleted"`
}

func (f TaskFilter) Matches(t Task) bool {
	return f.matchesSearch(t) &&
		matchesEnum(f.Priority, string(t.Priority)) &&
		matchesEnum(f.Status, string(t.Status)) &&
		(f.ShowCompleted || t.Status != StatusCompleted)
}

func (f TaskFilter) matchesSearch(t Task) bool {
	term := strings.ToLower(f.Search)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Subject), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

func matchesEnum(want, got string) bool {
	return want == "" || want == FilterAll || want == got
}

// FilterTasks keeps the original order of tasks.
func FilterTasks(tasks []Task, filter TaskFilter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// UpcomingTasks returns open tasks due within [today, today+withinDays], earliest first.
func UpcomingTasks(tasks []Task, today dateutil.Date, withinDays int) []Task {
	limit := today.AddDays(withinDays)
	out := make([]Task, 0)
	for _, t := range tasks {
		if t.IsCompleted() || t.DueDate.Before(today) || t.DueDate.After(limit) {
			continue
		}
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b Task) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return out
}

// TaskStats aggregates the planner dashboard counters.
type TaskStats struct {
	Count               int `json:"count"`
	CompletedCount      int `json:"completedCount"`
	TotalEstimatedHours int `json:"totalEstimatedHours"`
	UpcomingCount       int `json:"upcomingCount"`
}

func ComputeStats(tasks []Task, today dateutil.Date, withinDays int) TaskStats {
	stats := TaskStats{Count: len(tasks)}
	for _, t := range tasks {
		stats.TotalEstimatedHours += t.EstimatedHours
		if t.IsCompleted() {
			stats.CompletedCount++
		}
	}
	stats.UpcomingCount = len(UpcomingTasks(tasks, today, withinDays))
	return stats
}
