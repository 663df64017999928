package models

import (
	"sort"
	"time"
)

// CustomTask is a user-defined daily task.
type CustomTask struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	TaskText   string    `json:"task_text"`
	IsDefault  bool      `json:"is_default"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsProvisional reports whether the task was fabricated locally and has not
// been created on the server yet.
func (t CustomTask) IsProvisional() bool {
	return IsProvisionalID(t.ID)
}

// CreateTaskRequest is the body of POST /tasks/custom. A nil OrderIndex lets
// the server assign the next free index.
type CreateTaskRequest struct {
	TaskText   string `json:"task_text"`
	IsDefault  bool   `json:"is_default,omitempty"`
	OrderIndex *int   `json:"order_index,omitempty"`
}

// UpdateTaskRequest is the body of PUT /tasks/custom.
type UpdateTaskRequest struct {
	TaskID     string  `json:"task_id"`
	TaskText   *string `json:"task_text,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
}

// DeleteTaskRequest is the body of DELETE /tasks/custom.
type DeleteTaskRequest struct {
	TaskID string `json:"task_id"`
}

// SortTasks orders tasks by order index, then creation time. Indexes are never renumbered.
func SortTasks(tasks []CustomTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].OrderIndex != tasks[j].OrderIndex {
			return tasks[i].OrderIndex < tasks[j].OrderIndex
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
}

// NextOrderIndex returns one past the highest order index in tasks.
func NextOrderIndex(tasks []CustomTask) int {
	next := 0
	for _, t := range tasks {
		if t.OrderIndex >= next {
			next = t.OrderIndex + 1
		}
	}
	return next
}
