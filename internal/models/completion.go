package models

import "time"

// TaskCompletion records whether a task was done on a date. (TaskID, Date)
// identifies a row; writes are upserts.
type TaskCompletion struct {
	TaskID      string     `json:"task_id"`
	Date        string     `json:"date"` // YYYY-MM-DD format
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TaskText    string     `json:"task_text,omitempty"`
	OrderIndex  int        `json:"order_index,omitempty"`
}

// DayProgress is the per-day aggregate of completions.
type DayProgress struct {
	Date           string `json:"date"`
	DayNumber      int    `json:"day_number"`
	AllCompleted   bool   `json:"all_completed"`
	CompletedCount int    `json:"completed_count"`
	TotalTasks     int    `json:"total_tasks"`
}

// CompleteTaskRequest is the body of POST /tasks/complete. An empty Date means today.
type CompleteTaskRequest struct {
	TaskID    string `json:"task_id"`
	Completed bool   `json:"completed"`
	Date      string `json:"date,omitempty"`
}

// CompleteTaskResponse is the body returned by POST /tasks/complete.
type CompleteTaskResponse struct {
	Success      bool           `json:"success"`
	Completion   TaskCompletion `json:"completion"`
	AllCompleted bool           `json:"all_completed"`
	DayNumber    int            `json:"day_number"`
}

// DayCompletions is the body returned by GET /tasks/completions and the
// shape cached under task_completions_<date>.
type DayCompletions struct {
	Completions   []TaskCompletion `json:"completions"`
	DailyProgress DayProgress      `json:"daily_progress"`
	Date          string           `json:"date"`
}

// Upsert replaces the completion for c.TaskID or appends it.
func (d *DayCompletions) Upsert(c TaskCompletion) {
	for i := range d.Completions {
		if d.Completions[i].TaskID == c.TaskID {
			if c.TaskText == "" {
				c.TaskText = d.Completions[i].TaskText
				c.OrderIndex = d.Completions[i].OrderIndex
			}
			d.Completions[i] = c
			return
		}
	}
	d.Completions = append(d.Completions, c)
}

// IsCompleted reports whether taskID is marked complete.
func (d DayCompletions) IsCompleted(taskID string) bool {
	for _, c := range d.Completions {
		if c.TaskID == taskID {
			return c.Completed
		}
	}
	return false
}

// Recompute rebuilds DailyProgress against the given task list. Completions
// for tasks that no longer exist are ignored.
func (d *DayCompletions) Recompute(tasks []CustomTask, dayNumber int) {
	done := 0
	for _, t := range tasks {
		if d.IsCompleted(t.ID) {
			done++
		}
	}
	d.DailyProgress = DayProgress{
		Date:           d.Date,
		DayNumber:      dayNumber,
		AllCompleted:   len(tasks) > 0 && done == len(tasks),
		CompletedCount: done,
		TotalTasks:     len(tasks),
	}
}
