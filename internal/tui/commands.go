package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/stats"
	"github.com/julianstephens/hard75/internal/storage"
)

type loadedMsg struct {
	tasks     []models.CustomTask
	day       models.DayCompletions
	fromCache bool
	err       *apperrors.AppError
}

type statsMsg struct {
	summary stats.Summary
	err     error
}

// writeMsg reports a finished façade write.
type writeMsg struct {
	text    string
	outcome storage.Outcome
	err     *apperrors.AppError
}

// statusMsg is pushed by the façade subscription.
type statusMsg models.SyncStatus

// syncedMsg is the result of a manual sync.
type syncedMsg models.SyncStatus

func (m Model) loadToday() tea.Cmd {
	f, date := m.facade, m.date
	return func() tea.Msg {
		ctx := context.Background()
		tasks := f.GetTasks(ctx)
		if !tasks.OK() {
			return loadedMsg{err: tasks.Err}
		}
		day := f.GetTaskCompletions(ctx, date)
		if !day.OK() {
			// no completions cached yet for the day
			day.Data = models.DayCompletions{Date: date}
			day.Data.Recompute(tasks.Data, 0)
		}
		return loadedMsg{
			tasks:     tasks.Data,
			day:       day.Data,
			fromCache: tasks.FromCache || day.FromCache,
		}
	}
}

func (m Model) loadStats() tea.Cmd {
	f, now := m.facade, m.now()
	return func() tea.Msg {
		ctx := context.Background()
		active := f.GetActiveChallenge(ctx)
		if !active.OK() {
			return statsMsg{err: active.Err}
		}
		if active.Data == nil {
			return statsMsg{err: fmt.Errorf("no active challenge")}
		}
		tasks := f.GetTasks(ctx)
		if !tasks.OK() {
			return statsMsg{err: tasks.Err}
		}
		dates, err := stats.Dates(*active.Data, now)
		if err != nil {
			return statsMsg{err: err}
		}
		history := f.CompletionHistory(ctx, dates)
		s, err := stats.Compute(*active.Data, tasks.Data, history, now)
		return statsMsg{summary: s, err: err}
	}
}

func (m Model) toggle(taskID string, completed bool) tea.Cmd {
	f, date := m.facade, m.date
	return func() tea.Msg {
		res := f.CompleteTask(context.Background(), models.CompleteTaskRequest{TaskID: taskID, Completed: completed, Date: date})
		text := "Marked incomplete"
		if completed {
			text = "Marked complete"
		}
		return writeMsg{text: text, outcome: res.Outcome, err: res.Err}
	}
}

func (m Model) createTask(text string) tea.Cmd {
	f := m.facade
	return func() tea.Msg {
		res := f.CreateTask(context.Background(), models.CreateTaskRequest{TaskText: text})
		return writeMsg{text: "Added " + text, outcome: res.Outcome, err: res.Err}
	}
}

func (m Model) updateTask(id, text string) tea.Cmd {
	f := m.facade
	return func() tea.Msg {
		res := f.UpdateTask(context.Background(), models.UpdateTaskRequest{TaskID: id, TaskText: &text})
		return writeMsg{text: "Updated " + text, outcome: res.Outcome, err: res.Err}
	}
}

func (m Model) deleteTask(id string) tea.Cmd {
	f := m.facade
	return func() tea.Msg {
		res := f.DeleteTask(context.Background(), models.DeleteTaskRequest{TaskID: id})
		return writeMsg{text: "Deleted task", outcome: res.Outcome, err: res.Err}
	}
}

func (m Model) sync() tea.Cmd {
	f := m.facade
	return func() tea.Msg {
		ctx := context.Background()
		if !f.IsOnline() {
			f.Probe(ctx)
		}
		return syncedMsg(f.Sync(ctx))
	}
}

func (m Model) waitForStatus() tea.Cmd {
	ch := m.statusCh
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(s)
	}
}
