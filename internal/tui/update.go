package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/tui/components/checklist"
	"github.com/julianstephens/hard75/internal/tui/components/tasklist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// tabs, status line and help
		h, v := docStyle.GetFrameSize()
		m.taskList.SetSize(msg.Width-h, msg.Height-v-4)
		m.summaryModel.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.setError(msg.err.UserMessage)
			return m, nil
		}
		m.tasks = msg.tasks
		m.fromCache = msg.fromCache
		m.checklist.SetDay(msg.tasks, msg.day)
		m.taskList.SetTasks(msg.tasks)
		return m, nil

	case statsMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.summaryModel.SetSummary(msg.summary)
		return m, nil

	case writeMsg:
		switch msg.outcome {
		case storage.OutcomeApplied:
			m.setInfo(msg.text)
		case storage.OutcomePending:
			m.setInfo(msg.text + " (saved locally, will sync)")
		default:
			if msg.err != nil {
				m.setError(msg.err.UserMessage)
			}
		}
		return m, m.loadToday()

	case statusMsg:
		m.status = models.SyncStatus(msg)
		return m, tea.Batch(m.loadToday(), m.waitForStatus())

	case syncedMsg:
		m.status = models.SyncStatus(msg)
		if m.status.IsOnline {
			m.setInfo("Synced")
		} else {
			m.setError("Offline: changes will sync when the API is reachable")
		}
		return m, m.loadToday()

	case checklist.ToggleMsg:
		return m, m.toggle(msg.TaskID, msg.Completed)

	case tasklist.AddTaskMsg:
		m.editingTask = nil
		return m.startForm("")

	case tasklist.EditTaskMsg:
		task := msg.Task
		m.editingTask = &task
		return m.startForm(task.TaskText)

	case tasklist.DeleteTaskMsg:
		m.taskToDelete = msg.ID
		m.state = StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case StateEditing:
		return m.updateForm(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Quit):
			m.quitting = true
			if m.unsubscribe != nil {
				m.unsubscribe()
			}
			return m, tea.Quit
		case key.Matches(keyMsg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(keyMsg, m.keys.Tab):
			return m.switchTab((m.state + 1) % tabCount)
		case key.Matches(keyMsg, m.keys.ShiftTab):
			return m.switchTab((m.state - 1 + tabCount) % tabCount)
		case key.Matches(keyMsg, m.keys.Sync):
			return m, m.sync()
		case key.Matches(keyMsg, m.keys.Refresh) && m.state == StateStats:
			return m, m.loadStats()
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateToday:
		m.checklist, cmd = m.checklist.Update(msg)
	case StateTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case StateStats:
		m.summaryModel, cmd = m.summaryModel.Update(msg)
	}
	return m, cmd
}

func (m Model) switchTab(state SessionState) (tea.Model, tea.Cmd) {
	m.state = state
	m.message = ""
	if state == StateStats {
		return m, m.loadStats()
	}
	return m, nil
}

func (m Model) startForm(text string) (tea.Model, tea.Cmd) {
	m.taskForm = &TaskFormModel{Text: text}
	title := "New task"
	if m.editingTask != nil {
		title = "Edit task"
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&m.taskForm.Text).
				Validate(func(s string) error {
					return validateTaskText(s)
				}),
		),
	)
	m.state = StateEditing
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = StateTasks
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		text := strings.TrimSpace(m.taskForm.Text)
		if m.editingTask != nil {
			cmds = append(cmds, m.updateTask(m.editingTask.ID, text))
		} else {
			cmds = append(cmds, m.createTask(text))
		}
		m.state = StateTasks
	case huh.StateAborted:
		m.state = StateTasks
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		id := m.taskToDelete
		m.taskToDelete = ""
		m.state = StateTasks
		return m, m.deleteTask(id)
	case key.Matches(keyMsg, m.keys.Cancel), key.Matches(keyMsg, m.keys.Quit):
		m.taskToDelete = ""
		m.state = StateTasks
	}
	return m, nil
}

func (m *Model) setInfo(text string) {
	m.message = text
	m.messageIsErr = false
}

func (m *Model) setError(text string) {
	m.message = text
	m.messageIsErr = true
}

func validateTaskText(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errEmptyTask
	}
	if len(s) > constants.MaxTaskTextLen {
		return errLongTask
	}
	return nil
}
