package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/tui/components/checklist"
	"github.com/julianstephens/hard75/internal/tui/components/summary"
	"github.com/julianstephens/hard75/internal/tui/components/tasklist"
	"github.com/julianstephens/hard75/internal/utils"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateTasks
	StateStats
	StateEditing
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 3

type TaskFormModel struct {
	Text string
}

type Model struct {
	facade        *storage.Facade
	now           func() time.Time
	state         SessionState
	keys          KeyMap
	help          help.Model
	checklist     checklist.Model
	taskList      tasklist.Model
	summaryModel  summary.Model
	form          *huh.Form
	taskForm      *TaskFormModel
	editingTask   *models.CustomTask
	taskToDelete  string
	tasks         []models.CustomTask
	date          string
	fromCache     bool
	status        models.SyncStatus
	statusCh      chan models.SyncStatus
	unsubscribe   func()
	message       string
	messageIsErr  bool
	quitting      bool
	width, height int
}

// NewModel builds the TUI over f. Data is loaded asynchronously by Init.
func NewModel(f *storage.Facade, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{
		facade:       f,
		now:          now,
		state:        StateToday,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		checklist:    checklist.New(),
		taskList:     tasklist.New(nil, 0, 0),
		summaryModel: summary.New(0, 0),
		date:         utils.Today(now()),
		status:       f.Status(),
		statusCh:     make(chan models.SyncStatus, 8),
	}
	ch := m.statusCh
	m.unsubscribe = f.Subscribe(func(s models.SyncStatus) {
		select {
		case ch <- s:
		default:
		}
	})
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateToday:
		keys = append(keys, m.keys.Toggle, m.keys.Sync)
	case StateTasks:
		keys = append(keys, m.keys.Add, m.keys.Edit, m.keys.Delete)
	case StateStats:
		keys = append(keys, m.keys.Refresh)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Sync, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Toggle}

	var actions []key.Binding
	if m.state == StateTasks {
		actions = []key.Binding{m.keys.Add, m.keys.Edit, m.keys.Delete}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadToday(), m.waitForStatus())
}
