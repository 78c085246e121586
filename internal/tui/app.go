// Package tui implements the terminal dashboard.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runlog/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenWorkouts
	ScreenStats
	ScreenRecords
	ScreenImport
	ScreenHelp
	ScreenWorkoutDetail
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard     DashboardModel
	workouts      WorkoutsModel
	stats         StatsModel
	records       RecordsModel
	importScreen  ImportModel
	help          HelpModel
	workoutDetail WorkoutDetailModel

	// Services
	queryService  *service.QueryService
	importService *service.ImportService
	units         Units

	// Window dimensions
	width  int
	height int

	// Status message
	status string
}

// NewApp creates a new App with all dependencies. importDir is the folder
// scanned by the import screen.
func NewApp(queryService *service.QueryService, importService *service.ImportService, importDir string, units Units) *App {
	return &App{
		screen:        ScreenDashboard,
		queryService:  queryService,
		importService: importService,
		units:         units,
		dashboard:     NewDashboardModel(queryService, units),
		workouts:      NewWorkoutsModel(queryService, units),
		stats:         NewStatsModel(queryService, units),
		records:       NewRecordsModel(queryService, units, 0, 0),
		importScreen:  NewImportModel(importService, units, importDir),
		help:          NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless an import is running)
		if a.screen != ScreenImport || !a.importScreen.importing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.queryService, a.units)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenWorkouts
				return a, a.workouts.Init()
			case "3":
				a.screen = ScreenStats
				return a, a.stats.Init()
			case "4":
				a.screen = ScreenRecords
				a.records = NewRecordsModel(a.queryService, a.units, a.width, a.height)
				return a, a.records.Init()
			case "5":
				a.screen = ScreenImport
				return a, a.importScreen.Init()
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				switch a.screen {
				case ScreenHelp:
					a.screen = a.prevScreen
					return a, nil
				case ScreenWorkoutDetail:
					a.screen = ScreenWorkouts
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Scrolling screens size their viewport even when hidden
		var m tea.Model
		m, _ = a.records.Update(msg)
		a.records = m.(RecordsModel)
		if a.screen != ScreenWorkoutDetail {
			return a, nil
		}

	case OpenWorkoutDetailMsg:
		a.screen = ScreenWorkoutDetail
		a.workoutDetail = NewWorkoutDetailModel(a.queryService, a.units, msg.WorkoutID, a.width, a.height)
		return a, a.workoutDetail.Init()

	case ImportCompleteMsg:
		// Hidden screens reload when they are next opened
		a.workouts.pager.reset()
		a.status = "Import finished"
		return a, nil
	}

	// Delegate to current screen
	var cmd tea.Cmd
	var m tea.Model
	switch a.screen {
	case ScreenDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenWorkouts:
		m, cmd = a.workouts.Update(msg)
		a.workouts = m.(WorkoutsModel)
	case ScreenStats:
		m, cmd = a.stats.Update(msg)
		a.stats = m.(StatsModel)
	case ScreenRecords:
		m, cmd = a.records.Update(msg)
		a.records = m.(RecordsModel)
	case ScreenImport:
		m, cmd = a.importScreen.Update(msg)
		a.importScreen = m.(ImportModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	case ScreenWorkoutDetail:
		m, cmd = a.workoutDetail.Update(msg)
		a.workoutDetail = m.(WorkoutDetailModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenWorkouts:
		content = a.workouts.View()
	case ScreenStats:
		content = a.stats.View()
	case ScreenRecords:
		content = a.records.View()
	case ScreenImport:
		content = a.importScreen.View()
	case ScreenHelp:
		content = a.help.View()
	case ScreenWorkoutDetail:
		content = a.workoutDetail.View()
	}

	footer := a.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content, footer)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("runlog - Workout Analytics")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Workouts", ScreenWorkouts},
		{"3", "Stats", ScreenStats},
		{"4", "Records", ScreenRecords},
		{"5", "Import", ScreenImport},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		active := a.screen == item.screen ||
			(a.screen == ScreenWorkoutDetail && item.screen == ScreenWorkouts)
		if active {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

func (a *App) renderFooter() string {
	if a.status != "" {
		return statusStyle.Render(a.status)
	}
	return ""
}

// ImportCompleteMsg is sent when an import stored new workouts
type ImportCompleteMsg struct{}
