package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runlog/internal/service"
	"runlog/internal/store"
)

// WorkoutsModel is the paged workout list screen model
type WorkoutsModel struct {
	queryService *service.QueryService
	units        Units
	workouts     []store.Workout
	pager        pager
	loading      bool
	err          error
}

// NewWorkoutsModel creates a new workouts model
func NewWorkoutsModel(qs *service.QueryService, units Units) WorkoutsModel {
	return WorkoutsModel{
		queryService: qs,
		units:        units,
		pager:        newPager(15),
		loading:      true,
	}
}

// Init initializes the workouts screen
func (m WorkoutsModel) Init() tea.Cmd {
	return m.loadPage
}

type workoutsLoadedMsg struct {
	workouts []store.Workout
	total    int
	err      error
}

// OpenWorkoutDetailMsg asks the app to show one workout
type OpenWorkoutDetailMsg struct {
	WorkoutID int64
}

func (m WorkoutsModel) loadPage() tea.Msg {
	workouts, err := m.queryService.ListWorkouts(m.pager.size, m.pager.offset)
	if err != nil {
		return workoutsLoadedMsg{err: err}
	}

	total, err := m.queryService.TotalWorkoutCount()
	if err != nil {
		return workoutsLoadedMsg{err: err}
	}

	return workoutsLoadedMsg{workouts: workouts, total: total}
}

// Update handles messages
func (m WorkoutsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workoutsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.workouts = msg.workouts
		m.pager.setTotal(msg.total)

	case tea.KeyMsg:
		key := msg.String()
		if handled, pageChanged := m.pager.move(key); handled {
			if pageChanged {
				m.loading = true
				return m, m.loadPage
			}
			return m, nil
		}
		switch key {
		case "r":
			m.loading = true
			return m, m.loadPage
		case "enter":
			if m.pager.cursor < len(m.workouts) {
				id := m.workouts[m.pager.cursor].ID
				return m, func() tea.Msg {
					return OpenWorkoutDetailMsg{WorkoutID: id}
				}
			}
		}
	}
	return m, nil
}

// View renders the workouts list
func (m WorkoutsModel) View() string {
	if m.loading {
		return "\n  Loading workouts..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.workouts) == 0 {
		return "\n  No workouts found. Press '5' to import activity files."
	}

	var sections []string

	title := cardTitleStyle.Render(fmt.Sprintf("Workouts (%d-%d of %d)", m.pager.offset+1, m.pager.offset+len(m.workouts), m.pager.total))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-10s  %-24s  %-8s  %10s  %8s  %8s  %5s",
		"Date", "File", "Sport", "Distance", "Time", "Pace", "HR"))
	sections = append(sections, header)

	for i, w := range m.workouts {
		cursor := "  "
		if i == m.pager.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-10s  %-24s  %-8s  %10s  %8s  %8s  %5s",
			cursor,
			w.StartTime.Format("2006-01-02"),
			truncateName(w.FileName, 24),
			truncateName(w.Sport, 8),
			m.units.FormatDistance(w.DistanceM),
			service.FormatDuration(w.TotalTimeSec),
			m.units.FormatPace(deref(w.AvgPaceSecKm)),
			formatHR(w.AvgHR),
		)

		if i == m.pager.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	help := statusStyle.Render("\n  enter: view details  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
