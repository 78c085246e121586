package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runlog/internal/service"
)

// RecordsModel is the personal records screen model
type RecordsModel struct {
	queryService *service.QueryService
	units        Units
	records      []service.PersonalRecordDisplay
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewRecordsModel creates a new records model
func NewRecordsModel(qs *service.QueryService, units Units, width, height int) RecordsModel {
	m := RecordsModel{
		queryService: qs,
		units:        units,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}

	return m
}

// Init initializes the records screen
func (m RecordsModel) Init() tea.Cmd {
	return m.loadRecords
}

type recordsLoadedMsg struct {
	records []service.PersonalRecordDisplay
	err     error
}

func (m RecordsModel) loadRecords() tea.Msg {
	records, err := m.queryService.PersonalRecords()
	return recordsLoadedMsg{records: records, err: err}
}

// Update handles messages
func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case recordsLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.records = msg.records
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if !m.loading {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadRecords
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the records screen
func (m RecordsModel) View() string {
	if m.loading {
		return "\n  Loading personal records..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m RecordsModel) renderContent() string {
	sections := []string{"", cardTitleStyle.Render("Personal Records"), ""}

	if len(m.records) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(mutedColor).Render("  No personal records yet. Import some workouts first."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	lines := []string{
		RenderSection("Best Efforts"),
		lipgloss.NewStyle().Foreground(primaryColor).Render(
			fmt.Sprintf("  %-14s  %9s  %10s  %6s  %-12s  %s", "Distance", "Time", "Pace", "Avg HR", "Date", "Workout")),
	}
	for _, r := range m.records {
		lines = append(lines, m.formatRow(r))
	}
	lines = append(lines, "")
	sections = append(sections, strings.Join(lines, "\n"))

	lines = []string{RenderSection("Segments")}
	for _, r := range m.records {
		lines = append(lines, fmt.Sprintf("  %-14s  %s", r.CategoryLabel, r.Segment))
	}
	sections = append(sections, strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RecordsModel) formatRow(r service.PersonalRecordDisplay) string {
	pace := "-"
	if r.PaceSecKm != nil {
		pace = m.units.FormatPaceWithUnit(*r.PaceSecKm)
	}
	return fmt.Sprintf("  %-14s  %9s  %10s  %6s  %-12s  %s",
		r.CategoryLabel,
		r.Time,
		pace,
		r.AvgHR,
		r.Date,
		truncateName(r.WorkoutFile, 30),
	)
}
