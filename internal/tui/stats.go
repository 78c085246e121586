package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runlog/internal/service"
)

// History loaded by the stats screen
const (
	statsWeeks  = 104
	statsMonths = 36
)

// StatsModel is the period stats screen model
type StatsModel struct {
	queryService *service.QueryService
	units        Units
	periodType   string
	periods      []service.PeriodStats // only periods with workouts, newest first
	longest      float64               // largest period distance, scales the bars
	pager        pager
	loading      bool
	err          error
}

// NewStatsModel creates a new stats model
func NewStatsModel(qs *service.QueryService, units Units) StatsModel {
	return StatsModel{
		queryService: qs,
		units:        units,
		periodType:   service.PeriodWeekly,
		pager:        newPager(15),
		loading:      true,
	}
}

// Init initializes the stats screen
func (m StatsModel) Init() tea.Cmd {
	return m.loadStats
}

type statsLoadedMsg struct {
	periodType string
	stats      []service.PeriodStats
	err        error
}

func (m StatsModel) loadStats() tea.Msg {
	n := statsWeeks
	if m.periodType == service.PeriodMonthly {
		n = statsMonths
	}
	stats, err := m.queryService.PeriodStats(m.periodType, n)
	return statsLoadedMsg{periodType: m.periodType, stats: stats, err: err}
}

// Update handles messages
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.periodType != m.periodType {
			return m, nil // superseded by a later toggle
		}
		m.loading = false
		m.err = msg.err
		m.periods = nil
		m.longest = 0
		for _, s := range msg.stats {
			if s.WorkoutCount > 0 {
				m.periods = append(m.periods, s)
				m.longest = max(m.longest, s.TotalDistance)
			}
		}
		slices.Reverse(m.periods)
		m.pager.reset()
		m.pager.setTotal(len(m.periods))

	case tea.KeyMsg:
		key := msg.String()
		if handled, _ := m.pager.move(key); handled {
			return m, nil
		}
		switch key {
		case "w", "m":
			periodType := service.PeriodWeekly
			if key == "m" {
				periodType = service.PeriodMonthly
			}
			if periodType == m.periodType {
				return m, nil
			}
			m.periodType = periodType
			m.loading = true
			return m, m.loadStats
		case "r":
			m.loading = true
			return m, m.loadStats
		}
	}
	return m, nil
}

// View renders the stats screen
func (m StatsModel) View() string {
	if m.loading {
		return "\n  Loading stats..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	periodLabel := "Weekly"
	if m.periodType == service.PeriodMonthly {
		periodLabel = "Monthly"
	}

	if len(m.periods) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render(fmt.Sprintf("Period Stats (%s)", periodLabel)),
			"\n  No data available. Import some workouts first.")
	}

	p := m.pager
	page := m.periods[p.offset : p.offset+p.rows()]

	sections := []string{
		cardTitleStyle.Render(fmt.Sprintf("Period Stats (%s) - %d-%d of %d",
			periodLabel, p.offset+1, p.offset+len(page), p.total)),
		tableHeaderStyle.Render(fmt.Sprintf("   %-12s  %8s  %10s  %8s  %8s  %6s  %s",
			"Period", "Workouts", "Distance", "Time", "Pace", "HR", "Volume")),
	}

	var pageDistance, pageTime float64
	for i, s := range page {
		pageDistance += s.TotalDistance
		pageTime += s.TotalTime

		hr := "-"
		if s.AvgHR > 0 {
			hr = fmt.Sprintf("%.0f", s.AvgHR)
		}

		cursor := "  "
		if i == p.cursor {
			cursor = "> "
		}

		row := fmt.Sprintf("%s%-12s  %8d  %10s  %8s  %8s  %6s  ",
			cursor,
			s.PeriodLabel,
			s.WorkoutCount,
			m.units.FormatDistance(s.TotalDistance),
			formatDuration(int(s.TotalTime)),
			m.units.FormatPace(s.AvgPaceSecKm()),
			hr,
		)

		style := tableRowStyle
		if i == p.cursor {
			style = tableSelectedStyle
		}
		sections = append(sections, style.Render(row)+RenderBar(m.volumePercent(s), 20, secondaryColor))
	}

	sections = append(sections,
		statusStyle.Render(fmt.Sprintf("\n  This page: %s in %s",
			m.units.FormatDistance(pageDistance), formatDuration(int(pageTime)))),
		statusStyle.Render("  w/m: weekly/monthly  j/k: navigate  pgup/pgdn: page  r: refresh"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// volumePercent is a period's distance relative to the longest period
func (m StatsModel) volumePercent(s service.PeriodStats) float64 {
	if m.longest <= 0 {
		return 0
	}
	return s.TotalDistance / m.longest * 100
}
