package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"runlog/internal/service"
	"runlog/internal/store"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	units        Units
	data         *dashboardData
	loading      bool
	err          error
}

type dashboardData struct {
	summary    *service.Summary
	thisWeek   service.PeriodStats
	efficiency []service.EfficiencyPoint
	zones      []service.ZoneTotal
	recent     []store.Workout
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, units Units) DashboardModel {
	return DashboardModel{
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

type dashboardDataMsg struct {
	data *dashboardData
	err  error
}

func (m DashboardModel) loadData() tea.Msg {
	summary, err := m.queryService.Summary()
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	weeks, err := m.queryService.PeriodStats(service.PeriodWeekly, 1)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	efficiency, err := m.queryService.EfficiencyTrend(service.ZoneHistoryDays)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	zones, err := m.queryService.ZoneTotals(service.ZoneHistoryDays)
	if err != nil {
		return dashboardDataMsg{err: err}
	}
	recent, err := m.queryService.ListWorkouts(5, 0)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	data := &dashboardData{summary: summary, efficiency: efficiency, zones: zones, recent: recent}
	if len(weeks) > 0 {
		data.thisWeek = weeks[0]
	}
	return dashboardDataMsg{data: data}
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil || m.data.summary.TotalWorkouts == 0 {
		return "\n  No workouts yet. Press '5' to import activity files."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderTotalsCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	var middle []string
	if len(m.data.efficiency) > 2 {
		middle = append(middle, m.renderChart())
	}
	if zoneSeconds(m.data.zones) > 0 {
		if len(middle) > 0 {
			middle = append(middle, "  ")
		}
		middle = append(middle, m.renderZonesCard())
	}
	if len(middle) > 0 {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, middle...))
	}

	sections = append(sections, m.renderRecentWorkouts())

	help := statusStyle.Render("Press 'r' to refresh, '5' to import, '2' for workouts list")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderTotalsCard() string {
	title := cardTitleStyle.Render("All Time")
	s := m.data.summary

	lines := []string{
		RenderMetric("Workouts", humanize.Comma(int64(s.TotalWorkouts)), ""),
		RenderMetric("Distance", m.units.FormatDistance(s.TotalDistance), ""),
		RenderMetric("Time", formatDuration(int(s.TotalTime)), ""),
		RenderMetric("Calories", humanize.Comma(int64(s.TotalCalories)), ""),
		RenderMetric("This month", fmt.Sprintf("%s (%d)", m.units.FormatDistance(s.MonthDistance), s.MonthWorkouts), ""),
		RenderMetric("Week streak", fmt.Sprintf("%d", s.StreakWeeks), ""),
	}
	if s.Last != nil {
		lines = append(lines, "", statusStyle.Render("Last workout "+humanize.Time(s.Last.StartTime)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(42).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("This Week")
	w := m.data.thisWeek

	avgHR := "-"
	if w.AvgHR > 0 {
		avgHR = fmt.Sprintf("%.0f bpm", w.AvgHR)
	}

	lines := []string{
		RenderMetric("Workouts", fmt.Sprintf("%d", w.WorkoutCount), ""),
		RenderMetric("Distance", m.units.FormatDistance(w.TotalDistance), ""),
		RenderMetric("Time", formatDuration(int(w.TotalTime)), ""),
		RenderMetric("Avg pace", m.units.FormatPaceWithUnit(w.AvgPaceSecKm()), ""),
		RenderMetric("Avg HR", avgHR, ""),
	}
	if n := len(m.data.efficiency); n > 0 {
		latest := m.data.efficiency[n-1].Efficiency
		lines = append(lines, RenderMetric("Efficiency", fmt.Sprintf("%.2f m/beat", latest), efficiencyTrend(m.data.efficiency)))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(42).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Efficiency (m/beat) - Last %d Days", service.ZoneHistoryDays))

	values := make([]float64, len(m.data.efficiency))
	for i, p := range m.data.efficiency {
		values[i] = p.Efficiency
	}

	graph := asciigraph.Plot(values,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(2),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderZonesCard() string {
	title := cardTitleStyle.Render(fmt.Sprintf("HR Zones - Last %d Days", service.ZoneHistoryDays))

	var lines []string
	for _, z := range m.data.zones {
		lines = append(lines, fmt.Sprintf("%-3s %s %5.1f%%", z.Zone, RenderProgressBar(z.Percent/100, 16), z.Percent))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func zoneSeconds(zones []service.ZoneTotal) float64 {
	var total float64
	for _, z := range zones {
		total += z.Seconds
	}
	return total
}

func (m DashboardModel) renderRecentWorkouts() string {
	title := cardTitleStyle.Render("Recent Workouts")

	if len(m.data.recent) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No workouts yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-24s  %10s  %8s  %6s",
		"Date", "File", "Distance", "Pace", "HR"))

	rows := []string{header}
	for _, w := range m.data.recent {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-10s  %-24s  %10s  %8s  %6s",
			w.StartTime.Format("Jan 02"),
			truncateName(w.FileName, 24),
			m.units.FormatDistance(w.DistanceM),
			m.units.FormatPace(deref(w.AvgPaceSecKm)),
			formatHR(w.AvgHR),
		)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

// efficiencyTrend compares the latest efficiency with the mean of the
// preceding points. Efficiency going up reads as improvement.
func efficiencyTrend(points []service.EfficiencyPoint) string {
	if len(points) < 2 {
		return ""
	}
	var sum float64
	for _, p := range points[:len(points)-1] {
		sum += p.Efficiency
	}
	mean := sum / float64(len(points)-1)
	latest := points[len(points)-1].Efficiency
	switch {
	case latest > mean*1.02:
		return "↑"
	case latest < mean*0.98:
		return "↓"
	}
	return "→"
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func formatHR(hr *float64) string {
	if hr == nil || *hr <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f", *hr)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
