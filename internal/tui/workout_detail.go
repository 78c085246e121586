package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"runlog/internal/analysis"
	"runlog/internal/service"
)

// chartPoints caps the number of samples drawn per chart
const chartPoints = 60

// WorkoutDetailModel is the workout detail screen model
type WorkoutDetailModel struct {
	queryService *service.QueryService
	units        Units
	workoutID    int64
	detail       *service.WorkoutDetail
	heartRate    []float64
	viewport     viewport.Model
	loading      bool
	err          error
	width        int
	height       int
	ready        bool
}

// NewWorkoutDetailModel creates a new workout detail model
func NewWorkoutDetailModel(qs *service.QueryService, units Units, workoutID int64, width, height int) WorkoutDetailModel {
	m := WorkoutDetailModel{
		queryService: qs,
		units:        units,
		workoutID:    workoutID,
		loading:      true,
		width:        width,
		height:       height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6) // Reserve space for header/footer
		m.ready = true
	}

	return m
}

// Init initializes the workout detail screen
func (m WorkoutDetailModel) Init() tea.Cmd {
	return m.loadDetail
}

type workoutDetailLoadedMsg struct {
	detail    *service.WorkoutDetail
	heartRate []float64
	err       error
}

func (m WorkoutDetailModel) loadDetail() tea.Msg {
	detail, err := m.queryService.WorkoutDetail(m.workoutID)
	if err != nil {
		return workoutDetailLoadedMsg{err: err}
	}

	// The HR chart is optional; a failed trackpoint load still shows the report
	var hr []float64
	if points, err := m.queryService.Trackpoints(m.workoutID); err == nil {
		for _, p := range points {
			if p.HeartRate != nil {
				hr = append(hr, float64(*p.HeartRate))
			} else {
				hr = append(hr, 0)
			}
		}
	}
	return workoutDetailLoadedMsg{detail: detail, heartRate: hr}
}

// Update handles messages
func (m WorkoutDetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case workoutDetailLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.detail = msg.detail
		m.heartRate = msg.heartRate
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
		if m.detail != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadDetail
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the workout detail screen
func (m WorkoutDetailModel) View() string {
	if m.loading {
		return "\n  Loading workout..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  esc: back to list  j/k or arrows: scroll  r: refresh")

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m WorkoutDetailModel) renderContent() string {
	if m.detail == nil {
		return "No data"
	}

	sections := []string{m.renderHeader()}

	report := m.detail.Report
	if report == nil {
		sections = append(sections, warningStyle.Render("  No analysis report stored. Run 'runlog reanalyze' to compute one."))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.renderSummary(report))

	if len(report.Splits) > 0 {
		sections = append(sections, m.renderSplits(report))
	}
	if report.Zones.Total() > 0 {
		sections = append(sections, renderZones(report.Zones))
	}
	if report.Intervals != nil {
		sections = append(sections, m.renderIntervals(report.Intervals))
	}
	if len(report.Pace) > 5 {
		sections = append(sections, m.renderPaceChart(report.Pace))
	}
	if len(m.heartRate) > 5 {
		sections = append(sections, renderHRChart(m.heartRate))
	}
	if len(report.Records) > 0 {
		sections = append(sections, m.renderRecords(report.Records))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m WorkoutDetailModel) renderHeader() string {
	w := m.detail.Workout
	title := cardTitleStyle.Render(w.FileName)

	date := w.StartTime.Local().Format("Monday, January 2, 2006 at 3:04 PM")
	subtitle := lipgloss.NewStyle().Foreground(mutedColor).Render(w.Sport + "  •  " + date)

	stats := fmt.Sprintf("%s  •  %s  •  %s",
		m.units.FormatDistance(w.DistanceM),
		service.FormatDuration(w.TotalTimeSec),
		m.units.FormatPaceWithUnit(deref(w.AvgPaceSecKm)))
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	lines := []string{"", title, subtitle, statsLine}
	if w.Notes != "" {
		lines = append(lines, statusStyle.Render(w.Notes))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func (m WorkoutDetailModel) renderSummary(r *analysis.Report) string {
	s := r.Summary
	lines := []string{RenderSection("Summary")}

	if s.AvgEfficiency != nil {
		lines = append(lines, fmt.Sprintf("  Efficiency:           %.2f m/beat", *s.AvgEfficiency))
	}
	if s.AerobicDecoupling != nil {
		lines = append(lines, fmt.Sprintf("  Aerobic Decoupling:   %.1f%% (%s)", *s.AerobicDecoupling,
			analysis.DecouplingAssessment(*s.AerobicDecoupling)))
	}
	if s.AvgHR != nil {
		lines = append(lines, fmt.Sprintf("  Average HR:           %.0f bpm", *s.AvgHR))
	}
	if s.MaxHR != nil {
		lines = append(lines, fmt.Sprintf("  Max HR:               %d bpm", *s.MaxHR))
	}
	if s.AvgCadence != nil {
		lines = append(lines, fmt.Sprintf("  Average Cadence:      %.0f spm", *s.AvgCadence))
	}
	if s.Calories != nil {
		lines = append(lines, fmt.Sprintf("  Calories:             %d", *s.Calories))
	}
	lines = append(lines, fmt.Sprintf("  Trackpoints:          %d", s.Points))
	if s.InvalidCoordinates > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  Invalid coordinates:  %d", s.InvalidCoordinates)))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m WorkoutDetailModel) renderSplits(report *analysis.Report) string {
	lines := []string{RenderSection("Splits")}

	header := fmt.Sprintf("  %-6s  %10s  %8s  %8s  %6s  %7s", "Split", "Distance", "Time", "Pace", "HR", "Cadence")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, s := range report.Splits {
		label := fmt.Sprintf("%d", s.Index)
		if s.Partial {
			label += "*"
		}
		row := fmt.Sprintf("  %-6s  %10s  %8s  %8s  %6s  %7s",
			label,
			m.units.FormatDistance(s.Distance),
			service.FormatDuration(s.Duration),
			m.units.FormatPaceMinKm(s.Pace),
			formatHR(s.AvgHR),
			formatHR(s.AvgCadence),
		)

		switch {
		case s.Fastest:
			lines = append(lines, successStyle.Bold(true).Render(row+"  fastest"))
		case s.Slowest:
			lines = append(lines, errorStyle.Render(row+"  slowest"))
		default:
			lines = append(lines, row)
		}
	}

	if f := report.FastestSplit(); f != nil {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  Fastest full split: #%d at %s",
			f.Index, m.units.FormatPaceWithUnit(paceSecKm(f.Pace)))))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderZones(zones analysis.ZoneSeconds) string {
	lines := []string{RenderSection("Heart Rate Zones")}

	for i, label := range analysis.ZoneLabels {
		pct := zones.Percent(label)
		bar := RenderBar(pct, 30, zoneColors[i])
		line := fmt.Sprintf("  %-4s %-31s %5.1f%% (%s)", label, bar, pct, service.FormatDuration(zones[label]))
		lines = append(lines, line)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m WorkoutDetailModel) renderIntervals(ia *analysis.IntervalAnalysis) string {
	lines := []string{RenderSection("Intervals")}

	detected := fmt.Sprintf("  Detected from %s (threshold %.1f)", ia.Signal, ia.Threshold)
	if ia.HalfStepCorrected {
		detected += ", cadence doubled"
	}
	lines = append(lines, statusStyle.Render(detected))

	header := fmt.Sprintf("  %-10s  %8s  %10s  %8s  %7s  %6s", "Phase", "Time", "Distance", "Pace", "Delta", "HR")
	lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Render(header))

	for _, iv := range ia.Intervals {
		name := string(iv.Phase)
		if iv.Ordinal > 0 {
			name = fmt.Sprintf("%s %d", iv.Phase, iv.Ordinal)
		}
		delta := "-"
		if iv.PaceDelta != nil {
			delta = fmt.Sprintf("%+.2f", *iv.PaceDelta)
		}
		row := fmt.Sprintf("  %-10s  %8s  %10s  %8s  %7s  %6s",
			name,
			service.FormatDuration(iv.Duration),
			m.units.FormatDistance(iv.Distance),
			m.units.FormatPaceMinKm(iv.Pace),
			delta,
			formatHR(iv.AvgHR),
		)
		lines = append(lines, phaseStyles[string(iv.Phase)].Render(row))
	}

	lines = append(lines, "",
		fmt.Sprintf("  Run:       %d × %s, HR %s", ia.Run.Count, m.units.FormatPaceMinKm(ia.Run.Pace), formatHR(ia.Run.AvgHR)),
		fmt.Sprintf("  Recovery:  %d × %s, HR %s", ia.Recovery.Count, m.units.FormatPaceMinKm(ia.Recovery.Pace), formatHR(ia.Recovery.AvgHR)),
	)
	if best := fastestRun(ia.RunIntervals()); best != nil {
		lines = append(lines, fmt.Sprintf("  Best run:  #%d at %s", best.Ordinal, m.units.FormatPaceWithUnit(paceSecKm(best.Pace))))
	}
	if ia.Progression != nil {
		lines = append(lines, fmt.Sprintf("  Progression: %s", *ia.Progression))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m WorkoutDetailModel) renderPaceChart(blocks []analysis.PaceBlock) string {
	lines := []string{RenderSection(fmt.Sprintf("Pace Over Time (%s)", m.units.PaceLabel()))}

	data := make([]float64, len(blocks))
	for i, b := range blocks {
		if b.Pace != nil {
			data[i] = *b.Pace
		}
	}
	data = trimTrailingZeros(downsample(m.units.ConvertPaceData(data), chartPoints))

	if len(data) > 2 {
		lines = append(lines, asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(50),
			asciigraph.Precision(1),
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderHRChart(hr []float64) string {
	lines := []string{RenderSection("Heart Rate Over Time (bpm)")}

	data := trimTrailingZeros(downsample(hr, chartPoints))
	if len(data) > 2 {
		lines = append(lines, asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(50),
		))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func (m WorkoutDetailModel) renderRecords(records []analysis.Record) string {
	lines := []string{RenderSection("Best Efforts")}

	held := make(map[string]bool, len(m.detail.Records))
	for _, r := range m.detail.Records {
		held[r.Category] = true
	}

	for _, r := range records {
		line := fmt.Sprintf("  %-14s %8s  (%s)  %s",
			r.Label,
			service.FormatDuration(r.ExactDuration),
			m.units.FormatPaceWithUnit(r.PaceSecPerKm()),
			r.Segment)
		if held[r.Category()] {
			lines = append(lines, lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(line+"  ★ PR"))
		} else {
			lines = append(lines, line)
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// downsample averages data into targetLen buckets, ignoring zero samples
func downsample(data []float64, targetLen int) []float64 {
	if len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := range targetLen {
		start := int(float64(i) * ratio)
		end := min(int(float64(i+1)*ratio), len(data))

		sum := 0.0
		count := 0
		for _, v := range data[start:end] {
			if v > 0 {
				sum += v
				count++
			}
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}

func trimTrailingZeros(data []float64) []float64 {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}

// fastestRun returns the run interval with the lowest pace, or nil
func fastestRun(runs []analysis.Interval) *analysis.Interval {
	var best *analysis.Interval
	for i := range runs {
		if runs[i].Pace == nil {
			continue
		}
		if best == nil || *runs[i].Pace < *best.Pace {
			best = &runs[i]
		}
	}
	return best
}

// paceSecKm converts a min/km pace to seconds per km, 0 when missing
func paceSecKm(minKm *float64) float64 {
	if minKm == nil {
		return 0
	}
	return *minKm * 60
}
