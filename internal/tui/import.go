package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"runlog/internal/service"
)

// maxListedResults caps the per-file lines shown after an import
const maxListedResults = 10

// ImportModel is the import screen model
type ImportModel struct {
	importer  *service.ImportService
	units     Units
	folder    string
	importing bool
	results   []service.ImportResult
	summary   service.ImportSummary
	err       error
	done      bool
}

// NewImportModel creates a new import model for the given folder
func NewImportModel(importer *service.ImportService, units Units, folder string) ImportModel {
	return ImportModel{
		importer: importer,
		units:    units,
		folder:   folder,
	}
}

// Init initializes the import screen
func (m ImportModel) Init() tea.Cmd {
	return nil
}

// ImportDoneMsg is sent when an import run finishes
type ImportDoneMsg struct {
	Results []service.ImportResult
	Err     error
}

// Update handles messages
func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ImportDoneMsg:
		m.importing = false
		m.done = true
		m.results = msg.Results
		m.summary = service.Summarize(msg.Results)
		m.err = msg.Err
		if m.summary.Imported > 0 {
			return m, func() tea.Msg { return ImportCompleteMsg{} }
		}

	case tea.KeyMsg:
		if !m.importing {
			switch msg.String() {
			case "enter", "i":
				if m.folder == "" {
					m.err = errors.New("no import folder configured")
					return m, nil
				}
				m.importing = true
				m.done = false
				m.err = nil
				m.results = nil
				return m, m.runImport
			}
		}
	}
	return m, nil
}

func (m ImportModel) runImport() tea.Msg {
	results, err := m.importer.ImportPath(context.Background(), m.folder)
	return ImportDoneMsg{Results: results, Err: err}
}

// View renders the import screen
func (m ImportModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Import Workouts")
	sections = append(sections, title)

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)))
		sections = append(sections, "\n"+statusStyle.Render("  Press 'i' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	switch {
	case m.importing:
		sections = append(sections, "", "  Importing from "+m.folder+"...", "",
			statusStyle.Render("  This may take a moment..."))
	case m.done:
		sections = append(sections, successStyle.Render("\n  Import complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to dashboard, 'i' to scan again"))
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ImportModel) renderStartPrompt() string {
	folder := m.folder
	if folder == "" {
		folder = "(not configured)"
	}

	lines := []string{
		"",
		"  This will import every TCX, GPX and FIT file in:",
		"",
		"    " + folder,
		"",
		"  New files are parsed, analyzed and checked for personal records.",
		"  Files imported before are skipped.",
		"",
		statusStyle.Render("  Press 'i' or Enter to start import"),
	}
	return strings.Join(lines, "\n")
}

func (m ImportModel) renderSummary() string {
	s := m.summary
	lines := []string{""}

	if s.Imported > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d workouts imported", s.Imported)))
	} else {
		lines = append(lines, statusStyle.Render("  No new workouts"))
	}
	if s.Duplicates > 0 {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  %d already imported", s.Duplicates)))
	}
	if s.Failed > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d files failed", s.Failed)))
	}

	var listed int
	for _, r := range m.results {
		if r.Status == service.StatusDuplicate {
			continue
		}
		if listed == maxListedResults {
			lines = append(lines, statusStyle.Render("  ..."))
			break
		}
		listed++
		lines = append(lines, m.formatResult(r))
	}

	return strings.Join(lines, "\n")
}

func (m ImportModel) formatResult(r service.ImportResult) string {
	name := filepath.Base(r.Path)
	if r.Status == service.StatusFailed {
		return errorStyle.Render(fmt.Sprintf("  ✗ %s: %v", name, r.Err))
	}
	line := fmt.Sprintf("  ✓ %-28s %-8s %10s", truncateName(name, 28), r.Sport, m.units.FormatDistance(r.DistanceM))
	if len(r.NewRecords) > 0 {
		line += fmt.Sprintf("  ★ %d new records", len(r.NewRecords))
	}
	return line
}
