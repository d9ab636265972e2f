// Package courseui provides the Bubble Tea course picker.
package courseui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/katalyst/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Model lists courses and lets the learner pick one.
type Model struct {
	courses []model.CourseSummary
	visible []model.CourseSummary

	table       table.Model
	filter      textinput.Model
	filterMode  bool
	selected    string
	hasSelected bool

	width  int
	height int
}

// NewModel builds a picker over courses.
func NewModel(courses []model.CourseSummary) *Model {
	m := &Model{courses: courses}
	m.filter = newFilterInput("Filter: ")
	m.table = table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(tableStyles())
	m.applyFilter()
	return m
}

// Selected returns the chosen course id once the picker has exited.
func (m *Model) Selected() (string, bool) {
	return m.selected, m.hasSelected
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "/":
			m.filterMode = true
			return m, m.filter.Focus()
		case "enter":
			row := m.table.Cursor()
			if row < 0 || row >= len(m.visible) {
				return m, nil
			}
			m.selected = m.visible[row].ID
			m.hasSelected = true
			return m, tea.Quit
		case "g", "home":
			m.table.GotoTop()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			return m, nil
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filterMode = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filterMode = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, c := range m.courses {
		if query == "" ||
			strings.Contains(strings.ToLower(c.ID), query) ||
			strings.Contains(strings.ToLower(c.Title), query) {
			m.visible = append(m.visible, c)
		}
	}
	rows := make([]table.Row, 0, len(m.visible))
	for _, c := range m.visible {
		rows = append(rows, table.Row{
			c.ID,
			c.Title,
			strconv.Itoa(c.LessonCount),
			strconv.Itoa(c.QuestionCount),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(maxInt(0, len(rows)-1))
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	header := titleStyle.Render("Choose a course")
	var body string
	if len(m.visible) == 0 {
		body = emptyStyle.Render("No courses match.")
	} else {
		body = m.table.View()
	}
	footer := helpStyle.Render("↑/↓ move · enter start · / filter · q quit")
	if m.filterMode || m.filter.Value() != "" {
		footer = m.filter.View()
	}
	out := strings.Join([]string{header, "", body, "", footer}, "\n")
	if m.width == 0 || m.height == 0 {
		return out
	}
	return fitLines(out, m.width, m.height)
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.table.SetColumns(columns(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, m.height-5))
	m.filter.Width = maxInt(10, m.width-lipgloss.Width(m.filter.Prompt)-2)
}

func columns(width int) []table.Column {
	titleWidth := maxInt(20, width-12-8-10-6)
	return []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Title", Width: titleWidth},
		{Title: "Lessons", Width: 8},
		{Title: "Questions", Width: 10},
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
