// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/model"
	"github.com/verte-zerg/katalyst/internal/quiz"
)

const (
	emptySequenceMsg = "Error: No questions found in sequence."
	restartHint      = "Press r to restart the quiz or q to quit."
	saveFailedMsg    = "Progress could not be saved locally."
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	optionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Underline(true)
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle      = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

type openedMsg struct{}

// Model implements the Bubble Tea quiz UI.
type Model struct {
	session *quiz.Session
	log     *logger.Logger

	loaded bool
	cursor int
	notice string

	width  int
	height int

	keys keyMap
	help help.Model
	bar  progress.Model
}

// NewModel wraps a session that has not been opened yet.
func NewModel(session *quiz.Session, log *logger.Logger) *Model {
	if log == nil {
		log = logger.Nop()
	}
	bar := progress.New(progress.WithSolidFill("#C89A3A"), progress.WithoutPercentage())
	return &Model{
		session: session,
		log:     log,
		keys:    defaultKeyMap(),
		help:    help.New(),
		bar:     bar,
	}
}

// Init implements tea.Model. The session is opened off the update loop and
// left untouched until openedMsg arrives.
func (m *Model) Init() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		session.Open(context.Background())
		return openedMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = clampInt(m.contentWidth()-4, 10, 60)
		return m, nil
	case openedMsg:
		m.loaded = true
		m.syncCursor()
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if !m.loaded {
			return m, nil
		}
		m.handleKey(msg)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	ctx := context.Background()
	if m.session.Phase() == quiz.PhaseCompleted {
		if key.Matches(msg, m.keys.Retake) {
			m.report(m.session.Reset(ctx))
			m.syncCursor()
		}
		return
	}
	q, ok := m.session.Current()
	if !ok {
		// A restored position can point past the last question.
		if m.session.Total() > 0 && key.Matches(msg, m.keys.Retake) {
			m.report(m.session.Reset(ctx))
			m.syncCursor()
		}
		return
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Choose):
		m.choose(ctx, q, m.cursor)
	case key.Matches(msg, m.keys.Next):
		if !m.session.Answered() {
			return
		}
		m.report(m.session.Advance(ctx))
		m.syncCursor()
	case key.Matches(msg, m.keys.Prev):
		m.session.Retreat()
		m.syncCursor()
	default:
		if idx, ok := optionIndex(msg, len(q.Options)); ok {
			m.cursor = idx
			m.choose(ctx, q, idx)
		}
	}
}

func (m *Model) choose(ctx context.Context, q model.Question, idx int) {
	if idx < 0 || idx >= len(q.Options) {
		return
	}
	_, err := m.session.SelectAnswer(ctx, q.Options[idx])
	m.report(err)
}

func (m *Model) report(err error) {
	if err == nil {
		m.notice = ""
		return
	}
	m.log.Warn("failed to save session", "error", err)
	m.notice = saveFailedMsg
}

// syncCursor points the cursor at the recorded answer, or the first option.
func (m *Model) syncCursor() {
	m.cursor = 0
	q, ok := m.session.Current()
	if !ok {
		return
	}
	answer, ok := m.session.CurrentAnswer()
	if !ok {
		return
	}
	for i, opt := range q.Options {
		if opt == answer {
			m.cursor = i
			return
		}
	}
}

func optionIndex(msg tea.KeyMsg, count int) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	idx := int(r - '1')
	return idx, idx < count
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	switch {
	case !m.loaded:
		body = mutedStyle.Render("Loading quiz...")
	case m.session.Total() == 0:
		body = incorrectStyle.Render(emptySequenceMsg)
	case m.session.Phase() == quiz.PhaseCompleted:
		body = m.renderSummary()
	default:
		body = m.renderQuestion()
	}
	if m.width == 0 || m.height == 0 {
		return body
	}
	footer := m.help.View(m.keys)
	if m.notice != "" {
		footer = incorrectStyle.Render(m.notice) + "  " + footer
	}
	bodyHeight := m.height - 1
	if bodyHeight < 1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
	}
	content := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return content + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	width := int(float64(m.width) * 0.70)
	if width < 20 {
		width = 20
	}
	return width
}

func (m *Model) renderQuestion() string {
	q, ok := m.session.Current()
	if !ok {
		return lipgloss.JoinVertical(lipgloss.Center,
			incorrectStyle.Render(emptySequenceMsg),
			mutedStyle.Render(restartHint),
		)
	}
	width := m.contentWidth() - 6
	lines := []string{
		titleStyle.Render(m.session.Course().Title),
		m.renderProgress(),
		"",
		questionStyle.Render(wrapText(q.Text, width)),
		"",
	}
	answer, answered := m.session.CurrentAnswer()
	for i, opt := range q.Options {
		lines = append(lines, renderOption(i, opt, i == m.cursor, answered, answer, q.CorrectAnswer, width))
	}
	if answered {
		lines = append(lines, "", renderFeedback(q, answer))
		if m.session.IsLast() {
			lines = append(lines, mutedStyle.Render("Press → to finish the quiz."))
		}
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderProgress() string {
	pct := quiz.ProgressPercent(m.session.Position(), m.session.Total())
	label := fmt.Sprintf("Question %d / %d", m.session.Position()+1, m.session.Total())
	return m.bar.ViewAs(pct/100) + " " + mutedStyle.Render(label)
}

func renderOption(idx int, opt string, focused, answered bool, answer, correct string, width int) string {
	marker := "  "
	if focused && !answered {
		marker = "> "
	}
	text := fmt.Sprintf("%s%d. %s", marker, idx+1, wrapText(opt, width-5))
	switch {
	case answered && opt == correct:
		return correctStyle.Render(text)
	case answered && opt == answer:
		return incorrectStyle.Render(text)
	case focused && !answered:
		return cursorStyle.Render(text)
	default:
		return optionStyle.Render(text)
	}
}

func renderFeedback(q model.Question, answer string) string {
	if q.IsCorrect(answer) {
		return correctStyle.Render("CORRECT")
	}
	return incorrectStyle.Render("INCORRECT") + mutedStyle.Render(" Correct answer: "+q.CorrectAnswer)
}

func (m *Model) renderSummary() string {
	pct := m.session.Percentage()
	lines := []string{
		titleStyle.Render("Quiz Completed!"),
		"",
		fmt.Sprintf("You scored %d out of %d", m.session.Score(), m.session.Total()),
		questionStyle.Render(fmt.Sprintf("%d%%", pct)),
		quiz.SummaryMessage(pct),
		"",
		mutedStyle.Render("Press r to retake the quiz or q to quit."),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
