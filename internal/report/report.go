// Package report renders learner progress and course listings as text.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/katalyst/internal/model"
)

const (
	terminalWidthBackup = 80
	minTitleWidth       = 12

	statusCompleted  = "completed"
	statusInProgress = "in progress"
	statusNotStarted = "not started"

	noProgressMsg = "No progress recorded for this user and course"
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Options tunes rendering.
type Options struct {
	Color bool
	Width int
}

// OptionsFor picks color and width for w, honoring NO_COLOR.
func OptionsFor(w io.Writer) Options {
	opts := Options{Width: terminalWidthBackup}
	file, ok := w.(*os.File)
	if !ok {
		return opts
	}
	fd := int(file.Fd())
	if !term.IsTerminal(fd) {
		return opts
	}
	opts.Color = os.Getenv("NO_COLOR") == ""
	if width, _, err := term.GetSize(fd); err == nil && width > 0 {
		opts.Width = width
	}
	return opts
}

// Progress is a learner's record for one course.
type Progress struct {
	Course model.Course
	UserID string
	Record model.ProgressRecord
}

// LessonRow is one line of a progress report.
type LessonRow struct {
	LessonID string
	Title    string
	Score    *int
	Status   string
}

// Rows lists every lesson of the course in order, then any recorded lessons
// the course no longer has.
func (p Progress) Rows() []LessonRow {
	rows := make([]LessonRow, 0, len(p.Course.Lessons))
	seen := map[string]bool{}
	for _, l := range p.Course.Lessons {
		rows = append(rows, p.row(l.ID, l.Title))
		seen[l.ID] = true
	}
	for _, id := range p.Record.CompletedLessons {
		if !seen[id] {
			rows = append(rows, p.row(id, ""))
			seen[id] = true
		}
	}
	var extra []string
	for id := range p.Record.QuizScores {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		rows = append(rows, p.row(id, ""))
	}
	return rows
}

func (p Progress) row(id, title string) LessonRow {
	r := LessonRow{LessonID: id, Title: title, Status: statusNotStarted}
	if score, ok := p.Record.QuizScores[id]; ok {
		s := score
		r.Score = &s
		r.Status = statusInProgress
	}
	if p.Record.HasCompleted(id) {
		r.Status = statusCompleted
	}
	return r
}

// WriteProgress prints a progress report.
func WriteProgress(w io.Writer, p Progress, opts Options) error {
	title := p.Course.Title
	if title == "" {
		title = p.Course.ID
	}
	lines := []string{
		style(opts, headingStyle, fmt.Sprintf("%s (%s)", title, p.Course.ID)),
		fmt.Sprintf("Learner: %s", p.UserID),
	}
	if len(p.Record.CompletedLessons) == 0 && len(p.Record.QuizScores) == 0 {
		lines = append(lines, style(opts, mutedStyle, noProgressMsg))
		return writeLines(w, lines)
	}

	rows := p.Rows()
	completed := 0
	for _, r := range rows {
		if r.Status == statusCompleted {
			completed++
		}
	}
	lines = append(lines, fmt.Sprintf("Completed %d of %d lessons", completed, len(rows)), "")

	titleWidth := opts.Width - 40
	if titleWidth < minTitleWidth {
		titleWidth = minTitleWidth
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		score := "-"
		if r.Score != nil {
			score = strconv.Itoa(*r.Score)
		}
		cells = append(cells, []string{r.LessonID, truncate(r.Title, titleWidth), score, r.Status})
	}
	table := formatTable([]string{"Lesson", "Title", "Score", "Status"}, cells, map[int]bool{2: true})
	for i, line := range table {
		if i > 0 && rows[i-1].Status == statusCompleted {
			line = style(opts, doneStyle, line)
		}
		lines = append(lines, line)
	}
	return writeLines(w, lines)
}

// WriteCourses prints a course listing.
func WriteCourses(w io.Writer, courses []model.CourseSummary, opts Options) error {
	if len(courses) == 0 {
		return writeLines(w, []string{style(opts, mutedStyle, "No courses available")})
	}
	titleWidth := opts.Width - 40
	if titleWidth < minTitleWidth {
		titleWidth = minTitleWidth
	}
	cells := make([][]string, 0, len(courses))
	for _, c := range courses {
		cells = append(cells, []string{
			c.ID,
			truncate(c.Title, titleWidth),
			strconv.Itoa(c.LessonCount),
			strconv.Itoa(c.QuestionCount),
		})
	}
	table := formatTable([]string{"ID", "Title", "Lessons", "Questions"}, cells, map[int]bool{2: true, 3: true})
	if len(table) > 0 {
		table[0] = style(opts, headingStyle, table[0])
	}
	return writeLines(w, table)
}

func style(opts Options, s lipgloss.Style, text string) string {
	if !opts.Color {
		return text
	}
	return s.Render(text)
}

func writeLines(w io.Writer, lines []string) error {
	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
