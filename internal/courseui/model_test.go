package courseui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/katalyst/internal/model"
)

func sampleCourses() []model.CourseSummary {
	return []model.CourseSummary{
		{ID: "course_101", Title: "Frontend Basics", LessonCount: 1, QuestionCount: 5},
		{ID: "course_102", Title: "Backend Basics", LessonCount: 1, QuestionCount: 5},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestEnterSelectsHighlightedCourse(t *testing.T) {
	m := NewModel(sampleCourses())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected quit after selection")
	}
	id, ok := m.Selected()
	if !ok || id != "course_102" {
		t.Fatalf("expected course_102 selected, got %q ok=%v", id, ok)
	}
}

func TestFilterNarrowsRows(t *testing.T) {
	m := NewModel(sampleCourses())
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	m.Update(runes("/"))
	for _, r := range "front" {
		m.Update(runes(string(r)))
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.visible) != 1 || m.visible[0].ID != "course_101" {
		t.Fatalf("expected filter to keep course_101, got %+v", m.visible)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if id, ok := m.Selected(); !ok || id != "course_101" {
		t.Fatalf("expected course_101 selected, got %q", id)
	}
}

func TestNoMatches(t *testing.T) {
	m := NewModel(sampleCourses())
	m.Update(runes("/"))
	m.Update(runes("z"))
	if !strings.Contains(m.View(), "No courses match.") {
		t.Fatalf("expected empty notice, got:\n%s", m.View())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.visible) != 2 {
		t.Fatalf("expected esc to clear the filter, got %d rows", len(m.visible))
	}
}

func TestQuitWithoutSelection(t *testing.T) {
	m := NewModel(sampleCourses())
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := m.Selected(); ok {
		t.Fatalf("expected no selection")
	}
}
