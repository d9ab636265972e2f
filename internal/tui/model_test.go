package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/katalyst/internal/model"
	"github.com/verte-zerg/katalyst/internal/quiz"
)

type memSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memSnapshots) LoadSnapshot(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memSnapshots) DeleteSnapshot(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func twoQuestionCourse() model.Course {
	return model.Course{ID: "c1", Title: "Frontend Basics", Lessons: []model.Lesson{{
		ID: "lesson_1", Title: "Intro", Questions: []model.Question{
			{ID: "1", Text: "Largest heading?", Options: []string{"<h6>", "<h1>"}, CorrectAnswer: "<h1>"},
			{ID: "2", Text: "End tag character?", Options: []string{"/", "*"}, CorrectAnswer: "/"},
		},
	}}}
}

func openModel(t *testing.T, course model.Course) *Model {
	t.Helper()
	sess := quiz.NewSession(course, &memSnapshots{data: map[string][]byte{}}, nil, quiz.Options{})
	m := NewModel(sess, nil)
	if !strings.Contains(m.View(), "Loading quiz") {
		t.Fatalf("expected loading view, got %q", m.View())
	}
	msg := m.Init()()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(msg)
	return m
}

func press(m *Model, msgs ...tea.KeyMsg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestQuizFlowToSummary(t *testing.T) {
	m := openModel(t, twoQuestionCourse())
	view := m.View()
	if !strings.Contains(view, "Largest heading?") || !strings.Contains(view, "Question 1 / 2") {
		t.Fatalf("expected first question, got:\n%s", view)
	}

	press(m, keyRight)
	if m.session.Position() != 0 {
		t.Fatalf("expected next to be blocked before answering")
	}

	press(m, keyDown, keyEnter)
	if !strings.Contains(m.View(), "CORRECT") {
		t.Fatalf("expected correct feedback, got:\n%s", m.View())
	}
	press(m, runes("1"))
	if m.session.Score() != 1 {
		t.Fatalf("expected answer to stay final, score=%d", m.session.Score())
	}

	press(m, keyRight, runes("2"))
	view = m.View()
	if !strings.Contains(view, "INCORRECT") || !strings.Contains(view, "Correct answer: /") {
		t.Fatalf("expected incorrect feedback, got:\n%s", view)
	}

	press(m, keyRight)
	view = m.View()
	for _, want := range []string{"Quiz Completed!", "You scored 1 out of 2", "50%", "Not bad, keep learning!"} {
		if !strings.Contains(view, want) {
			t.Fatalf("summary missing %q:\n%s", want, view)
		}
	}

	press(m, runes("r"))
	if m.session.Phase() != quiz.PhaseActive || m.session.Score() != 0 || m.session.Position() != 0 {
		t.Fatalf("expected retake to reset the session")
	}
	if !strings.Contains(m.View(), "Largest heading?") {
		t.Fatalf("expected first question after retake")
	}
}

func TestRetreatRestoresCursorOnAnswer(t *testing.T) {
	m := openModel(t, twoQuestionCourse())
	press(m, runes("2"), keyRight)
	if m.cursor != 0 {
		t.Fatalf("expected cursor reset on new question, got %d", m.cursor)
	}
	press(m, keyLeft)
	if m.session.Position() != 0 || m.cursor != 1 {
		t.Fatalf("expected cursor on recorded answer, position=%d cursor=%d", m.session.Position(), m.cursor)
	}
}

func TestEmptySequence(t *testing.T) {
	m := openModel(t, model.Course{ID: "empty", Title: "Empty"})
	if !strings.Contains(m.View(), emptySequenceMsg) {
		t.Fatalf("expected empty sequence error, got:\n%s", m.View())
	}
	press(m, keyEnter, keyRight)
}

func TestRetakeRecoversPositionPastEnd(t *testing.T) {
	state := model.NewSessionState()
	state.Position = 5
	data, err := quiz.EncodeState(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	store := &memSnapshots{data: map[string][]byte{quiz.SnapshotKey("c1"): data}}
	sess := quiz.NewSession(twoQuestionCourse(), store, nil, quiz.Options{})
	m := NewModel(sess, nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(m.Init()())

	view := m.View()
	if !strings.Contains(view, emptySequenceMsg) || !strings.Contains(view, restartHint) {
		t.Fatalf("expected restart hint for position past end, got:\n%s", view)
	}
	press(m, keyEnter, keyRight)
	if m.session.Position() != 5 {
		t.Fatalf("expected other keys to be ignored, position=%d", m.session.Position())
	}

	press(m, runes("r"))
	if m.session.Position() != 0 || m.session.Phase() != quiz.PhaseActive {
		t.Fatalf("expected retake to reset the session, position=%d", m.session.Position())
	}
	if !strings.Contains(m.View(), "Question 1 / 2") {
		t.Fatalf("expected first question after retake, got:\n%s", m.View())
	}
	if _, ok := store.data[quiz.SnapshotKey("c1")]; ok {
		t.Fatalf("expected snapshot to be erased")
	}
}

func TestQuitKeys(t *testing.T) {
	m := openModel(t, twoQuestionCourse())
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestOptionIndex(t *testing.T) {
	if idx, ok := optionIndex(runes("3"), 4); !ok || idx != 2 {
		t.Fatalf("expected index 2, got %d ok=%v", idx, ok)
	}
	if _, ok := optionIndex(runes("5"), 4); ok {
		t.Fatalf("expected out of range digit to be ignored")
	}
	if _, ok := optionIndex(runes("x"), 4); ok {
		t.Fatalf("expected letters to be ignored")
	}
}
