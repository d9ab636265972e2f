package catalog

import (
	"testing"

	"github.com/verte-zerg/katalyst/internal/apierr"
)

func TestParseCourseYAML(t *testing.T) {
	src := `
id: go_101
title: Go Basics
lessons:
  - id: lesson_syntax
    title: Syntax
    questions:
      - id: 1
        text: Keyword for functions?
        options: [fn, func, def]
        correctAnswer: func
      - id: q2
        text: Zero value of int?
        options: ["0", "nil"]
        correctAnswer: "0"
`
	course, err := ParseCourse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	qs := course.Questions()
	if course.ID != "go_101" || len(qs) != 2 {
		t.Fatalf("unexpected course: %+v", course)
	}
	if qs[0].ID != "1" || qs[1].ID != "q2" || qs[1].CorrectAnswer != "0" {
		t.Fatalf("unexpected questions: %+v", qs)
	}
}

func TestParseCourseJSON(t *testing.T) {
	src := `{"id":"c","title":"T","lessons":[{"id":"l","title":"L","questions":[{"id":7,"text":"?","options":["a"],"correctAnswer":"a"}]}]}`
	course, err := ParseCourse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if course.Lessons[0].Questions[0].ID != "7" {
		t.Fatalf("expected numeric id to decode, got %q", course.Lessons[0].Questions[0].ID)
	}
}

func TestParseCourseRejectsInvalid(t *testing.T) {
	_, err := ParseCourse([]byte("title: No id\nlessons: []\n"))
	if !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseCourse([]byte("id: [unterminated")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseCourseReadsUnquotedScalarOptions(t *testing.T) {
	src := `
id: ports
title: Ports
lessons:
  - id: lesson_http
    title: HTTP
    questions:
      - id: 5
        text: Default dev server port?
        options: [3000, 8080, 80.5, true]
        correctAnswer: 3000
`
	course, err := ParseCourse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := course.Questions()[0]
	want := []string{"3000", "8080", "80.5", "true"}
	if len(q.Options) != len(want) {
		t.Fatalf("unexpected options: %v", q.Options)
	}
	for i := range want {
		if q.Options[i] != want[i] {
			t.Fatalf("unexpected options: %v", q.Options)
		}
	}
	if q.CorrectAnswer != "3000" || !q.IsCorrect("3000") {
		t.Fatalf("unexpected answer: %q", q.CorrectAnswer)
	}
}

func TestParseCourseRejectsNestedOption(t *testing.T) {
	src := `
id: c
title: T
lessons:
  - id: l1
    title: L
    questions:
      - id: 1
        text: "?"
        options: [a, [b]]
        correctAnswer: a
`
	_, err := ParseCourse([]byte(src))
	if err == nil || err.Error() != "Invalid question structure in lesson l1" {
		t.Fatalf("expected question structure error, got %v", err)
	}
}

func TestDecodeJSONRejectsZeroQuestionID(t *testing.T) {
	body := `{"id":"c","title":"T","lessons":[{"id":"l1","title":"L","questions":[{"id":0,"text":"?","options":["a"],"correctAnswer":"a"}]}]}`
	_, err := DecodeJSON([]byte(body))
	if !apierr.Is(err, apierr.KindValidation) || err.Error() != "Invalid question structure in lesson l1" {
		t.Fatalf("expected question structure error, got %v", err)
	}
	body = `{"id":"c","title":"T","lessons":[{"id":"l1","title":"L","questions":[{"id":"0","text":"?","options":["a"],"correctAnswer":"a"}]}]}`
	if _, err := DecodeJSON([]byte(body)); err != nil {
		t.Fatalf("expected string id \"0\" to be accepted, got %v", err)
	}
}
