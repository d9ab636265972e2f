package model

import (
	"encoding/json"
	"testing"
)

func sampleCourse() Course {
	return Course{
		ID:    "c1",
		Title: "Course",
		Lessons: []Lesson{
			{ID: "l1", Questions: []Question{{ID: "1"}, {ID: "2"}}},
			{ID: "l2", Questions: []Question{{ID: "3"}}},
		},
	}
}

func TestCourseQuestionsFlattensInOrder(t *testing.T) {
	qs := sampleCourse().Questions()
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	for i, want := range []QuestionID{"1", "2", "3"} {
		if qs[i].ID != want {
			t.Fatalf("expected question %d to be %q, got %q", i, want, qs[i].ID)
		}
	}
}

func TestCourseLessonAt(t *testing.T) {
	c := sampleCourse()
	cases := map[int]string{0: "l1", 1: "l1", 2: "l2"}
	for idx, want := range cases {
		l, ok := c.LessonAt(idx)
		if !ok || l.ID != want {
			t.Fatalf("expected lesson %q at %d, got %q (ok=%v)", want, idx, l.ID, ok)
		}
	}
	if _, ok := c.LessonAt(3); ok {
		t.Fatalf("expected no lesson past the end")
	}
	if _, ok := c.LessonAt(-1); ok {
		t.Fatalf("expected no lesson for negative index")
	}
}

func TestQuestionIDAcceptsNumbersAndStrings(t *testing.T) {
	var q struct {
		A QuestionID `json:"a"`
		B QuestionID `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": 7, "b": "q-7"}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.A != "7" || q.B != "q-7" {
		t.Fatalf("unexpected ids: %q %q", q.A, q.B)
	}
	out, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"a":7,"b":"q-7"}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
}

func TestProgressRecordApply(t *testing.T) {
	rec := NewProgressRecord()
	three, five := 3, 5
	rec.Apply("lessonA", &three, true)
	rec.Apply("lessonA", &five, true)
	rec.Apply("lessonB", nil, false)

	if rec.QuizScores["lessonA"] != 5 {
		t.Fatalf("expected score 5, got %d", rec.QuizScores["lessonA"])
	}
	if _, ok := rec.QuizScores["lessonB"]; ok {
		t.Fatalf("expected no score for lessonB")
	}
	if len(rec.CompletedLessons) != 1 || rec.CompletedLessons[0] != "lessonA" {
		t.Fatalf("expected lessonA completed once, got %v", rec.CompletedLessons)
	}
}

func TestSessionStateCloneIsDeep(t *testing.T) {
	s := NewSessionState()
	s.Answers["1"] = "A"
	c := s.Clone()
	c.Answers["2"] = "B"
	if len(s.Answers) != 1 {
		t.Fatalf("expected original answers untouched, got %v", s.Answers)
	}
}
