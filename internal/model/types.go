// Package model defines shared data structures.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// QuestionID identifies a question within a course. Catalogs may encode it
// as a JSON number or a JSON string.
type QuestionID string

// UnmarshalJSON accepts both numeric and string identifiers.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id must be a string or number: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// MarshalJSON writes integer-looking identifiers back as numbers.
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// Question is a single multiple-choice question.
type Question struct {
	ID            QuestionID `json:"id"`
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correctAnswer"`
}

// IsCorrect reports whether option is the designated correct answer.
func (q Question) IsCorrect(option string) bool {
	return option == q.CorrectAnswer
}

// Lesson groups ordered questions.
type Lesson struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Course is an ordered list of lessons.
type Course struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Questions returns the flattened question sequence: lessons in order, then
// questions in order within each lesson.
func (c Course) Questions() []Question {
	total := 0
	for _, l := range c.Lessons {
		total += len(l.Questions)
	}
	out := make([]Question, 0, total)
	for _, l := range c.Lessons {
		out = append(out, l.Questions...)
	}
	return out
}

// LessonAt returns the lesson containing the question at the given index of
// the flattened sequence.
func (c Course) LessonAt(index int) (Lesson, bool) {
	if index < 0 {
		return Lesson{}, false
	}
	offset := 0
	for _, l := range c.Lessons {
		if index < offset+len(l.Questions) {
			return l, true
		}
		offset += len(l.Questions)
	}
	return Lesson{}, false
}

// Summary condenses a course for listings.
func (c Course) Summary() CourseSummary {
	return CourseSummary{
		ID:            c.ID,
		Title:         c.Title,
		LessonCount:   len(c.Lessons),
		QuestionCount: len(c.Questions()),
	}
}

// CourseSummary is the listing view of a course.
type CourseSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	LessonCount   int    `json:"lessonCount"`
	QuestionCount int    `json:"questionCount"`
}

// SessionState is the learner-held quiz state for one course.
type SessionState struct {
	Position  int                   `json:"currentQuestionIndex"`
	Answers   map[QuestionID]string `json:"answers"`
	Score     int                   `json:"score"`
	Completed bool                  `json:"isFinished"`
}

// NewSessionState returns fresh-session defaults.
func NewSessionState() SessionState {
	return SessionState{Answers: map[QuestionID]string{}}
}

// Clone returns a deep copy of the state.
func (s SessionState) Clone() SessionState {
	answers := make(map[QuestionID]string, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	s.Answers = answers
	return s
}

// ProgressRecord is the server-held progress for one learner and course.
type ProgressRecord struct {
	CompletedLessons []string       `json:"completedLessons"`
	QuizScores       map[string]int `json:"quizScores"`
}

// NewProgressRecord returns an empty record.
func NewProgressRecord() ProgressRecord {
	return ProgressRecord{CompletedLessons: []string{}, QuizScores: map[string]int{}}
}

// HasCompleted reports whether lessonID is in the completed set.
func (r ProgressRecord) HasCompleted(lessonID string) bool {
	for _, id := range r.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Apply merges a single lesson report into the record. A present score
// overwrites the stored one; completion only ever adds the lesson once.
func (r *ProgressRecord) Apply(lessonID string, score *int, completed bool) {
	if r.QuizScores == nil {
		r.QuizScores = map[string]int{}
	}
	if r.CompletedLessons == nil {
		r.CompletedLessons = []string{}
	}
	if score != nil {
		r.QuizScores[lessonID] = *score
	}
	if completed && !r.HasCompleted(lessonID) {
		r.CompletedLessons = append(r.CompletedLessons, lessonID)
	}
}

// ProgressUpdate is one lesson report sent by a learner client.
type ProgressUpdate struct {
	UserID    string `json:"userId"`
	CourseID  string `json:"-"`
	LessonID  string `json:"lessonId"`
	Score     *int   `json:"score,omitempty"`
	Completed *bool  `json:"completed,omitempty"`
}
