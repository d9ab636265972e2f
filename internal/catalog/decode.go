package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/katalyst/internal/apierr"
	"github.com/verte-zerg/katalyst/internal/model"
)

// ParseCourse reads a course authored as YAML or JSON and validates it.
// Keys follow the wire names (id, title, lessons, questions, options,
// correctAnswer). Unquoted scalar options and answers are read as text.
func ParseCourse(data []byte) (model.Course, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Course{}, fmt.Errorf("failed to parse course: %w", err)
	}
	stringifyAnswers(doc)
	raw, err := json.Marshal(doc)
	if err != nil {
		return model.Course{}, fmt.Errorf("failed to normalize course: %w", err)
	}
	course, err := DecodeJSON(raw)
	if err != nil {
		return model.Course{}, err
	}
	if err := Validate(course); err != nil {
		return model.Course{}, err
	}
	return course, nil
}

// stringifyAnswers turns numeric and boolean options and correct answers
// into strings, so `options: [3000, 8080]` reads like the quoted form.
func stringifyAnswers(node any) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			switch key {
			case "options":
				if items, ok := child.([]any); ok {
					for i, item := range items {
						items[i] = scalarText(item)
					}
				}
			case "correctAnswer":
				v[key] = scalarText(child)
			default:
				stringifyAnswers(child)
			}
		}
	case []any:
		for _, child := range v {
			stringifyAnswers(child)
		}
	}
}

func scalarText(v any) any {
	switch s := v.(type) {
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case uint64:
		return strconv.FormatUint(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return v
	}
}

// DecodeJSON reads a course body, reporting type mismatches with the same
// messages Validate uses for missing fields.
func DecodeJSON(body []byte) (model.Course, error) {
	var raw struct {
		ID      json.RawMessage `json:"id"`
		Title   json.RawMessage `json:"title"`
		Lessons json.RawMessage `json:"lessons"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Course{}, apierr.Validation("Request body must be a JSON object")
	}
	var course model.Course
	if json.Unmarshal(raw.ID, &course.ID) != nil || course.ID == "" {
		return model.Course{}, apierr.Validation("Valid course ID is required")
	}
	if json.Unmarshal(raw.Title, &course.Title) != nil || course.Title == "" {
		return model.Course{}, apierr.Validation("Valid course title is required")
	}
	trimmed := bytes.TrimSpace(raw.Lessons)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return model.Course{}, apierr.Validation("Lessons must be an array")
	}
	var lessons []json.RawMessage
	if err := json.Unmarshal(trimmed, &lessons); err != nil {
		return model.Course{}, apierr.Validation("Lessons must be an array")
	}
	course.Lessons = make([]model.Lesson, 0, len(lessons))
	for _, item := range lessons {
		lesson, err := decodeLesson(item)
		if err != nil {
			return model.Course{}, err
		}
		course.Lessons = append(course.Lessons, lesson)
	}
	return course, nil
}

func decodeLesson(item json.RawMessage) (model.Lesson, error) {
	var shell struct {
		ID        string            `json:"id"`
		Title     string            `json:"title"`
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(item, &shell); err != nil {
		return model.Lesson{}, apierr.Validation(fmt.Sprintf("Invalid structure in lesson %s", lessonLabel(item)))
	}
	lesson := model.Lesson{ID: shell.ID, Title: shell.Title}
	if shell.Questions == nil {
		return lesson, nil
	}
	lesson.Questions = make([]model.Question, 0, len(shell.Questions))
	for _, raw := range shell.Questions {
		var q model.Question
		if json.Unmarshal(raw, &q) != nil || zeroNumericID(raw) {
			return model.Lesson{}, apierr.Validation(fmt.Sprintf("Invalid question structure in lesson %s", lesson.ID))
		}
		lesson.Questions = append(lesson.Questions, q)
	}
	return lesson, nil
}

// zeroNumericID reports whether the question id is the number 0, which
// clients treat as missing.
func zeroNumericID(raw json.RawMessage) bool {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	var n json.Number
	if json.Unmarshal(probe.ID, &n) != nil {
		return false
	}
	f, err := n.Float64()
	return err == nil && f == 0
}

func lessonLabel(item json.RawMessage) string {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(item, &probe); err != nil || probe.ID == nil {
		return "unknown"
	}
	if s, ok := probe.ID.(string); ok && s != "" {
		return s
	}
	return fmt.Sprint(probe.ID)
}
