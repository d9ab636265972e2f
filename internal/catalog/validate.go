package catalog

import (
	"fmt"

	"github.com/verte-zerg/katalyst/internal/apierr"
	"github.com/verte-zerg/katalyst/internal/model"
)

// Validate checks the shape of a course submitted for creation.
func Validate(c model.Course) error {
	if c.ID == "" {
		return apierr.Validation("Valid course ID is required")
	}
	if c.Title == "" {
		return apierr.Validation("Valid course title is required")
	}
	if c.Lessons == nil {
		return apierr.Validation("Lessons must be an array")
	}
	seen := map[model.QuestionID]struct{}{}
	for _, lesson := range c.Lessons {
		if lesson.ID == "" || lesson.Title == "" || lesson.Questions == nil {
			name := lesson.ID
			if name == "" {
				name = "unknown"
			}
			return apierr.Validation(fmt.Sprintf("Invalid structure in lesson %s", name))
		}
		for _, q := range lesson.Questions {
			if !validQuestion(q) {
				return apierr.Validation(fmt.Sprintf("Invalid question structure in lesson %s", lesson.ID))
			}
			if _, dup := seen[q.ID]; dup {
				return apierr.Validation(fmt.Sprintf("Duplicate question id %s in lesson %s", q.ID, lesson.ID))
			}
			seen[q.ID] = struct{}{}
		}
	}
	return nil
}

func validQuestion(q model.Question) bool {
	if q.ID == "" || q.Text == "" || q.Options == nil || q.CorrectAnswer == "" {
		return false
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return true
		}
	}
	return false
}
