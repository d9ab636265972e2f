// Package progress is the server-side store of learner progress: completed
// lessons and per-lesson quiz scores for each learner and course.
package progress

import (
	"context"
	"fmt"

	"github.com/verte-zerg/katalyst/internal/apierr"
	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/model"
)

// Repository persists progress records. Update must apply fn atomically per
// learner/course pair, creating an empty record when none exists.
type Repository interface {
	GetProgress(ctx context.Context, userID, courseID string) (model.ProgressRecord, bool, error)
	UpdateProgress(ctx context.Context, userID, courseID string, fn func(*model.ProgressRecord)) (model.ProgressRecord, error)
}

// CourseChecker reports whether a course exists.
type CourseChecker interface {
	Exists(ctx context.Context, courseID string) (bool, error)
}

// Service validates and applies progress reports.
type Service struct {
	repo    Repository
	courses CourseChecker
	log     *logger.Logger
}

// NewService builds a progress service.
func NewService(repo Repository, courses CourseChecker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, courses: courses, log: log}
}

// RecordProgress merges one lesson report into the learner's record and
// returns the updated record.
func (s *Service) RecordProgress(ctx context.Context, update model.ProgressUpdate) (model.ProgressRecord, error) {
	if update.UserID == "" {
		return model.ProgressRecord{}, apierr.Validation("userId is required")
	}
	if update.LessonID == "" {
		return model.ProgressRecord{}, apierr.Validation("lessonId is required")
	}
	ok, err := s.courses.Exists(ctx, update.CourseID)
	if err != nil {
		return model.ProgressRecord{}, err
	}
	if !ok {
		return model.ProgressRecord{}, apierr.NotFound("Course not found")
	}

	completed := update.Completed != nil && *update.Completed
	rec, err := s.repo.UpdateProgress(ctx, update.UserID, update.CourseID, func(r *model.ProgressRecord) {
		r.Apply(update.LessonID, update.Score, completed)
	})
	if err != nil {
		return model.ProgressRecord{}, fmt.Errorf("failed to update progress: %w", err)
	}
	s.log.Debug("progress recorded",
		"user_id", update.UserID,
		"course_id", update.CourseID,
		"lesson_id", update.LessonID,
		"completed", completed,
	)
	return rec, nil
}

// GetProgress returns the learner's record. Unknown pairs yield an empty
// record with found=false rather than an error.
func (s *Service) GetProgress(ctx context.Context, userID, courseID string) (model.ProgressRecord, bool, error) {
	rec, ok, err := s.repo.GetProgress(ctx, userID, courseID)
	if err != nil {
		return model.ProgressRecord{}, false, fmt.Errorf("failed to load progress: %w", err)
	}
	if !ok {
		return model.NewProgressRecord(), false, nil
	}
	return rec, true, nil
}
