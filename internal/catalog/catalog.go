// Package catalog serves course definitions: lookup, listing and creation
// with shape validation.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/katalyst/internal/apierr"
	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/model"
)

//go:embed seed.json
var seedJSON []byte

// Repository stores courses keyed by id, preserving insertion order.
type Repository interface {
	GetCourse(ctx context.Context, id string) (model.Course, bool, error)
	ListCourses(ctx context.Context) ([]model.Course, error)
	// InsertCourse fails with an apierr conflict when the id is taken.
	InsertCourse(ctx context.Context, course model.Course) error
}

// Service is the course catalog.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService wraps a repository.
func NewService(repo Repository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, log: log}
}

// Get returns a course or a not-found error.
func (s *Service) Get(ctx context.Context, id string) (model.Course, error) {
	course, ok, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return model.Course{}, fmt.Errorf("failed to load course: %w", err)
	}
	if !ok {
		return model.Course{}, apierr.NotFound("Course not found")
	}
	return course, nil
}

// Exists reports whether a course id is known.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to load course: %w", err)
	}
	return ok, nil
}

// List returns summaries of every course in insertion order.
func (s *Service) List(ctx context.Context) ([]model.CourseSummary, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	out := make([]model.CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Summary())
	}
	return out, nil
}

// Create validates and stores a new course.
func (s *Service) Create(ctx context.Context, course model.Course) (model.Course, error) {
	if err := Validate(course); err != nil {
		return model.Course{}, err
	}
	if err := s.repo.InsertCourse(ctx, course); err != nil {
		return model.Course{}, err
	}
	s.log.Info("course created", "course_id", course.ID, "lessons", len(course.Lessons))
	return course, nil
}

// Seed inserts the built-in courses, skipping ids that already exist.
func (s *Service) Seed(ctx context.Context) (int, error) {
	courses, err := SeedCourses()
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, c := range courses {
		err := s.repo.InsertCourse(ctx, c)
		if apierr.Is(err, apierr.KindConflict) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("failed to seed course %s: %w", c.ID, err)
		}
		inserted++
	}
	return inserted, nil
}

// SeedCourses decodes the built-in catalog.
func SeedCourses() ([]model.Course, error) {
	var courses []model.Course
	if err := json.Unmarshal(seedJSON, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode seed catalog: %w", err)
	}
	return courses, nil
}
