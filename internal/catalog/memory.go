package catalog

import (
	"context"
	"sync"

	"github.com/verte-zerg/katalyst/internal/apierr"
	"github.com/verte-zerg/katalyst/internal/model"
)

// MemoryRepository keeps courses in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	order   []string
	courses map[string]model.Course
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{courses: map[string]model.Course{}}
}

func (r *MemoryRepository) GetCourse(_ context.Context, id string) (model.Course, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[id]
	return c, ok, nil
}

func (r *MemoryRepository) ListCourses(_ context.Context) ([]model.Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Course, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.courses[id])
	}
	return out, nil
}

func (r *MemoryRepository) InsertCourse(_ context.Context, course model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.courses[course.ID]; exists {
		return apierr.Conflict("Course ID already exists")
	}
	r.courses[course.ID] = course
	r.order = append(r.order, course.ID)
	return nil
}
