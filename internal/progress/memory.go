package progress

import (
	"context"
	"sync"

	"github.com/verte-zerg/katalyst/internal/model"
)

type recordKey struct {
	userID   string
	courseID string
}

// MemoryRepository keeps progress records in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[recordKey]model.ProgressRecord
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[recordKey]model.ProgressRecord{}}
}

func (r *MemoryRepository) GetProgress(_ context.Context, userID, courseID string) (model.ProgressRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[recordKey{userID, courseID}]
	if !ok {
		return model.ProgressRecord{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (r *MemoryRepository) UpdateProgress(_ context.Context, userID, courseID string, fn func(*model.ProgressRecord)) (model.ProgressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := recordKey{userID, courseID}
	rec, ok := r.records[key]
	if !ok {
		rec = model.NewProgressRecord()
	}
	rec = cloneRecord(rec)
	fn(&rec)
	r.records[key] = rec
	return cloneRecord(rec), nil
}

func cloneRecord(rec model.ProgressRecord) model.ProgressRecord {
	out := model.NewProgressRecord()
	out.CompletedLessons = append(out.CompletedLessons, rec.CompletedLessons...)
	for k, v := range rec.QuizScores {
		out.QuizScores[k] = v
	}
	return out
}
