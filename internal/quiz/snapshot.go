package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/verte-zerg/katalyst/internal/model"
)

const snapshotKeyPrefix = "quiz_progress_"

// Snapshotter is durable client-side storage for session snapshots.
type Snapshotter interface {
	LoadSnapshot(ctx context.Context, key string) ([]byte, bool, error)
	SaveSnapshot(ctx context.Context, key string, data []byte) error
	DeleteSnapshot(ctx context.Context, key string) error
}

// SnapshotKey derives the storage key for a course.
func SnapshotKey(courseID string) string {
	return snapshotKeyPrefix + courseID
}

// EncodeState serializes a session state.
func EncodeState(state model.SessionState) ([]byte, error) {
	if state.Answers == nil {
		state.Answers = map[model.QuestionID]string{}
	}
	return json.Marshal(state)
}

// DecodeState parses a serialized session state. Missing fields take their
// zero values; a payload that is not a JSON object is rejected.
func DecodeState(data []byte) (model.SessionState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.SessionState{}, errors.New("snapshot is not a JSON object")
	}
	var state model.SessionState
	if err := json.Unmarshal(trimmed, &state); err != nil {
		return model.SessionState{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if state.Answers == nil {
		state.Answers = map[model.QuestionID]string{}
	}
	return state, nil
}

// StorageError reports a snapshot read, parse, or write failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SyncError reports a failed remote progress read or write.
type SyncError struct {
	Op       string
	CourseID string
	LessonID string
	Err      error
}

func (e *SyncError) Error() string {
	if e.LessonID != "" {
		return fmt.Sprintf("progress %s %s/%s: %v", e.Op, e.CourseID, e.LessonID, e.Err)
	}
	return fmt.Sprintf("progress %s %s: %v", e.Op, e.CourseID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
