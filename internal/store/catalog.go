package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/katalyst/internal/apierr"
	"github.com/verte-zerg/katalyst/internal/model"
)

// GetCourse loads a course by id.
func (s *Store) GetCourse(ctx context.Context, id string) (model.Course, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM courses WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, false, nil
	}
	if err != nil {
		return model.Course{}, false, err
	}
	var course model.Course
	if err := json.Unmarshal([]byte(body), &course); err != nil {
		return model.Course{}, false, fmt.Errorf("failed to decode course %s: %w", id, err)
	}
	return course, true, nil
}

// ListCourses returns every course in insertion order.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body FROM courses ORDER BY rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var courses []model.Course
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		var course model.Course
		if err := json.Unmarshal([]byte(body), &course); err != nil {
			return nil, fmt.Errorf("failed to decode course %s: %w", id, err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

// InsertCourse stores a new course. Existing ids are a conflict.
func (s *Store) InsertCourse(ctx context.Context, course model.Course) error {
	body, err := json.Marshal(course)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, body, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		course.ID, course.Title, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.Conflict("Course ID already exists")
	}
	return nil
}
