package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/verte-zerg/katalyst/internal/model"
)

// GetProgress loads the record for a learner and course.
func (s *Store) GetProgress(ctx context.Context, userID, courseID string) (model.ProgressRecord, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ProgressRecord{}, false, err
	}
	defer rollback(tx)
	return loadProgress(ctx, tx, userID, courseID)
}

// UpdateProgress applies fn to the learner's record inside one transaction,
// creating the record first when it does not exist.
func (s *Store) UpdateProgress(ctx context.Context, userID, courseID string, fn func(*model.ProgressRecord)) (model.ProgressRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ProgressRecord{}, err
	}
	defer rollback(tx)

	rec, ok, err := loadProgress(ctx, tx, userID, courseID)
	if err != nil {
		return model.ProgressRecord{}, err
	}
	if !ok {
		rec = model.NewProgressRecord()
	}
	fn(&rec)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO progress_records (user_id, course_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, course_id) DO UPDATE SET updated_at = excluded.updated_at`,
		userID, courseID, now,
	); err != nil {
		return model.ProgressRecord{}, err
	}
	for lessonID, score := range rec.QuizScores {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO progress_scores (user_id, course_id, lesson_id, score) VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, course_id, lesson_id) DO UPDATE SET score = excluded.score`,
			userID, courseID, lessonID, score,
		); err != nil {
			return model.ProgressRecord{}, err
		}
	}
	for i, lessonID := range rec.CompletedLessons {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO progress_completed (user_id, course_id, lesson_id, seq) VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, course_id, lesson_id) DO NOTHING`,
			userID, courseID, lessonID, i,
		); err != nil {
			return model.ProgressRecord{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.ProgressRecord{}, err
	}
	return rec, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadProgress(ctx context.Context, q queryer, userID, courseID string) (model.ProgressRecord, bool, error) {
	var updatedAt string
	err := q.QueryRowContext(ctx,
		`SELECT updated_at FROM progress_records WHERE user_id = ? AND course_id = ?`,
		userID, courseID,
	).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProgressRecord{}, false, nil
	}
	if err != nil {
		return model.ProgressRecord{}, false, err
	}

	rec := model.NewProgressRecord()
	rows, err := q.QueryContext(ctx,
		`SELECT lesson_id FROM progress_completed WHERE user_id = ? AND course_id = ? ORDER BY seq ASC`,
		userID, courseID,
	)
	if err != nil {
		return model.ProgressRecord{}, false, err
	}
	for rows.Next() {
		var lessonID string
		if err := rows.Scan(&lessonID); err != nil {
			closeRows(rows)
			return model.ProgressRecord{}, false, err
		}
		rec.CompletedLessons = append(rec.CompletedLessons, lessonID)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return model.ProgressRecord{}, false, err
	}
	closeRows(rows)

	rows, err = q.QueryContext(ctx,
		`SELECT lesson_id, score FROM progress_scores WHERE user_id = ? AND course_id = ?`,
		userID, courseID,
	)
	if err != nil {
		return model.ProgressRecord{}, false, err
	}
	defer closeRows(rows)
	for rows.Next() {
		var lessonID string
		var score int
		if err := rows.Scan(&lessonID, &score); err != nil {
			return model.ProgressRecord{}, false, err
		}
		rec.QuizScores[lessonID] = score
	}
	if err := rows.Err(); err != nil {
		return model.ProgressRecord{}, false, err
	}
	return rec, true, nil
}
