// Package progresstest holds shared behavior tests for progress repositories.
package progresstest

import (
	"context"
	"sync"
	"testing"

	"github.com/verte-zerg/katalyst/internal/model"
	"github.com/verte-zerg/katalyst/internal/progress"
)

// RunRepositoryTests exercises the merge semantics every backend must keep.
func RunRepositoryTests(t *testing.T, newRepo func(t *testing.T) progress.Repository) {
	t.Run("missing record", func(t *testing.T) {
		repo := newRepo(t)
		_, ok, err := repo.GetProgress(context.Background(), "u1", "c1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ok {
			t.Fatalf("expected no record")
		}
	})

	t.Run("lazy create and merge", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		three, five := 3, 5

		if _, err := repo.UpdateProgress(ctx, "u1", "c1", apply("lessonA", &three, true)); err != nil {
			t.Fatalf("update: %v", err)
		}
		rec, err := repo.UpdateProgress(ctx, "u1", "c1", apply("lessonA", &five, true))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if rec.QuizScores["lessonA"] != 5 {
			t.Fatalf("expected overwritten score 5, got %d", rec.QuizScores["lessonA"])
		}
		if len(rec.CompletedLessons) != 1 || rec.CompletedLessons[0] != "lessonA" {
			t.Fatalf("expected lessonA exactly once, got %v", rec.CompletedLessons)
		}

		stored, ok, err := repo.GetProgress(ctx, "u1", "c1")
		if err != nil || !ok {
			t.Fatalf("expected stored record, ok=%v err=%v", ok, err)
		}
		if stored.QuizScores["lessonA"] != 5 || len(stored.CompletedLessons) != 1 {
			t.Fatalf("unexpected stored record: %+v", stored)
		}

		other, ok, err := repo.GetProgress(ctx, "u2", "c1")
		if err != nil || ok {
			t.Fatalf("expected records to be per learner, ok=%v err=%v rec=%+v", ok, err, other)
		}
	})

	t.Run("ids containing separators stay apart", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		five := 5
		if _, err := repo.UpdateProgress(ctx, "c", "a:b", apply("lesson_x", &five, true)); err != nil {
			t.Fatalf("update: %v", err)
		}
		rec, ok, err := repo.GetProgress(ctx, "b:c", "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if ok {
			t.Fatalf("expected no record for a different learner and course, got %+v", rec)
		}
		if _, ok, err := repo.GetProgress(ctx, "c", "a:b"); err != nil || !ok {
			t.Fatalf("expected original record, ok=%v err=%v", ok, err)
		}
	})

	t.Run("empty update creates record", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		rec, err := repo.UpdateProgress(ctx, "u1", "c1", apply("lessonA", nil, false))
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if len(rec.CompletedLessons) != 0 || len(rec.QuizScores) != 0 {
			t.Fatalf("expected empty record, got %+v", rec)
		}
		if _, ok, err := repo.GetProgress(ctx, "u1", "c1"); err != nil || !ok {
			t.Fatalf("expected record to exist, ok=%v err=%v", ok, err)
		}
	})

	t.Run("completion order is kept", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		for _, lesson := range []string{"l3", "l1", "l2", "l1"} {
			if _, err := repo.UpdateProgress(ctx, "u1", "c1", apply(lesson, nil, true)); err != nil {
				t.Fatalf("update: %v", err)
			}
		}
		rec, _, err := repo.GetProgress(ctx, "u1", "c1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want := []string{"l3", "l1", "l2"}
		if len(rec.CompletedLessons) != len(want) {
			t.Fatalf("unexpected completed lessons: %v", rec.CompletedLessons)
		}
		for i := range want {
			if rec.CompletedLessons[i] != want[i] {
				t.Fatalf("unexpected completed lessons: %v", rec.CompletedLessons)
			}
		}
	})

	t.Run("concurrent updates", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		var wg sync.WaitGroup
		lessons := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
		for i, lesson := range lessons {
			wg.Add(1)
			go func(score int, lesson string) {
				defer wg.Done()
				if _, err := repo.UpdateProgress(ctx, "u1", "c1", apply(lesson, &score, true)); err != nil {
					t.Errorf("update %s: %v", lesson, err)
				}
			}(i, lesson)
		}
		wg.Wait()
		rec, _, err := repo.GetProgress(ctx, "u1", "c1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(rec.CompletedLessons) != len(lessons) || len(rec.QuizScores) != len(lessons) {
			t.Fatalf("expected every concurrent update kept, got %+v", rec)
		}
	})
}

func apply(lessonID string, score *int, completed bool) func(*model.ProgressRecord) {
	return func(r *model.ProgressRecord) {
		r.Apply(lessonID, score, completed)
	}
}
