// Package quiz implements the learner's quiz session: position, answers,
// score and completion for one course, persisted after every change and
// reported to the progress store in the background.
package quiz

import (
	"context"
	"sync"

	"github.com/verte-zerg/katalyst/internal/logger"
	"github.com/verte-zerg/katalyst/internal/model"
)

// Phase is the lifecycle stage of a session.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseActive
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// SyncScope selects which lessons receive a progress report on advance.
type SyncScope string

const (
	// ScopeCourse reports every lesson of the course on each advance.
	ScopeCourse SyncScope = "course"
	// ScopeLesson reports only the lesson holding the question just answered.
	ScopeLesson SyncScope = "lesson"
)

// Syncer is the remote progress store.
type Syncer interface {
	RecordProgress(ctx context.Context, update model.ProgressUpdate) error
	GetProgress(ctx context.Context, userID, courseID string) (model.ProgressRecord, error)
}

// Options configures a Session.
type Options struct {
	UserID string
	Scope  SyncScope
	Logger *logger.Logger
}

// Session is the quiz state machine for one course. It is driven from a
// single goroutine; only progress syncs run in the background.
type Session struct {
	course    model.Course
	questions []model.Question
	store     Snapshotter
	syncer    Syncer
	userID    string
	scope     SyncScope
	log       *logger.Logger

	phase Phase
	state model.SessionState

	inflight sync.WaitGroup
}

// NewSession creates a session in the loading phase. syncer may be nil to
// run without a progress store.
func NewSession(course model.Course, store Snapshotter, syncer Syncer, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	scope := opts.Scope
	if scope == "" {
		scope = ScopeCourse
	}
	return &Session{
		course:    course,
		questions: course.Questions(),
		store:     store,
		syncer:    syncer,
		userID:    opts.UserID,
		scope:     scope,
		log:       log.With("course_id", course.ID),
		phase:     PhaseLoading,
		state:     model.NewSessionState(),
	}
}

// Open restores the session from its snapshot, or starts a fresh one when
// no readable snapshot exists. It never fails: storage and remote errors are
// logged and the session falls back to defaults.
func (s *Session) Open(ctx context.Context) {
	if state, ok := s.restore(ctx); ok {
		s.state = state
		s.phase = PhaseActive
		if state.Completed {
			s.phase = PhaseCompleted
		}
		return
	}

	s.state = model.NewSessionState()
	s.probeRemote(ctx)
	s.phase = PhaseActive
	if err := s.persist(ctx); err != nil {
		s.log.Warn("failed to write initial snapshot", "error", err)
	}
}

func (s *Session) restore(ctx context.Context) (model.SessionState, bool) {
	key := SnapshotKey(s.course.ID)
	data, found, err := s.store.LoadSnapshot(ctx, key)
	if err != nil {
		s.log.Warn("failed to read snapshot", "error", &StorageError{Op: "read", Key: key, Err: err})
		return model.SessionState{}, false
	}
	if !found {
		return model.SessionState{}, false
	}
	state, err := DecodeState(data)
	if err != nil {
		s.log.Warn("discarding malformed snapshot", "error", &StorageError{Op: "parse", Key: key, Err: err})
		return model.SessionState{}, false
	}
	return state, true
}

// probeRemote reads the learner's server record. The result is only logged:
// the server keeps per-lesson scores, not answers, so it cannot rebuild a
// session.
func (s *Session) probeRemote(ctx context.Context) {
	if s.syncer == nil || s.userID == "" {
		return
	}
	rec, err := s.syncer.GetProgress(ctx, s.userID, s.course.ID)
	if err != nil {
		s.log.Warn("failed to fetch remote progress", "error", &SyncError{Op: "read", CourseID: s.course.ID, Err: err})
		return
	}
	s.log.Debug("remote progress found",
		"completed_lessons", len(rec.CompletedLessons),
		"scored_lessons", len(rec.QuizScores),
	)
}

// SelectAnswer records option for the current question. It reports whether
// the state changed; a question that already has an answer keeps it.
func (s *Session) SelectAnswer(ctx context.Context, option string) (bool, error) {
	if s.phase != PhaseActive {
		return false, nil
	}
	q, ok := s.Current()
	if !ok {
		return false, nil
	}
	if _, answered := s.state.Answers[q.ID]; answered {
		return false, nil
	}
	s.state.Answers[q.ID] = option
	if q.IsCorrect(option) {
		s.state.Score++
	}
	return true, s.persist(ctx)
}

// Advance moves to the next question, or completes the session from the
// last one. Callers only advance past an answered question.
func (s *Session) Advance(ctx context.Context) error {
	if s.phase != PhaseActive {
		return nil
	}
	from := s.state.Position
	if from < len(s.questions)-1 {
		s.state.Position++
		err := s.persist(ctx)
		s.syncProgress(from, false)
		return err
	}
	s.state.Completed = true
	s.phase = PhaseCompleted
	err := s.persist(ctx)
	s.syncProgress(from, true)
	return err
}

// Retreat moves back one question. It is a view change only: nothing is
// persisted or synced.
func (s *Session) Retreat() {
	if s.phase != PhaseActive {
		return
	}
	if s.state.Position > 0 {
		s.state.Position--
	}
}

// Reset discards the session and its snapshot. Server-side progress is left
// untouched.
func (s *Session) Reset(ctx context.Context) error {
	if s.phase == PhaseLoading {
		return nil
	}
	s.state = model.NewSessionState()
	s.phase = PhaseActive
	key := SnapshotKey(s.course.ID)
	if err := s.store.DeleteSnapshot(ctx, key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Wait blocks until every in-flight progress sync has finished.
func (s *Session) Wait() {
	s.inflight.Wait()
}

func (s *Session) persist(ctx context.Context) error {
	key := SnapshotKey(s.course.ID)
	data, err := EncodeState(s.state)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := s.store.SaveSnapshot(ctx, key, data); err != nil {
		return &StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (s *Session) syncProgress(index int, completed bool) {
	if s.syncer == nil || s.userID == "" {
		return
	}
	lessons := s.syncTargets(index)
	score := s.state.Score
	courseID := s.course.ID
	userID := s.userID

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		for _, lessonID := range lessons {
			lessonScore, done := score, completed
			update := model.ProgressUpdate{
				UserID:    userID,
				CourseID:  courseID,
				LessonID:  lessonID,
				Score:     &lessonScore,
				Completed: &done,
			}
			if err := s.syncer.RecordProgress(context.Background(), update); err != nil {
				s.log.Warn("failed to sync progress",
					"error", &SyncError{Op: "write", CourseID: courseID, LessonID: lessonID, Err: err},
				)
			}
		}
	}()
}

func (s *Session) syncTargets(index int) []string {
	if s.scope == ScopeLesson {
		if lesson, ok := s.course.LessonAt(index); ok {
			return []string{lesson.ID}
		}
	}
	ids := make([]string, 0, len(s.course.Lessons))
	for _, l := range s.course.Lessons {
		ids = append(ids, l.ID)
	}
	return ids
}

// Course returns the course driving the session.
func (s *Session) Course() model.Course { return s.course }

// Phase returns the lifecycle phase.
func (s *Session) Phase() Phase { return s.phase }

// State returns a copy of the current state.
func (s *Session) State() model.SessionState { return s.state.Clone() }

// Position returns the zero-based index of the current question.
func (s *Session) Position() int { return s.state.Position }

// Score returns the running count of correct answers.
func (s *Session) Score() int { return s.state.Score }

// Total returns the number of questions in the flattened sequence.
func (s *Session) Total() int { return len(s.questions) }

// Completed reports whether the session has been finished.
func (s *Session) Completed() bool { return s.state.Completed }

// IsLast reports whether the current question is the final one.
func (s *Session) IsLast() bool { return s.state.Position >= len(s.questions)-1 }

// Current returns the question at the current position.
func (s *Session) Current() (model.Question, bool) {
	if s.state.Position < 0 || s.state.Position >= len(s.questions) {
		return model.Question{}, false
	}
	return s.questions[s.state.Position], true
}

// CurrentAnswer returns the recorded answer for the current question.
func (s *Session) CurrentAnswer() (string, bool) {
	q, ok := s.Current()
	if !ok {
		return "", false
	}
	answer, ok := s.state.Answers[q.ID]
	return answer, ok
}

// Answered reports whether the current question has a recorded answer.
func (s *Session) Answered() bool {
	_, ok := s.CurrentAnswer()
	return ok
}

// Percentage returns the score as a rounded percentage of all questions.
func (s *Session) Percentage() int {
	return Percentage(s.state.Score, len(s.questions))
}
