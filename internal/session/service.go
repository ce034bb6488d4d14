package session

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/exam"
	"github.com/perpractico/per-engine/internal/scoring"
)

// DefaultLimit is the allotted active duration of one attempt.
const DefaultLimit = 90 * time.Minute

// EventSink receives session lifecycle transitions for auditing. May be nil.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

// Service drives the session state machine:
//
//	in_progress ⇄ paused → {completed, timed_out, abandoned}
//
// All timing is computed server-side from stored timestamps.
type Service struct {
	store     Store
	assembler *exam.Assembler
	topics    []exam.TopicConfig
	limit     time.Duration
	events    EventSink
	now       func() time.Time
}

func NewService(store Store, assembler *exam.Assembler, topics []exam.TopicConfig, limit time.Duration, events EventSink) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{
		store:     store,
		assembler: assembler,
		topics:    topics,
		limit:     limit,
		events:    events,
		now:       time.Now,
	}
}

// Limit returns the configured attempt duration.
func (svc *Service) Limit() time.Duration { return svc.limit }

// Start assembles a fresh exam and persists exam+session atomically. At most
// one active session per user: a second Start returns ErrSessionConflict and
// creates nothing.
func (svc *Service) Start(ctx context.Context, userID string, f bank.Filters) (*exam.Exam, *Session, error) {
	e, err := svc.assembler.Assemble(userID, f)
	if err != nil {
		return nil, nil, err
	}
	s := &Session{
		ID:        uuid.NewString(),
		ExamID:    e.ID,
		UserID:    userID,
		Status:    StatusInProgress,
		StartedAt: svc.now().UTC(),
		Answers:   map[string]string{},
		TimeSpent: map[string]int{},
	}
	if err := svc.store.CreateExamSession(ctx, e, s); err != nil {
		return nil, nil, err
	}
	svc.emit(ctx, "session.started", s.ID, map[string]string{"user_id": userID, "exam_id": e.ID})
	return e, s, nil
}

// Get returns the session when owned by userID.
func (svc *Service) Get(ctx context.Context, id, userID string) (*Session, error) {
	s, err := svc.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, ErrNotFound // do not reveal other users' sessions
	}
	return s, nil
}

// Exam returns the exam backing a session the user owns.
func (svc *Service) Exam(ctx context.Context, examID, userID string) (*exam.Exam, error) {
	e, err := svc.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if e.UserID != userID {
		return nil, ErrNotFound
	}
	return e, nil
}

// RecordAnswer overwrites the answer for one question and accumulates the
// time spent on it. Valid only while in_progress.
func (svc *Service) RecordAnswer(ctx context.Context, sessionID, userID, questionID, letter string, elapsedSec int) (*Session, error) {
	s, err := svc.Get(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	e, err := svc.store.GetExam(ctx, s.ExamID)
	if err != nil {
		return nil, err
	}
	q := e.QuestionByID(questionID)
	if q == nil || !q.HasOption(letter) {
		return nil, ErrInvalidAnswer
	}
	return svc.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status != StatusInProgress {
			return ErrNotInProgress
		}
		s.Answers[questionID] = letter
		if elapsedSec > 0 {
			s.TimeSpent[questionID] += elapsedSec
		}
		return nil
	})
}

// Pause stops the active clock. Only reachable from in_progress.
func (svc *Service) Pause(ctx context.Context, sessionID, userID string) (*Session, error) {
	if _, err := svc.Get(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	s, err := svc.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status != StatusInProgress {
			return ErrNotInProgress
		}
		now := svc.now().UTC()
		s.Status = StatusPaused
		s.PausedAt = &now
		return nil
	})
	if err == nil {
		svc.emit(ctx, "session.paused", sessionID, nil)
	}
	return s, err
}

// Resume folds the open pause interval into PausedAccum and restarts the
// clock. Only reachable from paused.
func (svc *Service) Resume(ctx context.Context, sessionID, userID string) (*Session, error) {
	if _, err := svc.Get(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	s, err := svc.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status != StatusPaused {
			return ErrNotPaused
		}
		if s.PausedAt != nil {
			s.PausedAccum += svc.now().UTC().Sub(*s.PausedAt)
			s.PausedAt = nil
		}
		s.Status = StatusInProgress
		return nil
	})
	if err == nil {
		svc.emit(ctx, "session.resumed", sessionID, nil)
	}
	return s, err
}

// Finish merges finalAnswers (validated against the exam), scores the
// session and transitions it to completed, or to timed_out when the active
// duration already exceeds the limit. Finishing an already-terminal session
// is idempotent: the stored result is returned, nothing is recomputed.
func (svc *Service) Finish(ctx context.Context, sessionID, userID string, finalAnswers map[string]string) (*Session, error) {
	s, err := svc.Get(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if s.Status.Terminal() {
		return s, nil
	}
	e, err := svc.store.GetExam(ctx, s.ExamID)
	if err != nil {
		return nil, err
	}
	for qid, letter := range finalAnswers {
		q := e.QuestionByID(qid)
		if q == nil || !q.HasOption(letter) {
			return nil, ErrInvalidAnswer
		}
	}
	return svc.finish(ctx, e, sessionID, finalAnswers, StatusCompleted)
}

// Abandon discards an active session without scoring it.
func (svc *Service) Abandon(ctx context.Context, sessionID, userID string) (*Session, error) {
	if _, err := svc.Get(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	s, err := svc.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status.Terminal() {
			return ErrTerminal
		}
		now := svc.now().UTC()
		s.Status = StatusAbandoned
		s.FinishedAt = &now
		return nil
	})
	if err == nil {
		svc.emit(ctx, "session.abandoned", sessionID, nil)
	}
	return s, err
}

func (svc *Service) finish(ctx context.Context, e *exam.Exam, sessionID string, finalAnswers map[string]string, terminal Status) (*Session, error) {
	now := svc.now().UTC()
	transitioned := false
	s, err := svc.store.Update(ctx, sessionID, func(s *Session) error {
		if s.Status.Terminal() {
			return nil // idempotent; keep stored result
		}
		transitioned = true
		for qid, letter := range finalAnswers {
			s.Answers[qid] = letter
		}
		status := terminal
		if s.ActiveDuration(now) > svc.limit {
			status = StatusTimedOut
		}
		res := scoring.Score(e, s.Answers, svc.topics)
		s.Status = status
		s.PausedAt = nil
		s.FinishedAt = &now
		s.Result = &res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if transitioned {
		svc.emit(ctx, "session.finished", sessionID, map[string]any{
			"status": s.Status, "passed": s.Result != nil && s.Result.Passed,
		})
	}
	return s, nil
}

// emit appends to the audit trail. Auditing is best effort and never fails
// the user-visible operation.
func (svc *Service) emit(ctx context.Context, typ, key string, data any) {
	if svc.events == nil {
		return
	}
	if err := svc.events.Append(ctx, typ, key, data); err != nil {
		log.Printf("event log %s %s: %v", typ, key, err)
	}
}
