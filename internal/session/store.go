package session

import (
	"context"

	"github.com/perpractico/per-engine/internal/exam"
)

// Store persists exams and sessions. Implementations must make
// CreateExamSession atomic (no partial exam is ever observable) and must
// serialize Update per session id so concurrent mutations apply in arrival
// order.
type Store interface {
	// CreateExamSession persists a freshly assembled exam together with its
	// session as one unit. Returns ErrSessionConflict when the user already
	// has an active (in_progress or paused) session.
	CreateExamSession(ctx context.Context, e *exam.Exam, s *Session) error

	GetSession(ctx context.Context, id string) (*Session, error)
	GetExam(ctx context.Context, id string) (*exam.Exam, error)

	// Update applies mutate to the current session state under the
	// per-session lock and persists the result. A mutate error aborts the
	// update without side effects.
	Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error)

	// ActiveSessions lists in_progress and paused sessions, for the
	// deadline watcher.
	ActiveSessions(ctx context.Context) ([]*Session, error)
}
