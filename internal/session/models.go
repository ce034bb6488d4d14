// Package session owns the lifecycle of one exam attempt: start, answer
// recording, pause/resume, completion, timeout and abandonment.
package session

import (
	"errors"
	"time"

	"github.com/perpractico/per-engine/internal/scoring"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusTimedOut   Status = "timed_out"
	StatusAbandoned  Status = "abandoned"
)

// Active reports whether the session still blocks the user from starting
// another exam.
func (s Status) Active() bool { return s == StatusInProgress || s == StatusPaused }

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusTimedOut || s == StatusAbandoned
}

var (
	ErrNotFound        = errors.New("session not found")
	ErrSessionConflict = errors.New("user already has an active session")
	ErrInvalidAnswer   = errors.New("answer letter not among the question's options")
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrNotPaused       = errors.New("session is not paused")
	ErrTerminal        = errors.New("session already finished")
)

// Session wraps one exam with mutable attempt state. Mutated only through
// the store's serialized read-modify-write, so concurrent requests against
// the same session apply in arrival order.
type Session struct {
	ID          string        `json:"id"`
	ExamID      string        `json:"exam_id"`
	UserID      string        `json:"user_id"`
	Status      Status        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	PausedAt    *time.Time    `json:"paused_at,omitempty"` // set while paused
	PausedAccum time.Duration `json:"paused_accum"`        // completed pause intervals
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`

	Answers   map[string]string `json:"answers"`    // questionID -> letter
	TimeSpent map[string]int    `json:"time_spent"` // questionID -> seconds

	Result *scoring.Result `json:"result,omitempty"`
}

// ActiveDuration is the server-authoritative elapsed time: wall time since
// start minus accumulated pauses, including a still-open pause. Client-
// reported remaining time is never trusted.
func (s *Session) ActiveDuration(now time.Time) time.Duration {
	d := now.Sub(s.StartedAt) - s.PausedAccum
	if s.PausedAt != nil {
		d -= now.Sub(*s.PausedAt)
	}
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns the time left before the limit, floored at zero.
func (s *Session) Remaining(now time.Time, limit time.Duration) time.Duration {
	r := limit - s.ActiveDuration(now)
	if r < 0 {
		return 0
	}
	return r
}
