// Package exam assembles fixed-form practice exams from the question pool.
package exam

import (
	"fmt"
	"time"

	"github.com/perpractico/per-engine/internal/bank"
)

// Exam is one generated instance: an ordered, fixed-length question list
// owned by a user. Invariants: len(Questions) equals the sum of topic
// quotas, per-topic counts match the quotas exactly, and no two entries
// share a fingerprint.
type Exam struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
	Filters   bank.Filters    `json:"filters,omitempty"`
	Questions []bank.Question `json:"questions"`
}

// QuestionByID returns the exam's question with the given id, or nil.
func (e *Exam) QuestionByID(id string) *bank.Question {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

// PublicQuestions returns the ordered question list without correct letters.
func (e *Exam) PublicQuestions() []bank.Question {
	out := make([]bank.Question, len(e.Questions))
	for i := range e.Questions {
		out[i] = e.Questions[i].Public()
	}
	return out
}

// InsufficientPoolError reports a topic whose filtered pool cannot satisfy
// its quota. Assembly fails atomically; no partial exam is persisted.
type InsufficientPoolError struct {
	TopicID   int `json:"topic_id"`
	Available int `json:"available"`
	Required  int `json:"required"`
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("topic %d has %d unique questions, %d required", e.TopicID, e.Available, e.Required)
}
