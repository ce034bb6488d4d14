package session

import (
	"context"
	"sync"

	"github.com/perpractico/per-engine/internal/exam"
)

// memoryStore keeps everything under one RWMutex. Good enough for tests and
// single-node dev; the mutex also provides the per-session ordering the
// Store contract requires.
type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]*exam.Exam
	sessions map[string]*Session
}

func NewMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]*exam.Exam{},
		sessions: map[string]*Session{},
	}
}

func (m *memoryStore) CreateExamSession(_ context.Context, e *exam.Exam, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.UserID == s.UserID && existing.Status.Active() {
			return ErrSessionConflict
		}
	}
	m.exams[e.ID] = e
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memoryStore) GetSession(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneSession(s)
	return cp, nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (*exam.Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) Update(_ context.Context, id string, mutate func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	work := cloneSession(s)
	if err := mutate(work); err != nil {
		return nil, err
	}
	m.sessions[id] = work
	cp := cloneSession(work)
	return cp, nil
}

func (m *memoryStore) ActiveSessions(_ context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Session
	for _, s := range m.sessions {
		if s.Status.Active() {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	cp.TimeSpent = make(map[string]int, len(s.TimeSpent))
	for k, v := range s.TimeSpent {
		cp.TimeSpent[k] = v
	}
	return &cp
}
