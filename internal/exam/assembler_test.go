package exam

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/perpractico/per-engine/internal/bank"
)

// poolWith builds a pool with n distinct questions per topic, plus one
// shared question whose content appears in both topic 1 and topic 2 banks.
func poolWith(t *testing.T, perTopic int, topics []TopicConfig) *bank.Pool {
	t.Helper()
	var qs []bank.Question
	for _, tc := range topics {
		for i := 0; i < perTopic; i++ {
			qs = append(qs, bank.Question{
				ID:      fmt.Sprintf("t%d-q%d", tc.ID, i),
				TopicID: tc.ID,
				Prompt:  fmt.Sprintf("pregunta %d del tema %d", i, tc.ID),
				Options: []bank.Option{{Letter: "a", Text: "sí"}, {Letter: "b", Text: "no"}},
				Correct: "a",
			})
		}
	}
	return bank.NewPool(qs)
}

func TestAssembleCompleteness(t *testing.T) {
	a := NewAssembler(poolWith(t, 12, Topics), Topics)
	ex, err := a.Assemble("u1", bank.Filters{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	total := TotalQuestions(Topics)
	if total != 45 {
		t.Fatalf("topic quotas sum to %d, want 45", total)
	}
	if len(ex.Questions) != total {
		t.Fatalf("exam has %d questions, want %d", len(ex.Questions), total)
	}

	perTopic := make(map[int]int)
	fps := make(map[string]bool)
	for _, q := range ex.Questions {
		perTopic[q.TopicID]++
		if fps[q.Fingerprint] {
			t.Fatalf("duplicate fingerprint %s in one exam", q.Fingerprint)
		}
		fps[q.Fingerprint] = true
	}
	for _, tc := range Topics {
		if perTopic[tc.ID] != tc.Quota {
			t.Errorf("topic %d: %d questions, want quota %d", tc.ID, perTopic[tc.ID], tc.Quota)
		}
	}
}

func TestAssembleInsufficientPool(t *testing.T) {
	// Topic 6 needs 10; give every topic only 5.
	a := NewAssembler(poolWith(t, 5, Topics), Topics)
	_, err := a.Assemble("u1", bank.Filters{})
	var ipe *InsufficientPoolError
	if !errors.As(err, &ipe) {
		t.Fatalf("got %v, want InsufficientPoolError", err)
	}
	if ipe.TopicID != 6 || ipe.Required != 10 || ipe.Available != 5 {
		t.Fatalf("unexpected error detail: %+v", ipe)
	}
}

func TestAssembleCrossTopicDuplicateGuard(t *testing.T) {
	// Two topics, quota 1 each. Topic 2's only candidate duplicates topic 1's
	// only candidate, so assembly must fail rather than repeat content.
	topics := []TopicConfig{
		{ID: 1, Quota: 1, MaxErrors: -1},
		{ID: 2, Quota: 1, MaxErrors: -1},
	}
	shared := []bank.Option{{Letter: "a", Text: "igual"}, {Letter: "b", Text: "distinto"}}
	qs := []bank.Question{
		{ID: "q1", TopicID: 1, Prompt: "contenido compartido", Options: shared, Correct: "a"},
		{ID: "q2", TopicID: 2, Prompt: "contenido compartido", Options: shared, Correct: "a"},
	}
	a := NewAssembler(bank.NewPool(qs), topics)
	_, err := a.Assemble("u1", bank.Filters{})
	var ipe *InsufficientPoolError
	if !errors.As(err, &ipe) {
		t.Fatalf("got %v, want InsufficientPoolError on topic 2", err)
	}
	if ipe.TopicID != 2 {
		t.Fatalf("failed topic %d, want 2", ipe.TopicID)
	}
}

func TestAssembleConcurrent(t *testing.T) {
	// Session starts arrive in parallel; every exam must still satisfy the
	// quotas and stay duplicate-free. Run with -race.
	a := NewAssembler(poolWith(t, 12, Topics), Topics)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				ex, err := a.Assemble(fmt.Sprintf("u%d-%d", g, i), bank.Filters{})
				if err != nil {
					t.Errorf("assemble: %v", err)
					return
				}
				if len(ex.Questions) != TotalQuestions(Topics) {
					t.Errorf("exam has %d questions", len(ex.Questions))
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestAssembleAnswersNotLeaked(t *testing.T) {
	a := NewAssembler(poolWith(t, 12, Topics), Topics)
	ex, err := a.Assemble("u1", bank.Filters{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	for _, q := range ex.PublicQuestions() {
		if q.Correct != "" {
			t.Fatalf("public question %s carries its correct letter", q.ID)
		}
	}
}
