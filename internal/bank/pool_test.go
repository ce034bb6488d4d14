package bank

import "testing"

func sampleQuestions() []Question {
	mk := func(id string, topic int, prompt, conv, tipo string) Question {
		return Question{
			ID: id, SittingID: "s-" + conv, TopicID: topic, Prompt: prompt,
			Options: []Option{
				{Letter: "a", Text: "uno " + prompt},
				{Letter: "b", Text: "dos " + prompt},
				{Letter: "c", Text: "tres " + prompt},
				{Letter: "d", Text: "cuatro " + prompt},
			},
			Correct: "a", Convocatoria: conv, TipoExamen: tipo,
		}
	}
	return []Question{
		mk("q1", 1, "¿Qué es la eslora?", "2022-11", "PER"),
		mk("q2", 1, "¿Qué es la eslora?", "2023-06", "PER"), // same content, later sitting
		mk("q3", 1, "¿Qué es la manga?", "2023-06", "PER"),
		mk("q4", 6, "Buque sin gobierno de noche", "2023-06", "PER"),
		mk("q5", 6, "Buque sin gobierno de noche", "2023-06", "PNB"),
	}
}

func TestPoolByTopicFilters(t *testing.T) {
	p := NewPool(sampleQuestions())

	if got := len(p.ByTopic(1, Filters{})); got != 3 {
		t.Fatalf("topic 1 unfiltered: got %d, want 3", got)
	}
	if got := len(p.ByTopic(1, Filters{Convocatoria: "2023-06"})); got != 2 {
		t.Fatalf("topic 1 filtered by convocatoria: got %d, want 2", got)
	}
	if got := len(p.ByTopic(6, Filters{TipoExamen: "per"})); got != 1 {
		t.Fatalf("topic 6 filtered by titulación (case-insensitive): got %d, want 1", got)
	}
	if got := len(p.ByTopic(1, Filters{Search: "MANGA"})); got != 1 {
		t.Fatalf("topic 1 text search: got %d, want 1", got)
	}
}

func TestPoolUniqueByTopic(t *testing.T) {
	p := NewPool(sampleQuestions())
	// q1 and q2 share content, so topic 1 has two unique fingerprints.
	if got := len(p.UniqueByTopic(1, Filters{})); got != 2 {
		t.Fatalf("unique topic 1: got %d, want 2", got)
	}
}

func TestPoolByFingerprint(t *testing.T) {
	p := NewPool(sampleQuestions())
	qs := p.ByTopic(1, Filters{Convocatoria: "2022-11"})
	if len(qs) != 1 {
		t.Fatalf("setup: got %d questions", len(qs))
	}
	rep, occ := p.ByFingerprint(qs[0].Fingerprint)
	if rep == nil || len(occ) != 2 {
		t.Fatalf("got %d occurrences, want 2 (same content in two sittings)", len(occ))
	}
	if _, occ := p.ByFingerprint("0000000000000000"); occ != nil {
		t.Fatal("unknown fingerprint should return nil occurrences")
	}
}

func TestQuestionPublicHidesCorrect(t *testing.T) {
	q := sampleQuestions()[0]
	if pub := q.Public(); pub.Correct != "" {
		t.Fatalf("Public() leaked correct letter %q", pub.Correct)
	}
}
