package scoring

import (
	"fmt"
	"strings"
	"testing"

	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/exam"
)

// twoTopicExam builds an exam with nA questions in topic 1 and nB in a
// critical topic 6 (ceiling 5), all with correct answer "a".
func twoTopicExam(nA, nB int) (*exam.Exam, []exam.TopicConfig) {
	topics := []exam.TopicConfig{
		{ID: 1, Name: "Nomenclatura", Quota: nA, MaxErrors: -1},
		{ID: 6, Name: "RIPA", Quota: nB, MaxErrors: 5, Critical: true},
	}
	e := &exam.Exam{ID: "e1", UserID: "u1"}
	for i := 0; i < nA; i++ {
		e.Questions = append(e.Questions, bank.Question{ID: fmt.Sprintf("a%d", i), TopicID: 1, Correct: "a"})
	}
	for i := 0; i < nB; i++ {
		e.Questions = append(e.Questions, bank.Question{ID: fmt.Sprintf("b%d", i), TopicID: 6, Correct: "a"})
	}
	return e, topics
}

func answerAll(e *exam.Exam, letter string) map[string]string {
	out := make(map[string]string)
	for _, q := range e.Questions {
		out[q.ID] = letter
	}
	return out
}

func TestCriticalCeilingDominates(t *testing.T) {
	// 30 + 10 questions; 6 errors, all inside the critical topic: overall
	// 85% but the ceiling of 5 is exceeded.
	e, topics := twoTopicExam(30, 10)
	answers := answerAll(e, "a")
	for i := 0; i < 6; i++ {
		answers[fmt.Sprintf("b%d", i)] = "b"
	}

	res := Score(e, answers, topics)
	if res.Percent < 65 {
		t.Fatalf("setup wrong: overall %.1f%% should clear the floor", res.Percent)
	}
	if res.Passed {
		t.Fatal("expected fail: critical ceiling exceeded")
	}
	if len(res.FailureReasons) != 1 || !strings.Contains(res.FailureReasons[0], "RIPA") {
		t.Fatalf("failure reasons %v should cite the critical topic", res.FailureReasons)
	}
}

func TestSimpleMajorityPass(t *testing.T) {
	// 70%: 28 of 40 correct, all 12 errors spread outside the ceiling.
	e, topics := twoTopicExam(30, 10)
	answers := answerAll(e, "a")
	for i := 0; i < 12; i++ {
		answers[fmt.Sprintf("a%d", i)] = "c" // errors only in the non-critical topic
	}

	res := Score(e, answers, topics)
	if res.Percent != 70 {
		t.Fatalf("overall %.1f%%, want 70", res.Percent)
	}
	if !res.Passed || len(res.FailureReasons) != 0 {
		t.Fatalf("expected pass, got %+v", res.FailureReasons)
	}
}

func TestUnansweredCountsAsError(t *testing.T) {
	e, topics := twoTopicExam(4, 0)
	answers := map[string]string{"a0": "a", "a1": "a"} // a2/a3 unanswered

	res := Score(e, answers, topics)
	if res.Correct != 2 || res.Errors != 2 || res.Unanswered != 2 {
		t.Fatalf("got correct=%d errors=%d unanswered=%d", res.Correct, res.Errors, res.Unanswered)
	}
	if res.Percent != 50 {
		t.Fatalf("overall %.1f%%, want 50", res.Percent)
	}
}

func TestAnnulledExcluded(t *testing.T) {
	e, topics := twoTopicExam(0, 10)
	e.Questions[0].Annulled = true
	answers := answerAll(e, "a")
	answers[e.Questions[0].ID] = "d" // wrong answer on the annulled question

	res := Score(e, answers, topics)
	if res.Total != 9 {
		t.Fatalf("denominator %d, want 9 (annulled excluded)", res.Total)
	}
	ts := res.Topics[1] // topic 6
	if ts.TopicID != 6 {
		t.Fatalf("topic order unexpected: %+v", res.Topics)
	}
	if ts.Errors != 0 || ts.Annulled != 1 || ts.Total != 9 {
		t.Fatalf("annulled leaked into tally: %+v", ts)
	}
	if !res.Passed {
		t.Fatalf("expected pass, reasons: %v", res.FailureReasons)
	}
}

func TestBothRulesReported(t *testing.T) {
	e, topics := twoTopicExam(10, 10)
	answers := answerAll(e, "b") // everything wrong

	res := Score(e, answers, topics)
	if res.Passed {
		t.Fatal("expected fail")
	}
	if len(res.FailureReasons) != 2 {
		t.Fatalf("want both the floor and the ceiling cited, got %v", res.FailureReasons)
	}
}
