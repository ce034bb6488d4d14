package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/exam"
)

var testTopics = []exam.TopicConfig{
	{ID: 1, Name: "Nomenclatura", Quota: 2, MaxErrors: -1},
	{ID: 6, Name: "RIPA", Quota: 2, MaxErrors: 1, Critical: true},
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	var qs []bank.Question
	for _, tc := range testTopics {
		for i := 0; i < 6; i++ {
			qs = append(qs, bank.Question{
				ID:      fmt.Sprintf("t%d-q%d", tc.ID, i),
				TopicID: tc.ID,
				Prompt:  fmt.Sprintf("pregunta %d tema %d", i, tc.ID),
				Options: []bank.Option{{Letter: "a", Text: "sí"}, {Letter: "b", Text: "no"}, {Letter: "c", Text: "depende"}},
				Correct: "a",
			})
		}
	}
	asm := exam.NewAssembler(bank.NewPool(qs), testTopics)
	svc := NewService(NewMemoryStore(), asm, testTopics, DefaultLimit, nil)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	return svc, clock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStartExclusivity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.Start(ctx, "u1", bank.Filters{}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, _, err := svc.Start(ctx, "u1", bank.Filters{}); !errors.Is(err, ErrSessionConflict) {
		t.Fatalf("second start: got %v, want ErrSessionConflict", err)
	}
	active, _ := svc.store.ActiveSessions(ctx)
	if len(active) != 1 {
		t.Fatalf("conflict start still created a session: %d active", len(active))
	}
	// A different user is unaffected.
	if _, _, err := svc.Start(ctx, "u2", bank.Filters{}); err != nil {
		t.Fatalf("other user start: %v", err)
	}
}

func TestRecordAnswerValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	e, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	qid := e.Questions[0].ID

	if _, err := svc.RecordAnswer(ctx, s.ID, "u1", qid, "z", 5); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("bad letter: got %v, want ErrInvalidAnswer", err)
	}
	if _, err := svc.RecordAnswer(ctx, s.ID, "u1", "no-such-question", "a", 5); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("unknown question: got %v, want ErrInvalidAnswer", err)
	}

	if _, err := svc.RecordAnswer(ctx, s.ID, "u1", qid, "b", 5); err != nil {
		t.Fatal(err)
	}
	got, err := svc.RecordAnswer(ctx, s.ID, "u1", qid, "c", 7) // overwrite
	if err != nil {
		t.Fatal(err)
	}
	if got.Answers[qid] != "c" {
		t.Fatalf("answer not overwritten: %q", got.Answers[qid])
	}
	if got.TimeSpent[qid] != 12 {
		t.Fatalf("time spent %d, want accumulated 12", got.TimeSpent[qid])
	}

	// Ownership: another user cannot touch the session.
	if _, err := svc.RecordAnswer(ctx, s.ID, "u2", qid, "a", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign user: got %v, want ErrNotFound", err)
	}
}

func TestPauseResumeAccounting(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	_, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(10 * time.Minute)
	if _, err := svc.Pause(ctx, s.ID, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Pause(ctx, s.ID, "u1"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("double pause: got %v", err)
	}

	clock.Advance(20 * time.Minute) // paused, must not count
	got, err := svc.Resume(ctx, s.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PausedAccum != 20*time.Minute {
		t.Fatalf("paused accum %v, want 20m", got.PausedAccum)
	}
	if d := got.ActiveDuration(clock.Now()); d != 10*time.Minute {
		t.Fatalf("active duration %v, want 10m", d)
	}
	if r := got.Remaining(clock.Now(), svc.Limit()); r != 80*time.Minute {
		t.Fatalf("remaining %v, want 80m", r)
	}

	// Answers are rejected while paused.
	if _, err := svc.Pause(ctx, s.ID, "u1"); err != nil {
		t.Fatal(err)
	}
	e, _ := svc.store.GetExam(ctx, s.ExamID)
	if _, err := svc.RecordAnswer(ctx, s.ID, "u1", e.Questions[0].ID, "a", 1); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("answer while paused: got %v", err)
	}
}

func TestFinishScoresAndIsIdempotent(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	e, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}

	answers := map[string]string{}
	for _, q := range e.Questions {
		answers[q.ID] = "a" // everything correct
	}
	clock.Advance(30 * time.Minute)
	got, err := svc.Finish(ctx, s.ID, "u1", answers)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status %s, want completed", got.Status)
	}
	if got.Result == nil || !got.Result.Passed || got.Result.Percent != 100 {
		t.Fatalf("unexpected result: %+v", got.Result)
	}

	// Finishing again, even with different answers, returns the stored result.
	wrong := map[string]string{e.Questions[0].ID: "b"}
	again, err := svc.Finish(ctx, s.ID, "u1", wrong)
	if err != nil {
		t.Fatal(err)
	}
	if again.Result.Percent != 100 || again.Status != StatusCompleted {
		t.Fatalf("idempotent finish recomputed: %+v", again.Result)
	}

	// The terminal session no longer blocks a new start.
	if _, _, err := svc.Start(ctx, "u1", bank.Filters{}); err != nil {
		t.Fatalf("start after finish: %v", err)
	}
}

type recordingSink struct{ events []string }

func (r *recordingSink) Append(_ context.Context, typ, _ string, _ any) error {
	r.events = append(r.events, typ)
	return nil
}

func TestFinishEmitsOneEvent(t *testing.T) {
	svc, _ := newTestService(t)
	sink := &recordingSink{}
	svc.events = sink
	ctx := context.Background()

	_, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Finish(ctx, s.ID, "u1", nil); err != nil {
		t.Fatal(err)
	}
	// A repeat finish is served from the stored result and is not a
	// transition, so it must not be audited again.
	if _, err := svc.Finish(ctx, s.ID, "u1", nil); err != nil {
		t.Fatal(err)
	}

	finished := 0
	for _, typ := range sink.events {
		if typ == "session.finished" {
			finished++
		}
	}
	if finished != 1 {
		t.Fatalf("session.finished emitted %d times, want 1 (all events: %v)", finished, sink.events)
	}
}

func TestWatcherTimesOutOverdueSessions(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	e, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordAnswer(ctx, s.ID, "u1", e.Questions[0].ID, "a", 60); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(svc, time.Second)

	clock.Advance(89 * time.Minute)
	if err := w.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.Get(ctx, s.ID, "u1"); got.Status != StatusInProgress {
		t.Fatalf("swept too early: %s", got.Status)
	}

	clock.Advance(2 * time.Minute)
	if err := w.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.Get(ctx, s.ID, "u1")
	if got.Status != StatusTimedOut {
		t.Fatalf("status %s, want timed_out", got.Status)
	}
	if got.Result == nil {
		t.Fatal("timed-out session was not scored")
	}
	if got.Result.Correct != 1 {
		t.Fatalf("scored %d correct, want the 1 recorded before timeout", got.Result.Correct)
	}
}

func TestPausedSessionNeverTimesOut(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	_, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Pause(ctx, s.ID, "u1"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(5 * time.Hour)
	if err := NewWatcher(svc, time.Second).Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.Get(ctx, s.ID, "u1"); got.Status != StatusPaused {
		t.Fatalf("paused session transitioned to %s", got.Status)
	}
}

func TestAbandon(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, s, err := svc.Start(ctx, "u1", bank.Filters{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.Abandon(ctx, s.ID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusAbandoned || got.Result != nil {
		t.Fatalf("abandon: status=%s result=%v", got.Status, got.Result)
	}
	if _, err := svc.Abandon(ctx, s.ID, "u1"); !errors.Is(err, ErrTerminal) {
		t.Fatalf("double abandon: got %v", err)
	}
	if _, _, err := svc.Start(ctx, "u1", bank.Filters{}); err != nil {
		t.Fatalf("start after abandon: %v", err)
	}
}
