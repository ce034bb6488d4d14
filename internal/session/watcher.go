package session

import (
	"context"
	"log"
	"time"
)

// Watcher is the only autonomous transition in the system: it sweeps active
// sessions and times out any whose server-side active duration exceeds the
// limit, scoring whatever was recorded at that instant. Paused sessions
// don't accrue active time so they are swept but never expire while paused.
type Watcher struct {
	svc      *Service
	interval time.Duration
}

func NewWatcher(svc *Service, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{svc: svc, interval: interval}
}

// Run blocks until ctx is done, sweeping once per interval.
func (w *Watcher) Run(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := w.Sweep(ctx); err != nil {
				log.Printf("deadline watcher: %v", err)
			}
		}
	}
}

// Sweep times out every overdue session. Exported for tests and for a
// sweep-on-boot after downtime.
func (w *Watcher) Sweep(ctx context.Context) error {
	active, err := w.svc.store.ActiveSessions(ctx)
	if err != nil {
		return err
	}
	now := w.svc.now().UTC()
	for _, s := range active {
		if s.ActiveDuration(now) <= w.svc.limit {
			continue
		}
		e, err := w.svc.store.GetExam(ctx, s.ExamID)
		if err != nil {
			log.Printf("deadline watcher: exam %s: %v", s.ExamID, err)
			continue
		}
		if _, err := w.svc.finish(ctx, e, s.ID, nil, StatusTimedOut); err != nil {
			log.Printf("deadline watcher: session %s: %v", s.ID, err)
		}
	}
	return nil
}
