package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	api "github.com/perpractico/per-engine/internal/api/http"
	"github.com/perpractico/per-engine/internal/auth"
	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/config"
	"github.com/perpractico/per-engine/internal/db"
	"github.com/perpractico/per-engine/internal/eventlog"
	"github.com/perpractico/per-engine/internal/exam"
	"github.com/perpractico/per-engine/internal/explain"
	"github.com/perpractico/per-engine/internal/session"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Question corpus ---
	bankStore := bank.NewSQLStore(dbh)
	questions, err := bankStore.LoadQuestions(ctx)
	if err != nil {
		log.Fatalf("load questions: %v", err)
	}
	pool := bank.NewPool(questions)
	log.Printf("question pool: %d questions loaded", pool.Size())

	// --- Exam sessions ---
	assembler := exam.NewAssembler(pool, exam.Topics)
	events := eventlog.NewRepo(dbh)
	sessions := session.NewService(
		session.NewSQLStore(dbh, cfg.DBDriver),
		assembler, exam.Topics, cfg.ExamDuration, events,
	)

	// Timed-out sessions are finished server-side even if the client is gone.
	watcher := session.NewWatcher(sessions, 30*time.Second)
	go watcher.Run(context.Background())

	// --- Explanations ---
	var gen explain.Generator
	if cfg.GeneratorURL != "" {
		gen = explain.NewHTTPGenerator(cfg.GeneratorURL, cfg.GeneratorAPIKey, cfg.GeneratorModel, cfg.GeneratorTimeout)
	} else {
		log.Printf("GENERATOR_URL unset: explanation generation disabled")
	}
	explainStore := explain.NewSQLStore(dbh)
	cache := explain.NewCache(explainStore, gen)
	limiter := rate.NewLimiter(rate.Limit(cfg.ExplainRateRPS), cfg.ExplainRateBurst)

	// --- Auth ---
	authSvc := auth.NewService(cfg.AuthHMACSecret)

	r := api.NewRouter(api.Deps{
		Sessions:     sessions,
		Pool:         pool,
		Topics:       exam.Topics,
		Explanations: cache,
		ExplainStore: explainStore,
		Sittings:     bankStore,
		Auth:         authSvc,
		LoginHandler: auth.LoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash),
		GuestHandler: auth.GuestLoginHandler(authSvc, dbh, cfg.EnableGuestAuth),
		RateLimiter:  limiter,
		CORSOrigins:  cfg.CORSOrigins,
		Ready:        dbh.Ping,
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
