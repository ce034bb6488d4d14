package http

import (
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/perpractico/per-engine/internal/auth"
	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/exam"
	"github.com/perpractico/per-engine/internal/explain"
	"github.com/perpractico/per-engine/internal/session"
)

// Deps is everything the router needs. Ready reports whether the backing
// store is reachable; readyz answers 503 while it is not.
type Deps struct {
	Sessions     *session.Service
	Pool         *bank.Pool
	Topics       []exam.TopicConfig
	Explanations *explain.Cache
	ExplainStore explain.Store
	Sittings     SittingLister
	Auth         *auth.Service
	LoginHandler nethttp.HandlerFunc
	GuestHandler nethttp.HandlerFunc
	RateLimiter  *rate.Limiter
	CORSOrigins  []string
	Ready        func() error
}

func NewRouter(d Deps) *chi.Mux {
	if d.RateLimiter == nil {
		d.RateLimiter = rate.NewLimiter(rate.Inf, 0)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute)) // explanation generation can block for minutes

	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if d.LoginHandler != nil {
		r.Post("/auth/login", d.LoginHandler)
	}
	if d.GuestHandler != nil {
		r.Post("/auth/guest", d.GuestHandler)
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.Post("/sessions", StartSessionHandler(d.Sessions))
		pr.Get("/sessions/{sessionID}", GetSessionHandler(d.Sessions))
		pr.Post("/sessions/{sessionID}/answers", AnswerHandler(d.Sessions))
		pr.Post("/sessions/{sessionID}/pause", PauseHandler(d.Sessions))
		pr.Post("/sessions/{sessionID}/resume", ResumeHandler(d.Sessions))
		pr.Post("/sessions/{sessionID}/finish", FinishHandler(d.Sessions))
		pr.Delete("/sessions/{sessionID}", AbandonHandler(d.Sessions))
		pr.Get("/exams/{examID}/questions", ExamQuestionsHandler(d.Sessions))

		pr.Get("/explanations/{fingerprint}", GetExplanationHandler(d.Explanations, d.Pool, d.RateLimiter))

		pr.Get("/sittings", ListSittingsHandler(d.Sittings))
		pr.Get("/questions", ListQuestionsHandler(d.Pool))
		pr.Get("/topics", TopicsHandler(d.Topics))
		pr.Get("/stats", StatsHandler(d.Pool, d.Topics, d.ExplainStore))

		// Explanation management is admin-only.
		pr.Group(func(ar chi.Router) {
			ar.Use(auth.RequireRole(auth.RoleAdmin))
			ar.Post("/explanations/{fingerprint}/regenerate", RegenerateExplanationHandler(d.Explanations, d.Pool, d.RateLimiter))
			ar.Put("/explanations/{fingerprint}", UpdateExplanationHandler(d.Explanations))
			ar.Delete("/explanations/{fingerprint}", DeleteExplanationHandler(d.Explanations))
		})
	})

	r.Get("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				nethttp.Error(w, err.Error(), nethttp.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	return r
}
