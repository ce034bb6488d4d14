package http

import (
	"context"
	"encoding/json"
	"log"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/explain"
)

// FingerprintIndex resolves a fingerprint to one representative question.
// Which historical occurrence backs the fingerprint is irrelevant: the
// normalized content is identical by construction.
type FingerprintIndex interface {
	ByFingerprint(fp string) (*bank.Question, []*bank.Question)
}

func contentOf(q *bank.Question) explain.Content {
	return explain.Content{Prompt: q.Prompt, Options: q.Options, Correct: q.Correct}
}

// GetExplanationHandler serves the cached explanation, generating on miss.
// With ?wait=false the caller never blocks: a miss answers 202 and kicks
// the generation off in the background. Generations consume the shared
// rate limiter; an exhausted limiter answers 429.
func GetExplanationHandler(cache *explain.Cache, idx FingerprintIndex, limiter *rate.Limiter) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fp := chi.URLParam(r, "fingerprint")
		q, _ := idx.ByFingerprint(fp)
		if q == nil {
			nethttp.Error(w, "unknown fingerprint", nethttp.StatusNotFound)
			return
		}

		if e, pending, err := cache.Peek(r.Context(), fp); err != nil {
			writeError(w, err)
			return
		} else if e != nil {
			writeJSON(w, nethttp.StatusOK, e)
			return
		} else if pending {
			writeJSON(w, nethttp.StatusAccepted, map[string]string{"status": "pending", "fingerprint": fp})
			return
		}

		if !limiter.Allow() {
			nethttp.Error(w, "generation rate limit exceeded", nethttp.StatusTooManyRequests)
			return
		}

		if r.URL.Query().Get("wait") == "false" {
			go func() {
				if _, err := cache.GetOrGenerate(context.Background(), fp, contentOf(q)); err != nil {
					log.Printf("background explanation %s: %v", fp, err)
				}
			}()
			writeJSON(w, nethttp.StatusAccepted, map[string]string{"status": "pending", "fingerprint": fp})
			return
		}

		e, err := cache.GetOrGenerate(r.Context(), fp, contentOf(q))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, e)
	}
}

// POST /explanations/{fingerprint}/regenerate discards the cached value and
// generates a fresh one. Admin only.
func RegenerateExplanationHandler(cache *explain.Cache, idx FingerprintIndex, limiter *rate.Limiter) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fp := chi.URLParam(r, "fingerprint")
		q, _ := idx.ByFingerprint(fp)
		if q == nil {
			nethttp.Error(w, "unknown fingerprint", nethttp.StatusNotFound)
			return
		}
		if !limiter.Allow() {
			nethttp.Error(w, "generation rate limit exceeded", nethttp.StatusTooManyRequests)
			return
		}
		e, err := cache.Regenerate(r.Context(), fp, contentOf(q))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, e)
	}
}

// PUT /explanations/{fingerprint} { "markdown": "..." } edits the stored
// text without touching the generator. Admin only.
func UpdateExplanationHandler(cache *explain.Cache) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Markdown string `json:"markdown"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
			return
		}
		if req.Markdown == "" {
			nethttp.Error(w, "markdown required", nethttp.StatusBadRequest)
			return
		}
		e, err := cache.Update(r.Context(), chi.URLParam(r, "fingerprint"), req.Markdown)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, e)
	}
}

// DELETE /explanations/{fingerprint}. Admin only.
func DeleteExplanationHandler(cache *explain.Cache) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := cache.Delete(r.Context(), chi.URLParam(r, "fingerprint")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(nethttp.StatusNoContent)
	}
}
