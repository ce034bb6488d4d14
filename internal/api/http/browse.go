package http

import (
	"context"
	nethttp "net/http"
	"strconv"

	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/exam"
	"github.com/perpractico/per-engine/internal/explain"
)

type SittingLister interface {
	ListSittings(ctx context.Context) ([]bank.Sitting, error)
}

// GET /sittings
func ListSittingsHandler(store SittingLister) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sittings, err := store.ListSittings(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if sittings == nil {
			sittings = []bank.Sitting{}
		}
		writeJSON(w, nethttp.StatusOK, sittings)
	}
}

// GET /questions?titulacion=&convocatoria=&tema=&search=&limit=&offset=
// Browses the historical corpus without revealing answer keys.
func ListQuestionsHandler(pool *bank.Pool) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		f := bank.Filters{
			TipoExamen:   r.URL.Query().Get("titulacion"),
			Convocatoria: r.URL.Query().Get("convocatoria"),
			Search:       r.URL.Query().Get("search"),
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

		var matches []*bank.Question
		if tema := r.URL.Query().Get("tema"); tema != "" {
			matches = pool.ByTopic(parseIntDefault(tema, -1), f)
		} else {
			matches = pool.All(f)
		}
		total := len(matches)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}
		out := make([]bank.Question, 0, end-offset)
		for _, q := range matches[offset:end] {
			out = append(out, q.Public())
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"total":     total,
			"questions": out,
		})
	}
}

// GET /topics returns the quota table exams are assembled from.
func TopicsHandler(topics []exam.TopicConfig) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"topics":          topics,
			"total_questions": exam.TotalQuestions(topics),
		})
	}
}

// GET /stats summarizes corpus size, content duplication and explanation
// coverage.
func StatsHandler(pool *bank.Pool, topics []exam.TopicConfig, explanations explain.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		all := pool.All(bank.Filters{})
		unique := map[string]bool{}
		perTopic := map[int]int{}
		annulled := 0
		for _, q := range all {
			unique[q.Fingerprint] = true
			perTopic[q.TopicID]++
			if q.Annulled {
				annulled++
			}
		}

		type topicStat struct {
			TopicID   int    `json:"topic_id"`
			Name      string `json:"name"`
			Questions int    `json:"questions"`
			Quota     int    `json:"quota"`
		}
		topicStats := make([]topicStat, 0, len(topics))
		for _, t := range topics {
			topicStats = append(topicStats, topicStat{
				TopicID: t.ID, Name: t.Name,
				Questions: perTopic[t.ID], Quota: t.Quota,
			})
		}

		explained, err := explanations.Count(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"questions":           len(all),
			"unique_fingerprints": len(unique),
			"duplicates":          len(all) - len(unique),
			"annulled":            annulled,
			"explanations":        explained,
			"topics":              topicStats,
		})
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
