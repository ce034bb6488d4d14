package http

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/perpractico/per-engine/internal/auth"
	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/session"
)

// sessionView decorates the stored session with the server-computed clock
// so clients never derive the remaining time themselves.
type sessionView struct {
	*session.Session
	RemainingSec int `json:"remaining_sec"`
	ElapsedSec   int `json:"elapsed_sec"`
}

func viewOf(s *session.Session, limit time.Duration) sessionView {
	now := time.Now()
	return sessionView{
		Session:      s,
		RemainingSec: int(s.Remaining(now, limit).Seconds()),
		ElapsedSec:   int(s.ActiveDuration(now).Seconds()),
	}
}

// POST /sessions { "titulacion": "PER", "convocatoria": "...", "search": "..." }
func StartSessionHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			TipoExamen   string `json:"titulacion"`
			Convocatoria string `json:"convocatoria"`
			Search       string `json:"search"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
				return
			}
		}
		userID := auth.SubjectFromContext(r.Context())
		e, s, err := svc.Start(r.Context(), userID, bank.Filters{
			TipoExamen:   req.TipoExamen,
			Convocatoria: req.Convocatoria,
			Search:       req.Search,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusCreated, map[string]any{
			"session":   viewOf(s, svc.Limit()),
			"exam_id":   e.ID,
			"questions": e.PublicQuestions(),
		})
	}
}

// GET /sessions/{sessionID}
func GetSessionHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		s, err := svc.Get(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, viewOf(s, svc.Limit()))
	}
}

// GET /exams/{examID}/questions
func ExamQuestionsHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		e, err := svc.Exam(r.Context(), chi.URLParam(r, "examID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, e.PublicQuestions())
	}
}

// POST /sessions/{sessionID}/answers { "question_id": "...", "letter": "a", "elapsed_sec": 12 }
func AnswerHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			QuestionID string `json:"question_id"`
			Letter     string `json:"letter"`
			ElapsedSec int    `json:"elapsed_sec"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
			return
		}
		if req.QuestionID == "" || req.Letter == "" {
			nethttp.Error(w, "question_id and letter required", nethttp.StatusBadRequest)
			return
		}
		s, err := svc.RecordAnswer(r.Context(), chi.URLParam(r, "sessionID"),
			auth.SubjectFromContext(r.Context()), req.QuestionID, req.Letter, req.ElapsedSec)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, viewOf(s, svc.Limit()))
	}
}

// POST /sessions/{sessionID}/pause
func PauseHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		s, err := svc.Pause(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, viewOf(s, svc.Limit()))
	}
}

// POST /sessions/{sessionID}/resume
func ResumeHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		s, err := svc.Resume(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, viewOf(s, svc.Limit()))
	}
}

// POST /sessions/{sessionID}/finish { "answers": { "<question_id>": "a", ... } }
// The final answer merge lets a client flush unsynced answers with the
// submit itself.
func FinishHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var req struct {
			Answers map[string]string `json:"answers"`
		}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				nethttp.Error(w, "bad json", nethttp.StatusBadRequest)
				return
			}
		}
		s, err := svc.Finish(r.Context(), chi.URLParam(r, "sessionID"),
			auth.SubjectFromContext(r.Context()), req.Answers)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, viewOf(s, svc.Limit()))
	}
}

// DELETE /sessions/{sessionID} abandons the attempt without scoring it.
func AbandonHandler(svc *session.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		s, err := svc.Abandon(r.Context(), chi.URLParam(r, "sessionID"), auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, viewOf(s, svc.Limit()))
	}
}
