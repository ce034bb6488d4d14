package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SQLStore reads the question corpus from the sittings/questions tables.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// LoadQuestions fetches the whole corpus with sitting attributes joined in,
// ready for NewPool.
func (s *SQLStore) LoadQuestions(ctx context.Context) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.sitting_id, q.number, q.topic_id, q.prompt,
		       q.options_json, q.correct, q.annulled, q.fingerprint,
		       e.convocatoria, e.tipo_examen
		FROM questions q
		JOIN sittings e ON q.sitting_id = e.id
		ORDER BY e.convocatoria, q.sitting_id, q.number`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var optsJSON string
		var annulled int
		if err := rows.Scan(&q.ID, &q.SittingID, &q.Number, &q.TopicID, &q.Prompt,
			&optsJSON, &q.Correct, &annulled, &q.Fingerprint,
			&q.Convocatoria, &q.TipoExamen); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(optsJSON), &q.Options); err != nil {
			return nil, fmt.Errorf("question %s options: %w", q.ID, err)
		}
		q.Annulled = annulled != 0
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListSittings returns the historical sittings, newest convocation first.
func (s *SQLStore) ListSittings(ctx context.Context) ([]Sitting, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, exam_date, convocatoria, tipo_examen
		FROM sittings ORDER BY convocatoria DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("query sittings: %w", err)
	}
	defer rows.Close()

	var out []Sitting
	for rows.Next() {
		var e Sitting
		var date sql.NullString
		if err := rows.Scan(&e.ID, &e.Title, &date, &e.Convocatoria, &e.TipoExamen); err != nil {
			return nil, fmt.Errorf("scan sitting: %w", err)
		}
		e.Date = date.String
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertQuestion writes one question, recomputing its fingerprint. Used by
// the (out-of-scope) ingestion tooling and by admin corrections.
func (s *SQLStore) UpsertQuestion(ctx context.Context, q Question) error {
	q.ComputeFingerprint()
	optsJSON, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	annulled := 0
	if q.Annulled {
		annulled = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (id, sitting_id, number, topic_id, prompt, options_json, correct, annulled, fingerprint)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
		  topic_id=EXCLUDED.topic_id, prompt=EXCLUDED.prompt,
		  options_json=EXCLUDED.options_json, correct=EXCLUDED.correct,
		  annulled=EXCLUDED.annulled, fingerprint=EXCLUDED.fingerprint`,
		q.ID, q.SittingID, q.Number, q.TopicID, q.Prompt, string(optsJSON), q.Correct, annulled, q.Fingerprint)
	return err
}
