package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/perpractico/per-engine/internal/bank"
	"github.com/perpractico/per-engine/internal/exam"
	"github.com/perpractico/per-engine/internal/scoring"
)

// SQLStore persists exams and sessions over database/sql, usable with both
// the pgx and the modernc sqlite drivers.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) CreateExamSession(ctx context.Context, e *exam.Exam, sess *Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM sessions WHERE user_id=$1 AND status IN ('in_progress','paused') LIMIT 1`,
		sess.UserID).Scan(&one)
	switch {
	case err == nil:
		return ErrSessionConflict
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	fj, _ := json.Marshal(e.Filters)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exams (id, user_id, filters_json, questions_json, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.UserID, string(fj), string(qj), e.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("insert exam: %w", err)
	}

	cols, err := sessionColumns(sess)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, exam_id, user_id, status, started_at, paused_at, paused_accum_ms, finished_at, answers_json, time_spent_json, result_json)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		sess.ID, sess.ExamID, sess.UserID, string(sess.Status),
		cols.startedAt, cols.pausedAt, cols.pausedAccumMS, cols.finishedAt,
		cols.answersJSON, cols.timeSpentJSON, cols.resultJSON); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (*Session, error) {
	return scanSession(s.db.QueryRowContext(ctx,
		`SELECT id, exam_id, user_id, status, started_at, paused_at, paused_accum_ms, finished_at, answers_json, time_spent_json, result_json
		 FROM sessions WHERE id=$1`, id))
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (*exam.Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, filters_json, questions_json, created_at FROM exams WHERE id=$1`, id)
	var e exam.Exam
	var fj, qj string
	var createdAt int64
	if err := row.Scan(&e.ID, &e.UserID, &fj, &qj, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	if err := json.Unmarshal([]byte(fj), &e.Filters); err != nil {
		e.Filters = bank.Filters{}
	}
	if err := json.Unmarshal([]byte(qj), &e.Questions); err != nil {
		return nil, fmt.Errorf("exam %s questions: %w", e.ID, err)
	}
	return &e, nil
}

func (s *SQLStore) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	q := `SELECT id, exam_id, user_id, status, started_at, paused_at, paused_accum_ms, finished_at, answers_json, time_spent_json, result_json
	      FROM sessions WHERE id=$1`
	if s.driver == "postgres" {
		q += " FOR UPDATE" // sqlite serializes writers on its own
	}
	sess, err := scanSession(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := mutate(sess); err != nil {
		return nil, err
	}

	cols, err := sessionColumns(sess)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status=$1, paused_at=$2, paused_accum_ms=$3, finished_at=$4,
		        answers_json=$5, time_spent_json=$6, result_json=$7
		 WHERE id=$8`,
		string(sess.Status), cols.pausedAt, cols.pausedAccumMS, cols.finishedAt,
		cols.answersJSON, cols.timeSpentJSON, cols.resultJSON, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLStore) ActiveSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, user_id, status, started_at, paused_at, paused_accum_ms, finished_at, answers_json, time_spent_json, result_json
		 FROM sessions WHERE status IN ('in_progress','paused')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var status string
	var startedAt int64
	var pausedAt, finishedAt sql.NullInt64
	var pausedAccumMS int64
	var aj, tj string
	var rj sql.NullString
	if err := row.Scan(&sess.ID, &sess.ExamID, &sess.UserID, &status, &startedAt,
		&pausedAt, &pausedAccumMS, &finishedAt, &aj, &tj, &rj); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sess.Status = Status(status)
	sess.StartedAt = time.UnixMilli(startedAt).UTC()
	sess.PausedAccum = time.Duration(pausedAccumMS) * time.Millisecond
	if pausedAt.Valid {
		t := time.UnixMilli(pausedAt.Int64).UTC()
		sess.PausedAt = &t
	}
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64).UTC()
		sess.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(aj), &sess.Answers); err != nil || sess.Answers == nil {
		sess.Answers = map[string]string{}
	}
	if err := json.Unmarshal([]byte(tj), &sess.TimeSpent); err != nil || sess.TimeSpent == nil {
		sess.TimeSpent = map[string]int{}
	}
	if rj.Valid && rj.String != "" {
		var res scoring.Result
		if err := json.Unmarshal([]byte(rj.String), &res); err == nil {
			sess.Result = &res
		}
	}
	return &sess, nil
}

type sessionCols struct {
	startedAt     int64
	pausedAt      sql.NullInt64
	pausedAccumMS int64
	finishedAt    sql.NullInt64
	answersJSON   string
	timeSpentJSON string
	resultJSON    sql.NullString
}

func sessionColumns(s *Session) (sessionCols, error) {
	var c sessionCols
	c.startedAt = s.StartedAt.UnixMilli()
	c.pausedAccumMS = s.PausedAccum.Milliseconds()
	if s.PausedAt != nil {
		c.pausedAt = sql.NullInt64{Int64: s.PausedAt.UnixMilli(), Valid: true}
	}
	if s.FinishedAt != nil {
		c.finishedAt = sql.NullInt64{Int64: s.FinishedAt.UnixMilli(), Valid: true}
	}
	aj, err := json.Marshal(s.Answers)
	if err != nil {
		return c, err
	}
	tj, err := json.Marshal(s.TimeSpent)
	if err != nil {
		return c, err
	}
	c.answersJSON, c.timeSpentJSON = string(aj), string(tj)
	if s.Result != nil {
		rj, err := json.Marshal(s.Result)
		if err != nil {
			return c, err
		}
		c.resultJSON = sql.NullString{String: string(rj), Valid: true}
	}
	return c, nil
}
