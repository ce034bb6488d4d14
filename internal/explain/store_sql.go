package explain

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLStore persists explanations over database/sql, usable with both the
// pgx and the modernc sqlite drivers (positional args work on both).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, fingerprint string) (*Explanation, error) {
	var e Explanation
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, markdown, diagram_svg, image_prompt, model, created_at
		 FROM explanations WHERE fingerprint=$1`, fingerprint).
		Scan(&e.Fingerprint, &e.Markdown, &e.DiagramSVG, &e.ImagePrompt, &e.Model, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoExplanation
	}
	if err != nil {
		return nil, err
	}
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &e, nil
}

func (s *SQLStore) Put(ctx context.Context, e Explanation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO explanations (fingerprint, markdown, diagram_svg, image_prompt, model, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (fingerprint) DO UPDATE SET
		   markdown=EXCLUDED.markdown,
		   diagram_svg=EXCLUDED.diagram_svg,
		   image_prompt=EXCLUDED.image_prompt,
		   model=EXCLUDED.model,
		   created_at=EXCLUDED.created_at`,
		e.Fingerprint, e.Markdown, e.DiagramSVG, e.ImagePrompt, e.Model, e.CreatedAt.UnixMilli())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, fingerprint string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM explanations WHERE fingerprint=$1`, fingerprint)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoExplanation
	}
	return nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM explanations`).Scan(&n)
	return n, err
}
