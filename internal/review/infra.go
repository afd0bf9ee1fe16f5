package review

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

const reviewColumns = `id, rating, COALESCE(text, ''), approved, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.Rating, &r.Text, &r.Approved, &r.CreatedAt)
	return r, err
}

func (p *repo) Create(ctx context.Context, r Review) error {
	text := sql.NullString{String: r.Text, Valid: r.Text != ""}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO reviews (id, rating, text, approved, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.Rating, text, r.Approved, r.CreatedAt)
	return err
}

func (p *repo) FindApproved(ctx context.Context) ([]Review, error) {
	return p.list(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE approved
		ORDER BY created_at DESC
	`)
}

func (p *repo) FindAll(ctx context.Context) ([]Review, error) {
	return p.list(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		ORDER BY created_at DESC
	`)
}

func (p *repo) list(ctx context.Context, query string) ([]Review, error) {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *repo) Approve(ctx context.Context, id string) (Review, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Review{}, false, nil
	}
	r, err := scanReview(p.db.QueryRowContext(ctx, `
		UPDATE reviews SET approved = true
		WHERE id = $1
		RETURNING `+reviewColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Review{}, false, nil
	}
	if err != nil {
		return Review{}, false, err
	}
	return r, true, nil
}

func (p *repo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
