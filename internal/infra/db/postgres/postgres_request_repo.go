package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
)

var _ repository.RequestRepository = (*PostgresRequestRepo)(nil)

type PostgresRequestRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRequestRepo(pool *pgxpool.Pool) *PostgresRequestRepo {
	return &PostgresRequestRepo{pool: pool}
}

const requestColumns = `
id, user_id, category, status, has_brand, year, has_license,
license_option, no_license_option, selected_template_id,
created_at, submitted_at, reviewed_at, reviewed_by`

func (r *PostgresRequestRepo) Save(ctx context.Context, tx repository.Tx, req *model.Request) error {
	const q = `
INSERT INTO requests (
  id, user_id, category, status, has_brand, year, has_license,
  license_option, no_license_option, selected_template_id,
  created_at, submitted_at, reviewed_at, reviewed_by
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  status=$4, has_brand=$5, year=$6, has_license=$7,
  license_option=$8, no_license_option=$9, selected_template_id=$10,
  submitted_at=$12, reviewed_at=$13, reviewed_by=$14;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q,
		req.ID, req.UserID, req.Category, req.Status, req.HasBrand, req.Year, req.HasLicense,
		req.LicenseOption, req.NoLicenseOption, req.SelectedTemplateID,
		req.CreatedAt, req.SubmittedAt, req.ReviewedAt, req.ReviewedBy,
	)
	if err != nil {
		return persist("request.save", err)
	}
	return nil
}

func (r *PostgresRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Request, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id=$1;`, id)
	req, err := scanRequest(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persist("request.find", err)
	}
	return req, nil
}

func (r *PostgresRequestRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Request, error) {
	return r.list(ctx, tx, `SELECT `+requestColumns+` FROM requests WHERE user_id=$1 ORDER BY created_at DESC;`, userID)
}

func (r *PostgresRequestRepo) ListByStatus(ctx context.Context, tx repository.Tx, status model.RequestStatus, limit int) ([]*model.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, tx, `SELECT `+requestColumns+` FROM requests WHERE status=$1 ORDER BY created_at DESC LIMIT $2;`, status, limit)
}

func (r *PostgresRequestRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Request, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, tx, `SELECT `+requestColumns+` FROM requests ORDER BY created_at DESC LIMIT $1;`, limit)
}

func (r *PostgresRequestRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Request, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, persist("request.list", err)
	}
	defer rows.Close()

	var out []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, persist("request.list", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, persist("request.list", err)
	}
	return out, nil
}

func (r *PostgresRequestRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.RequestStatus]int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status;`)
	if err != nil {
		return nil, persist("request.count_by_status", err)
	}
	defer rows.Close()

	out := make(map[model.RequestStatus]int)
	for rows.Next() {
		var status model.RequestStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, persist("request.count_by_status", err)
		}
		out[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, persist("request.count_by_status", err)
	}
	return out, nil
}

func (r *PostgresRequestRepo) CountSubmittedSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM requests WHERE submitted_at >= $1;`, since).Scan(&n); err != nil {
		return 0, persist("request.count_submitted", err)
	}
	return n, nil
}

func scanRequest(row pgx.Row) (*model.Request, error) {
	var req model.Request
	err := row.Scan(
		&req.ID, &req.UserID, &req.Category, &req.Status, &req.HasBrand, &req.Year, &req.HasLicense,
		&req.LicenseOption, &req.NoLicenseOption, &req.SelectedTemplateID,
		&req.CreatedAt, &req.SubmittedAt, &req.ReviewedAt, &req.ReviewedBy,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
