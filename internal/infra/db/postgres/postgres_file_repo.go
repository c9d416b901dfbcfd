package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
)

var _ repository.FileRepository = (*PostgresFileRepo)(nil)

type PostgresFileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresFileRepo(pool *pgxpool.Pool) *PostgresFileRepo {
	return &PostgresFileRepo{pool: pool}
}

func (r *PostgresFileRepo) Attach(ctx context.Context, tx repository.Tx, f *model.File) error {
	// A retried event can resend a photo that was already attached; keep
	// one row per (request, media reference).
	const q = `
INSERT INTO files (id, request_id, kind, telegram_file_id, local_path, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (request_id, telegram_file_id) DO NOTHING;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, f.ID, f.RequestID, f.Kind, f.TelegramFileID, f.LocalPath, f.CreatedAt); err != nil {
		return persist("file.attach", err)
	}
	return nil
}

func (r *PostgresFileRepo) UpdateLocalPath(ctx context.Context, tx repository.Tx, fileID, localPath string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE files SET local_path=$2 WHERE id=$1;`, fileID, localPath)
	if err != nil {
		return persist("file.update_path", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresFileRepo) ListByRequest(ctx context.Context, tx repository.Tx, requestID string) ([]*model.File, error) {
	const q = `
SELECT id, request_id, kind, telegram_file_id, local_path, created_at
  FROM files WHERE request_id=$1 ORDER BY created_at;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, requestID)
	if err != nil {
		return nil, persist("file.list", err)
	}
	defer rows.Close()

	var out []*model.File
	for rows.Next() {
		var f model.File
		if err := rows.Scan(&f.ID, &f.RequestID, &f.Kind, &f.TelegramFileID, &f.LocalPath, &f.CreatedAt); err != nil {
			return nil, persist("file.list", err)
		}
		out = append(out, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, persist("file.list", err)
	}
	return out, nil
}

func (r *PostgresFileRepo) CountFiles(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM files;`).Scan(&n); err != nil {
		return 0, persist("file.count", err)
	}
	return n, nil
}
