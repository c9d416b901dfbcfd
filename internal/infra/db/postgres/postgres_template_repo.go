package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
)

var _ repository.TemplateRepository = (*PostgresTemplateRepo)(nil)

type PostgresTemplateRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTemplateRepo(pool *pgxpool.Pool) *PostgresTemplateRepo {
	return &PostgresTemplateRepo{pool: pool}
}

func (r *PostgresTemplateRepo) Save(ctx context.Context, tx repository.Tx, t *model.Template) error {
	const q = `
INSERT INTO templates (id, name, description, telegram_file_id, local_path, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  name=$2, description=$3, telegram_file_id=$4, local_path=$5;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, t.ID, t.Name, t.Description, t.TelegramFileID, t.LocalPath, t.CreatedAt); err != nil {
		return persist("template.save", err)
	}
	return nil
}

func (r *PostgresTemplateRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Template, error) {
	const q = `
SELECT id, name, description, telegram_file_id, local_path, created_at
  FROM templates WHERE id=$1;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var t model.Template
	err = ex.QueryRow(ctx, q, id).Scan(&t.ID, &t.Name, &t.Description, &t.TelegramFileID, &t.LocalPath, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persist("template.find", err)
	}
	return &t, nil
}

func (r *PostgresTemplateRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Template, error) {
	const q = `
SELECT id, name, description, telegram_file_id, local_path, created_at
  FROM templates ORDER BY created_at;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, persist("template.list", err)
	}
	defer rows.Close()

	var out []*model.Template
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.TelegramFileID, &t.LocalPath, &t.CreatedAt); err != nil {
			return nil, persist("template.list", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, persist("template.list", err)
	}
	return out, nil
}

func (r *PostgresTemplateRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM templates WHERE id=$1;`, id)
	if err != nil {
		return persist("template.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
