package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4/pgxpool"

	"vehicle-registration-bot/internal/domain/model"
	"vehicle-registration-bot/internal/domain/ports/repository"
)

var _ repository.AuditRepository = (*PostgresAuditRepo)(nil)

type PostgresAuditRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAuditRepo(pool *pgxpool.Pool) *PostgresAuditRepo {
	return &PostgresAuditRepo{pool: pool}
}

func (r *PostgresAuditRepo) Append(ctx context.Context, tx repository.Tx, event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, `INSERT INTO audit_log (event, payload) VALUES ($1, $2);`, event, b); err != nil {
		return persist("audit.append", err)
	}
	return nil
}

func (r *PostgresAuditRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Audit, error) {
	if limit <= 0 {
		limit = 100
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `SELECT id, event, payload, created_at FROM audit_log ORDER BY id DESC LIMIT $1;`, limit)
	if err != nil {
		return nil, persist("audit.list", err)
	}
	defer rows.Close()

	var out []*model.Audit
	for rows.Next() {
		var a model.Audit
		if err := rows.Scan(&a.ID, &a.Event, &a.Payload, &a.CreatedAt); err != nil {
			return nil, persist("audit.list", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, persist("audit.list", err)
	}
	return out, nil
}
