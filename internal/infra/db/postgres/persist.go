package postgres

import (
	"vehicle-registration-bot/internal/domain"
	"vehicle-registration-bot/internal/infra/metrics"
)

// persist wraps a storage failure as a PersistenceError and counts it.
func persist(op string, err error) error {
	metrics.IncDBError(op)
	return domain.Persistence(op, err)
}
