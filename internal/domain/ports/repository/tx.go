package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying transaction handle via the opaque Tx argument.
//
// Use-case interfaces stay clean (no driver types leaking out); repository
// methods accept the handle and detect a tx implementation-side. The concrete
// type is infra-defined (pgx.Tx for Postgres). Repositories MUST gracefully
// accept a nil handle (non-transactional path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
