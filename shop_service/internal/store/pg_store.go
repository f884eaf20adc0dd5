package store

import (
	"context"
	"errors"

	shoperrors "github.com/abgdnv/gomarket/shop_service/internal/errors"
	"github.com/abgdnv/gomarket/shop_service/internal/store/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ CartStore    = (*PgCartStore)(nil)
	_ CatalogStore = (*PgCatalogStore)(nil)
	_ OrderStore   = (*PgOrderStore)(nil)
)

// PgStore carries the connection pool and queries shared by the PostgreSQL stores.
type PgStore struct {
	db *pgxpool.Pool
	q  *db.Queries
}

// NewPgStore creates the shared PostgreSQL store base.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		q:  db.New(dbp),
	}
}

type PgCartStore struct{ *PgStore }

type PgCatalogStore struct{ *PgStore }

type PgOrderStore struct{ *PgStore }

// NewCartStore creates a CartStore backed by PostgreSQL.
func NewCartStore(base *PgStore) *PgCartStore { return &PgCartStore{base} }

// NewCatalogStore creates a CatalogStore backed by PostgreSQL.
func NewCatalogStore(base *PgStore) *PgCatalogStore { return &PgCatalogStore{base} }

// NewOrderStore creates an OrderStore backed by PostgreSQL.
func NewOrderStore(base *PgStore) *PgOrderStore { return &PgOrderStore{base} }

// readSnapshot makes every statement of a read transaction see the same snapshot.
var readSnapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func (p *PgStore) withTransaction(ctx context.Context, fn func(qtx *db.Queries) error) error {
	return p.withTx(ctx, pgx.TxOptions{}, fn)
}

func (p *PgStore) withTx(ctx context.Context, opts pgx.TxOptions, fn func(qtx *db.Queries) error) error {
	tx, err := p.db.BeginTx(ctx, opts)
	if err != nil {
		return shoperrors.ErrTransactionBegin
	}
	qtx := p.q.WithTx(tx)

	err = fn(qtx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return shoperrors.ErrTransactionRollback
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return shoperrors.ErrTransactionCommit
	}

	return nil
}
