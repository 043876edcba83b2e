package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-caja/internal/application/cash"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// El mismo runner sirve al ledger y a la caja.
var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ cash.TxRunner      = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// ReposFor arma el juego de repositorios sobre un Querier (pool para lecturas, tx para escrituras).
func ReposFor(q Querier) repository.Repos {
	return repository.Repos{
		Stock:        NewStockRepository(q),
		Lots:         NewLotRepository(q),
		Movements:    NewMovementRepository(q),
		Adjustments:  NewAdjustmentRepository(q),
		Transfers:    NewTransferRepository(q),
		CashSessions: NewCashSessionRepository(q),
	}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los saldos y lotes se bloquean con SELECT FOR UPDATE dentro de fn.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ReposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
