package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-caja/internal/domain"
)

// Querier lo común a *pgxpool.Pool y pgx.Tx: los repositorios funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

//go:embed schema.sql
var schemaSQL string

// Migrate aplica el esquema (idempotente).
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	return nil
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// constraintName nombre del constraint violado, si el error lo trae.
func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// notFound traduce pgx.ErrNoRows al error de dominio; el resto se envuelve con op.
func notFound(err error, entityName, id, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(entityName, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// writeErr traduce 23505 a domain.ErrConflict.
func writeErr(err error, op string) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s (%s)", domain.ErrConflict, op, constraintName(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// staleVersion error de control optimista: otro escritor ya cambió el agregado.
func staleVersion(entityName, id string, expected int) error {
	return fmt.Errorf("%w: %s %s cambió de versión (esperada %d)",
		domain.ErrInvalidStateTransition, entityName, id, expected)
}

// versionMiss distingue entre "no existe" y "versión obsoleta" cuando un UPDATE no afecta filas.
func versionMiss(ctx context.Context, q Querier, table, entityName, id string, expected int) error {
	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("verificar %s: %w", entityName, err)
	}
	if !exists {
		return domain.NotFound(entityName, id)
	}
	return staleVersion(entityName, id, expected)
}
