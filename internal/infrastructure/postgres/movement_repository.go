package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo log de movimientos (append-only) sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `sequence, id, warehouse_id, item_id, kind, quantity_delta, quantity_before, quantity_after,
	reason, reference_id, lot_id, actor, unit_cost, total_cost, occurred_at`

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var kind string
	err := row.Scan(&m.Sequence, &m.ID, &m.WarehouseID, &m.ItemID, &kind, &m.QuantityDelta, &m.QuantityBefore,
		&m.QuantityAfter, &m.Reason, &m.ReferenceID, &m.LotID, &m.Actor, &m.UnitCost, &m.TotalCost, &m.Timestamp)
	if err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	return &m, nil
}

// Create inserta el movimiento; la secuencia la asigna la base.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (id, warehouse_id, item_id, kind, quantity_delta, quantity_before, quantity_after,
			reason, reference_id, lot_id, actor, unit_cost, total_cost, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.WarehouseID, m.ItemID, string(m.Kind), m.QuantityDelta, m.QuantityBefore, m.QuantityAfter,
		m.Reason, m.ReferenceID, m.LotID, m.Actor, m.UnitCost, m.TotalCost, m.Timestamp,
	).Scan(&m.Sequence)
	if err != nil {
		return writeErr(err, "crear movimiento")
	}
	return nil
}

// ListByKey movimientos del saldo en orden de escritura; Limit 0 es sin límite.
func (r *MovementRepo) ListByKey(ctx context.Context, key entity.StockKey, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements
		WHERE warehouse_id = $1 AND item_id = $2
		  AND ($3::timestamptz IS NULL OR occurred_at >= $3)
		  AND ($4::timestamptz IS NULL OR occurred_at <= $4)
		ORDER BY sequence
		LIMIT NULLIF($5, 0) OFFSET $6`
	return r.list(ctx, query, key.WarehouseID, key.ItemID, f.From, f.To, f.Limit, f.Offset)
}

// ListByReference movimientos generados por un mismo documento (traslado, ajuste, venta).
func (r *MovementRepo) ListByReference(ctx context.Context, referenceID string) ([]*entity.Movement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM movements WHERE reference_id = $1 ORDER BY sequence`, referenceID)
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
