package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, code, item_id, item_kind, warehouse_id, quantity_initial, quantity_remaining,
	received_at, manufactured_at, expires_at, unit_cost, supplier, invoice_ref, status, notes, created_at, updated_at`

// Orden FIFO de recepción; el planificador reordena por vencimiento.
const lotOrder = ` ORDER BY received_at, code`

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	var kind, status string
	err := row.Scan(&l.ID, &l.Code, &l.ItemID, &kind, &l.WarehouseID, &l.QuantityInitial, &l.QuantityRemaining,
		&l.ReceivedAt, &l.ManufacturedAt, &l.ExpiresAt, &l.UnitCost, &l.Supplier, &l.InvoiceRef, &status, &l.Notes,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.ItemKind = entity.ItemKind(kind)
	l.Status = entity.LotStatus(status)
	return &l, nil
}

// Create inserta el lote; un código repetido es domain.ErrConflict.
func (r *LotRepo) Create(ctx context.Context, l *entity.Lot) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.Code, l.ItemID, string(l.ItemKind), l.WarehouseID, l.QuantityInitial, l.QuantityRemaining,
		l.ReceivedAt, l.ManufacturedAt, l.ExpiresAt, l.UnitCost, l.Supplier, l.InvoiceRef, string(l.Status), l.Notes,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return writeErr(err, "crear lote "+l.Code)
	}
	return nil
}

// GetByID lote por id.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "lote", id, "get lote")
	}
	return l, nil
}

// GetForUpdate lote por id con bloqueo de fila.
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "lote", id, "get lote for update")
	}
	return l, nil
}

// ListByKeyForUpdate bloquea todos los lotes del saldo.
func (r *LotRepo) ListByKeyForUpdate(ctx context.Context, key entity.StockKey) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE warehouse_id = $1 AND item_id = $2`+lotOrder+` FOR UPDATE`,
		key.WarehouseID, key.ItemID)
}

// ListByKey lotes del saldo sin bloqueo.
func (r *LotRepo) ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE warehouse_id = $1 AND item_id = $2`+lotOrder,
		key.WarehouseID, key.ItemID)
}

// ListByWarehouse lotes de una bodega.
func (r *LotRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE warehouse_id = $1`+lotOrder, warehouseID)
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lotes: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Lot, 0)
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lote: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Update persiste cantidad, estado y notas; el resto del lote es inmutable.
func (r *LotRepo) Update(ctx context.Context, l *entity.Lot) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE lots SET quantity_remaining = $2, status = $3, notes = $4, updated_at = $5
		WHERE id = $1`,
		l.ID, l.QuantityRemaining, string(l.Status), l.Notes, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "lote", l.ID, "update lote")
	}
	return nil
}

// CodeExists indica si el código ya fue usado.
func (r *LotRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM lots WHERE code = $1)`, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("verificar código de lote: %w", err)
	}
	return exists, nil
}

// CountByCodePrefix cuenta lotes cuyo código empieza por prefix (consecutivo LOTE-YYYY-MM-NNNN).
func (r *LotRepo) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM lots WHERE starts_with(code, $1)`, prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("contar lotes por prefijo: %w", err)
	}
	return n, nil
}
