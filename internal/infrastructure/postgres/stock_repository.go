package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `warehouse_id, item_id, item_kind, quantity_on_hand, min_threshold, max_threshold,
	physical_location, average_unit_cost, last_movement_at, updated_at`

func scanStock(row pgx.Row) (*entity.WarehouseStock, error) {
	var s entity.WarehouseStock
	var kind string
	err := row.Scan(&s.WarehouseID, &s.ItemID, &kind, &s.QuantityOnHand, &s.MinThreshold, &s.MaxThreshold,
		&s.PhysicalLocation, &s.AverageUnitCost, &s.LastMovementAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.ItemKind = entity.ItemKind(kind)
	return &s, nil
}

func zeroStock(key entity.StockKey) *entity.WarehouseStock {
	return &entity.WarehouseStock{
		WarehouseID: key.WarehouseID, ItemID: key.ItemID,
		QuantityOnHand: decimal.Zero, MinThreshold: decimal.Zero, MaxThreshold: decimal.Zero,
		AverageUnitCost: decimal.Zero,
	}
}

// Get obtiene el saldo; un saldo inexistente es cero.
func (r *StockRepo) Get(ctx context.Context, key entity.StockKey) (*entity.WarehouseStock, error) {
	query := `SELECT ` + stockColumns + ` FROM warehouse_stock WHERE warehouse_id = $1 AND item_id = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.WarehouseID, key.ItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroStock(key), nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE). La fila se crea antes si
// no existe, para que dos transacciones sobre un saldo nuevo también se serialicen.
func (r *StockRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.WarehouseStock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO warehouse_stock (warehouse_id, item_id) VALUES ($1, $2)
		ON CONFLICT (warehouse_id, item_id) DO NOTHING`, key.WarehouseID, key.ItemID)
	if err != nil {
		return nil, fmt.Errorf("reservar fila de stock: %w", err)
	}
	query := `SELECT ` + stockColumns + ` FROM warehouse_stock WHERE warehouse_id = $1 AND item_id = $2 FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, key.WarehouseID, key.ItemID))
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza el saldo completo.
func (r *StockRepo) Upsert(ctx context.Context, s *entity.WarehouseStock) error {
	query := `
		INSERT INTO warehouse_stock (warehouse_id, item_id, item_kind, quantity_on_hand, min_threshold, max_threshold,
			physical_location, average_unit_cost, last_movement_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (warehouse_id, item_id) DO UPDATE SET
			item_kind = EXCLUDED.item_kind,
			quantity_on_hand = EXCLUDED.quantity_on_hand,
			min_threshold = EXCLUDED.min_threshold,
			max_threshold = EXCLUDED.max_threshold,
			physical_location = EXCLUDED.physical_location,
			average_unit_cost = EXCLUDED.average_unit_cost,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.WarehouseID, s.ItemID, string(s.ItemKind), s.QuantityOnHand, s.MinThreshold, s.MaxThreshold,
		s.PhysicalLocation, s.AverageUnitCost, s.LastMovementAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByWarehouse saldos de una bodega ordenados por ítem.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.WarehouseStock, error) {
	return r.list(ctx, `SELECT `+stockColumns+` FROM warehouse_stock WHERE warehouse_id = $1 ORDER BY item_id`, warehouseID)
}

// ListByItem saldos de un ítem en todas las bodegas.
func (r *StockRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.WarehouseStock, error) {
	return r.list(ctx, `SELECT `+stockColumns+` FROM warehouse_stock WHERE item_id = $1 ORDER BY warehouse_id`, itemID)
}

func (r *StockRepo) list(ctx context.Context, query string, arg string) ([]*entity.WarehouseStock, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.WarehouseStock, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
