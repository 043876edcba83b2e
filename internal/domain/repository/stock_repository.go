package repository

import (
	"context"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar el saldo por (bodega, ítem).
// Usado dentro de transacciones para garantizar consistencia con el log de movimientos.
type StockRepository interface {
	// Get devuelve el saldo; si no existe devuelve un saldo en cero (nunca ErrNotFound).
	Get(ctx context.Context, key entity.StockKey) (*entity.WarehouseStock, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.WarehouseStock, error)
	Upsert(ctx context.Context, stock *entity.WarehouseStock) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.WarehouseStock, error)
	ListByItem(ctx context.Context, itemID string) ([]*entity.WarehouseStock, error)
}
