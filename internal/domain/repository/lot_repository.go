package repository

import (
	"context"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// LotRepository puerto de persistencia de lotes.
type LotRepository interface {
	Create(ctx context.Context, lot *entity.Lot) error
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Lot, error)
	// ListByKeyForUpdate devuelve y bloquea todos los lotes del saldo, en cualquier estado.
	ListByKeyForUpdate(ctx context.Context, key entity.StockKey) ([]*entity.Lot, error)
	ListByKey(ctx context.Context, key entity.StockKey) ([]*entity.Lot, error)
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Lot, error)
	Update(ctx context.Context, lot *entity.Lot) error
	CodeExists(ctx context.Context, code string) (bool, error)
	CountByCodePrefix(ctx context.Context, prefix string) (int, error)
}
