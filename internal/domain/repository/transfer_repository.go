package repository

import (
	"context"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// TransferRepository puerto de persistencia de traslados.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// Update con control optimista por versión, igual que AdjustmentRepository.Update.
	Update(ctx context.Context, t *entity.Transfer, expectedVersion int) error
	// ListByWarehouse traslados donde la bodega es origen o destino; status vacío = todos.
	ListByWarehouse(ctx context.Context, warehouseID string, status entity.TransferStatus) ([]*entity.Transfer, error)
}
