package repository

import (
	"context"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// AdjustmentRepository puerto de persistencia de ajustes.
type AdjustmentRepository interface {
	Create(ctx context.Context, a *entity.Adjustment) error
	GetByID(ctx context.Context, id string) (*entity.Adjustment, error)
	// Update persiste solo si la versión almacenada es expectedVersion (control optimista);
	// si otro escritor ganó devuelve domain.ErrInvalidStateTransition. En éxito incrementa a.Version.
	Update(ctx context.Context, a *entity.Adjustment, expectedVersion int) error
	// ListByWarehouse filtra por estado si status no es vacío.
	ListByWarehouse(ctx context.Context, warehouseID string, status entity.AdjustmentStatus) ([]*entity.Adjustment, error)
}
