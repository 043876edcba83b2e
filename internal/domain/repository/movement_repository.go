package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// MovementFilter filtros opcionales del log de movimientos.
type MovementFilter struct {
	From   *time.Time
	To     *time.Time
	Limit  int // 0 = sin límite
	Offset int
}

// MovementRepository log append-only: no existe Update ni Delete.
type MovementRepository interface {
	// Create asigna ID y Sequence si vienen vacíos.
	Create(ctx context.Context, m *entity.Movement) error
	// ListByKey devuelve los movimientos en orden de escritura (Sequence ascendente).
	ListByKey(ctx context.Context, key entity.StockKey, f MovementFilter) ([]*entity.Movement, error)
	ListByReference(ctx context.Context, referenceID string) ([]*entity.Movement, error)
}
