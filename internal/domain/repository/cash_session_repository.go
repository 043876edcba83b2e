package repository

import (
	"context"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// CashSessionRepository puerto de persistencia de sesiones de caja y sus registros.
type CashSessionRepository interface {
	Create(ctx context.Context, s *entity.CashSession) error
	GetByID(ctx context.Context, id string) (*entity.CashSession, error)
	// GetOpenByRegister devuelve la sesión OPEN de la caja, o domain.ErrNotFound.
	GetOpenByRegister(ctx context.Context, registerID string) (*entity.CashSession, error)
	// Update con control optimista por versión.
	Update(ctx context.Context, s *entity.CashSession, expectedVersion int) error
	List(ctx context.Context, status entity.CashSessionStatus, limit, offset int) ([]*entity.CashSession, error)
	AppendEntry(ctx context.Context, e *entity.CashEntry) error
	ListEntries(ctx context.Context, sessionID string) ([]*entity.CashEntry, error)
}
