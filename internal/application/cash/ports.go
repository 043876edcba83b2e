package cash

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// TxRunner unidad de trabajo; misma forma que la del ledger para compartir el adaptador.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
}

// Locker exclusión por llave (sesión y caja registradora).
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// EventPublisher publica eventos ya confirmados.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.Event)
}

// Metrics instrumentación de caja.
type Metrics interface {
	CashSessionClosed(balanced bool, difference decimal.Decimal)
	OperationDone(op string, elapsed time.Duration, err error)
}

// ReportGenerator genera el PDF del cuadre de caja.
type ReportGenerator interface {
	CashClosingReport(ctx context.Context, s *entity.CashSession, entries []*entity.CashEntry) ([]byte, error)
}

func sessionLockKey(id string) string  { return "cash:" + id }
func registerLockKey(id string) string { return "register:" + id }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...entity.Event) {}

type noopMetrics struct{}

func (noopMetrics) CashSessionClosed(bool, decimal.Decimal)  {}
func (noopMetrics) OperationDone(string, time.Duration, error) {}
