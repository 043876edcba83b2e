package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error nada queda persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repos) error) error
}

// Catalog colaborador externo dueño de productos e ingredientes.
type Catalog interface {
	GetItem(ctx context.Context, itemID string) (*entity.CatalogItem, error)
}

// Locker exclusión mutua por llave. Las llaves se adquieren ordenadas; release libera todas.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// EventPublisher publica eventos ya confirmados; los fallos se registran, no se propagan.
type EventPublisher interface {
	Publish(ctx context.Context, events ...entity.Event)
}

// Metrics instrumentación del ledger.
type Metrics interface {
	MovementApplied(kind entity.MovementKind, delta decimal.Decimal)
	OperationDone(op string, elapsed time.Duration, err error)
}

// Llaves de bloqueo.
func stockLockKey(k entity.StockKey) string { return "stock:" + k.String() }
func transferLockKey(id string) string      { return "transfer:" + id }
func adjustmentLockKey(id string) string    { return "adjustment:" + id }
func lotLockKey(id string) string           { return "lot:" + id }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...entity.Event) {}

type noopMetrics struct{}

func (noopMetrics) MovementApplied(entity.MovementKind, decimal.Decimal) {}
func (noopMetrics) OperationDone(string, time.Duration, error)         {}
