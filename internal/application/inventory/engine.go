package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// Deps dependencias compartidas por los servicios del ledger.
type Deps struct {
	Tx      TxRunner
	Catalog Catalog
	Locker  Locker
	Events  EventPublisher // opcional
	Metrics Metrics        // opcional
	Logger  zerolog.Logger
	Policy  Policy
	Now     func() time.Time // opcional; reloj inyectable para pruebas
}

// engine ejecuta operaciones del ledger: bloqueo por llave, unidad de trabajo y
// publicación de efectos después del commit.
type engine struct {
	deps Deps
	log  zerolog.Logger
}

func newEngine(deps Deps, component string) engine {
	if deps.Events == nil {
		deps.Events = noopPublisher{}
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Policy.TransferStockCheck == "" {
		deps.Policy.TransferStockCheck = StockCheckWarn
	}
	if deps.Policy.ExpiryWarningDays <= 0 {
		deps.Policy.ExpiryWarningDays = entity.DefaultExpiryWarningDays
	}
	return engine{deps: deps, log: deps.Logger.With().Str("component", component).Logger()}
}

func (e *engine) now() time.Time { return e.deps.Now().UTC() }

// run adquiere las llaves, ejecuta fn en una transacción y, solo si hubo commit,
// registra métricas y publica los eventos acumulados.
func (e *engine) run(ctx context.Context, op string, lockKeys []string, fn func(w *work) error) error {
	started := time.Now()
	release, err := e.deps.Locker.Acquire(ctx, lockKeys...)
	if err != nil {
		e.deps.Metrics.OperationDone(op, time.Since(started), err)
		return err
	}
	defer release()

	var w *work
	err = e.deps.Tx.Run(ctx, func(r repository.Repos) error {
		w = newWork(r, e.deps.Policy, e.now())
		return fn(w)
	})
	e.deps.Metrics.OperationDone(op, time.Since(started), err)
	if err != nil {
		return err
	}
	for _, m := range w.movements {
		e.deps.Metrics.MovementApplied(m.Kind, m.QuantityDelta)
	}
	e.deps.Events.Publish(ctx, w.events...)
	return nil
}

// read ejecuta consultas sin bloqueos de aplicación.
func (e *engine) read(ctx context.Context, fn func(r repository.Repos) error) error {
	return e.deps.Tx.Run(ctx, fn)
}

// item consulta el catálogo.
func (e *engine) item(ctx context.Context, itemID string) (*entity.CatalogItem, error) {
	if itemID == "" {
		return nil, domain.Invalid("item_id requerido")
	}
	it, err := e.deps.Catalog.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("ítem", itemID)
		}
		return nil, fmt.Errorf("catálogo: %w", err)
	}
	return it, nil
}

// items consulta varios ítems del catálogo.
func (e *engine) items(ctx context.Context, ids []string) (map[string]*entity.CatalogItem, error) {
	out := make(map[string]*entity.CatalogItem, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		it, err := e.item(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = it
	}
	return out, nil
}

// stockKeys llaves de bloqueo de los saldos de una bodega para varios ítems.
func stockKeys(warehouseID string, itemIDs []string) []string {
	keys := make([]string, 0, len(itemIDs))
	for _, id := range itemIDs {
		keys = append(keys, stockLockKey(entity.StockKey{WarehouseID: warehouseID, ItemID: id}))
	}
	sort.Strings(keys)
	return keys
}
