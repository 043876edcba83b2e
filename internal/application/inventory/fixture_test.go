package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/lock"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/memory"
)

var (
	ctx = context.Background()
	now = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
)

const (
	bodegaCentral = "W1"
	bodegaCocina  = "W2"
)

// Ítems del catálogo de prueba: X con lotes, Y y Z sin lotes.
var (
	itemX = entity.CatalogItem{ID: "X", Kind: entity.ItemKindIngredient, Name: "Leche", Unit: "lt", UnitCost: d(3000), TracksLots: true}
	itemY = entity.CatalogItem{ID: "Y", Kind: entity.ItemKindProduct, Name: "Gaseosa", Unit: "und", UnitCost: d(1500)}
	itemZ = entity.CatalogItem{ID: "Z", Kind: entity.ItemKindIngredient, Name: "Arroz", Unit: "kg", UnitCost: d(4200)}
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(y int, m time.Month, day int) *time.Time {
	t := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// recorder guarda los eventos publicados.
type recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (r *recorder) Publish(_ context.Context, events ...entity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) ofType(eventType string) []entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Event
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store       *memory.Store
	events      *recorder
	ledger      *inventory.LedgerService
	transfers   *inventory.TransferService
	adjustments *inventory.AdjustmentService
}

func newFixture(t *testing.T, policy inventory.Policy) *fixture {
	t.Helper()
	store := memory.NewStore()
	events := &recorder{}
	deps := inventory.Deps{
		Tx:      store,
		Catalog: memory.NewCatalog(itemX, itemY, itemZ),
		Locker:  lock.NewKeyedMutex(),
		Events:  events,
		Logger:  zerolog.Nop(),
		Policy:  policy,
		Now:     func() time.Time { return now },
	}
	return &fixture{
		store:       store,
		events:      events,
		ledger:      inventory.NewLedgerService(deps),
		transfers:   inventory.NewTransferService(deps),
		adjustments: inventory.NewAdjustmentService(deps),
	}
}

// entry registra una entrada sin lote.
func (f *fixture) entry(t *testing.T, warehouseID, itemID string, qty int64) {
	t.Helper()
	_, err := f.ledger.ApplyMovement(ctx, inventory.MovementInput{
		WarehouseID: warehouseID, ItemID: itemID, Kind: entity.MovementEntry,
		QuantityDelta: d(qty), Reason: "compra", Actor: "bodeguero",
	})
	require.NoError(t, err)
}

// receiveLot registra un lote de X.
func (f *fixture) receiveLot(t *testing.T, warehouseID, code string, qty int64, expires *time.Time) *entity.Lot {
	t.Helper()
	l, err := f.ledger.ReceiveLot(ctx, inventory.ReceiveLotInput{
		WarehouseID: warehouseID, ItemID: itemX.ID, Code: code,
		Quantity: d(qty), UnitCost: d(3000), ExpiresAt: expires, Actor: "bodeguero",
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) onHand(t *testing.T, warehouseID, itemID string) decimal.Decimal {
	t.Helper()
	st, err := f.ledger.GetStock(ctx, entity.StockKey{WarehouseID: warehouseID, ItemID: itemID})
	require.NoError(t, err)
	return st.QuantityOnHand
}

func (f *fixture) movements(t *testing.T, warehouseID, itemID string) []*entity.Movement {
	t.Helper()
	list, err := f.ledger.Movements(ctx, entity.StockKey{WarehouseID: warehouseID, ItemID: itemID}, repository.MovementFilter{})
	require.NoError(t, err)
	return list
}

// consistent verifica que el log reproduzca el saldo (y la suma de lotes).
func (f *fixture) consistent(t *testing.T, warehouseID, itemID string) {
	t.Helper()
	rep, err := f.ledger.Reconcile(ctx, entity.StockKey{WarehouseID: warehouseID, ItemID: itemID})
	require.NoError(t, err)
	require.True(t, rep.Consistent(), "el saldo de %s/%s debe coincidir con el log: %+v", warehouseID, itemID, rep)
}
