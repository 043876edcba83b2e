package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-caja/internal/domain/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// work es una unidad de trabajo del ledger: todas las escrituras pasan por aquí dentro de la
// transacción, y los efectos (movimientos, eventos) se acumulan para después del commit.
type work struct {
	repos     repository.Repos
	policy    Policy
	now       time.Time
	movements []*entity.Movement
	events    []entity.Event
	lowSeen   map[entity.StockKey]bool
}

func newWork(r repository.Repos, p Policy, now time.Time) *work {
	return &work{repos: r, policy: p, now: now, lowSeen: map[entity.StockKey]bool{}}
}

// posting datos de un movimiento a aplicar.
type posting struct {
	key         entity.StockKey
	item        *entity.CatalogItem
	kind        entity.MovementKind
	delta       decimal.Decimal
	reason      string
	referenceID string
	actor       string
	lotID       string
	unitCost    decimal.Decimal
}

func (w *work) emit(eventType, aggregateID string, payload any) {
	w.events = append(w.events, entity.Event{Type: eventType, AggregateID: aggregateID, OccurredAt: w.now, Payload: payload})
}

// post aplica un movimiento: bloquea el saldo, valida el resultado, actualiza saldo y costo
// promedio y agrega exactamente un Movement en la misma transacción.
func (w *work) post(ctx context.Context, p posting) (*entity.Movement, error) {
	if p.delta.IsZero() {
		return nil, domain.Invalid("movimiento con cantidad cero")
	}
	if !p.kind.SignAllowed(p.delta) {
		return nil, domain.Invalid("el signo de %s no corresponde al tipo %s", p.delta, p.kind)
	}
	stock, err := w.repos.Stock.GetForUpdate(ctx, p.key)
	if err != nil {
		return nil, err
	}
	if stock.ItemKind == "" {
		stock.ItemKind = p.item.Kind
	}
	before := stock.QuantityOnHand
	after := before.Add(p.delta)
	if after.IsNegative() && !w.negativeAllowed(p) {
		return nil, domain.Insufficient(p.key.ItemID, p.key.WarehouseID, before, p.delta.Neg())
	}

	unitCost := p.unitCost
	if unitCost.IsZero() {
		unitCost = stock.AverageUnitCost
	}
	if unitCost.IsZero() {
		unitCost = p.item.UnitCost
	}
	if p.delta.IsPositive() {
		stock.AverageUnitCost = invdomain.WeightedAverageCost(before, stock.AverageUnitCost, p.delta, unitCost)
	}
	now := w.now
	stock.QuantityOnHand = after
	stock.LastMovementAt = &now
	stock.UpdatedAt = now
	if err := w.repos.Stock.Upsert(ctx, stock); err != nil {
		return nil, err
	}

	m := &entity.Movement{
		ID:             uuid.New().String(),
		WarehouseID:    p.key.WarehouseID,
		ItemID:         p.key.ItemID,
		Kind:           p.kind,
		QuantityDelta:  p.delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		Reason:         p.reason,
		ReferenceID:    p.referenceID,
		LotID:          p.lotID,
		Actor:          p.actor,
		UnitCost:       unitCost,
		TotalCost:      p.delta.Abs().Mul(unitCost),
		Timestamp:      now,
	}
	if err := w.repos.Movements.Create(ctx, m); err != nil {
		return nil, err
	}
	w.movements = append(w.movements, m)

	if p.delta.IsNegative() && stock.IsLow() && !w.lowSeen[p.key] {
		w.lowSeen[p.key] = true
		w.emit(entity.EventStockLow, p.key.String(), map[string]any{
			"warehouse_id": p.key.WarehouseID,
			"item_id":      p.key.ItemID,
			"on_hand":      after,
			"min":          stock.MinThreshold,
		})
	}
	return m, nil
}

// negativeAllowed: solo un ajuste, con la política activa y sobre un ítem sin lotes
// (en ítems con lotes el saldo es la suma de lotes y no puede ser negativo).
func (w *work) negativeAllowed(p posting) bool {
	return p.kind == entity.MovementAdjustment && w.policy.AllowNegativeAdjustments && !p.item.TracksLots
}

// lockedLots bloquea los lotes del saldo y marca como EXPIRED los que vencieron.
func (w *work) lockedLots(ctx context.Context, key entity.StockKey) ([]*entity.Lot, error) {
	lots, err := w.repos.Lots.ListByKeyForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, l := range lots {
		if l.Status == entity.LotStatusActive && l.IsExpired(w.now) {
			l.RefreshStatus(w.now)
			if err := w.repos.Lots.Update(ctx, l); err != nil {
				return nil, err
			}
		}
	}
	return lots, nil
}

// consumeLots descuenta qty por FIFO de vencimiento; un movimiento por lote afectado.
func (w *work) consumeLots(ctx context.Context, p posting, qty decimal.Decimal) ([]entity.LotDepletion, error) {
	lots, err := w.lockedLots(ctx, p.key)
	if err != nil {
		return nil, err
	}
	plan, err := invdomain.PlanFIFO(lots, qty, w.now)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, domain.Insufficient(p.key.ItemID, p.key.WarehouseID, invdomain.AvailableInLots(lots, w.now), qty)
		}
		return nil, err
	}
	byID := make(map[string]*entity.Lot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}
	for _, dep := range plan {
		l := byID[dep.LotID]
		l.Deduct(dep.Quantity, w.now)
		if err := w.repos.Lots.Update(ctx, l); err != nil {
			return nil, err
		}
		lp := p
		lp.delta = dep.Quantity.Neg()
		lp.lotID = l.ID
		lp.unitCost = l.UnitCost
		if _, err := w.post(ctx, lp); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// lotFor obtiene y bloquea un lote validando que pertenezca al saldo.
func (w *work) lotFor(ctx context.Context, key entity.StockKey, lotID string) (*entity.Lot, error) {
	l, err := w.repos.Lots.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if l.Key() != key {
		return nil, domain.Invalid("el lote %s no pertenece a %s", lotID, key)
	}
	if l.Status == entity.LotStatusWithdrawn {
		return nil, domain.InvalidTransition("lote", string(l.Status), "movimientos")
	}
	return l, nil
}

// debitLot descuenta directamente de un lote (incluido uno vencido, para darlo de baja).
func (w *work) debitLot(ctx context.Context, p posting, qty decimal.Decimal) (*entity.Movement, error) {
	l, err := w.lotFor(ctx, p.key, p.lotID)
	if err != nil {
		return nil, err
	}
	if l.QuantityRemaining.LessThan(qty) {
		return nil, domain.Insufficient(p.key.ItemID, p.key.WarehouseID, l.QuantityRemaining, qty)
	}
	l.Deduct(qty, w.now)
	if err := w.repos.Lots.Update(ctx, l); err != nil {
		return nil, err
	}
	p.delta = qty.Neg()
	if p.unitCost.IsZero() {
		p.unitCost = l.UnitCost
	}
	return w.post(ctx, p)
}

// creditLot acredita un lote. Con grow=false el crédito no puede superar la cantidad inicial;
// con grow=true (ajuste positivo) la cantidad inicial crece si hace falta.
func (w *work) creditLot(ctx context.Context, p posting, qty decimal.Decimal, grow bool) (*entity.Movement, error) {
	l, err := w.lotFor(ctx, p.key, p.lotID)
	if err != nil {
		return nil, err
	}
	room := l.QuantityInitial.Sub(l.QuantityRemaining)
	if qty.GreaterThan(room) {
		if !grow {
			return nil, domain.Invalid("el crédito %s supera la capacidad del lote %s (%s)", qty, l.Code, room)
		}
		l.QuantityInitial = l.QuantityRemaining.Add(qty)
	}
	l.Credit(qty, w.now)
	if err := w.repos.Lots.Update(ctx, l); err != nil {
		return nil, err
	}
	p.delta = qty
	if p.unitCost.IsZero() {
		p.unitCost = l.UnitCost
	}
	return w.post(ctx, p)
}

// newLot datos de un lote a crear en una entrada.
type newLot struct {
	code           string
	expiresAt      *time.Time
	manufacturedAt *time.Time
	supplier       string
	invoiceRef     string
	notes          string
}

// receiveLot crea un lote con la cantidad indicada y registra su entrada.
func (w *work) receiveLot(ctx context.Context, p posting, qty decimal.Decimal, nl newLot) (*entity.Lot, *entity.Movement, error) {
	code := nl.code
	if code == "" {
		var err error
		if code, err = w.nextLotCode(ctx); err != nil {
			return nil, nil, err
		}
	} else {
		exists, err := w.repos.Lots.CodeExists(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, fmt.Errorf("%w: el código de lote %s ya existe", domain.ErrConflict, code)
		}
	}
	unitCost := p.unitCost
	if unitCost.IsZero() {
		unitCost = p.item.UnitCost
	}
	l := &entity.Lot{
		ID:                uuid.New().String(),
		Code:              code,
		ItemID:            p.key.ItemID,
		ItemKind:          p.item.Kind,
		WarehouseID:       p.key.WarehouseID,
		QuantityInitial:   qty,
		QuantityRemaining: qty,
		ReceivedAt:        w.now,
		ManufacturedAt:    nl.manufacturedAt,
		ExpiresAt:         nl.expiresAt,
		UnitCost:          unitCost,
		Supplier:          nl.supplier,
		InvoiceRef:        nl.invoiceRef,
		Notes:             nl.notes,
		CreatedAt:         w.now,
	}
	l.RefreshStatus(w.now)
	if err := w.repos.Lots.Create(ctx, l); err != nil {
		return nil, nil, err
	}
	p.delta = qty
	p.lotID = l.ID
	p.unitCost = unitCost
	m, err := w.post(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return l, m, nil
}

// nextLotCode consecutivo mensual LOTE-YYYY-MM-NNNN, saltando códigos ya usados.
func (w *work) nextLotCode(ctx context.Context) (string, error) {
	n, err := w.repos.Lots.CountByCodePrefix(ctx, invdomain.LotCodePrefix(w.now))
	if err != nil {
		return "", err
	}
	for {
		code := invdomain.NextLotCode(w.now, n)
		exists, err := w.repos.Lots.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		n++
	}
}

// movementsSince devuelve los movimientos registrados desde el índice mark.
func (w *work) movementsSince(mark int) []*entity.Movement {
	return w.movements[mark:]
}
