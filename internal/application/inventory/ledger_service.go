package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-caja/internal/domain/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// LedgerService saldo por (bodega, ítem), log de movimientos y asignación de lotes.
type LedgerService struct {
	engine
}

// NewLedgerService construye el servicio.
func NewLedgerService(deps Deps) *LedgerService {
	return &LedgerService{engine: newEngine(deps, "ledger")}
}

// MovementInput entrada de ApplyMovement. QuantityDelta lleva signo.
// Para ítems con lotes LotID es obligatorio: el lote se mueve junto con el saldo.
type MovementInput struct {
	WarehouseID   string
	ItemID        string
	Kind          entity.MovementKind
	QuantityDelta decimal.Decimal
	Reason        string
	ReferenceID   string
	Actor         string
	UnitCost      decimal.Decimal
	LotID         string
}

// ApplyMovement aplica un movimiento y devuelve el registro escrito.
// Rechaza un saldo resultante negativo salvo ajuste con la política que lo permite.
func (s *LedgerService) ApplyMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	if in.WarehouseID == "" {
		return nil, domain.Invalid("warehouse_id requerido")
	}
	if !in.Kind.Valid() {
		return nil, domain.Invalid("tipo de movimiento desconocido: %q", in.Kind)
	}
	if in.QuantityDelta.IsZero() {
		return nil, domain.Invalid("movimiento con cantidad cero")
	}
	if !in.Kind.SignAllowed(in.QuantityDelta) {
		return nil, domain.Invalid("el signo de %s no corresponde al tipo %s", in.QuantityDelta, in.Kind)
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.Invalid("costo unitario negativo")
	}
	item, err := s.item(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item.TracksLots && in.LotID == "" {
		return nil, domain.Invalid("el ítem %s maneja lotes: indique lot_id o use consumo FIFO / recepción de lote", item.ID)
	}

	key := entity.StockKey{WarehouseID: in.WarehouseID, ItemID: in.ItemID}
	p := posting{
		key: key, item: item, kind: in.Kind, delta: in.QuantityDelta,
		reason: in.Reason, referenceID: in.ReferenceID, actor: in.Actor,
		lotID: in.LotID, unitCost: in.UnitCost,
	}
	var mov *entity.Movement
	err = s.run(ctx, "apply_movement", []string{stockLockKey(key)}, func(w *work) error {
		var err error
		switch {
		case !item.TracksLots:
			mov, err = w.post(ctx, p)
		case in.QuantityDelta.IsNegative():
			mov, err = w.debitLot(ctx, p, in.QuantityDelta.Abs())
		default:
			mov, err = w.creditLot(ctx, p, in.QuantityDelta, in.Kind == entity.MovementAdjustment)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("warehouse_id", key.WarehouseID).Str("item_id", key.ItemID).
		Str("kind", string(mov.Kind)).Str("delta", mov.QuantityDelta.String()).Msg("movimiento aplicado")
	return mov, nil
}

// ConsumeInput entrada de ConsumeFIFO.
type ConsumeInput struct {
	WarehouseID string
	ItemID      string
	Quantity    decimal.Decimal
	Reason      string
	ReferenceID string
	Actor       string
}

// ConsumeFIFO descuenta por orden de vencimiento (todo o nada). Un ítem sin lotes registra
// una única salida contra el saldo y devuelve depleciones vacías.
func (s *LedgerService) ConsumeFIFO(ctx context.Context, in ConsumeInput) ([]entity.LotDepletion, error) {
	if in.WarehouseID == "" {
		return nil, domain.Invalid("warehouse_id requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad a consumir debe ser mayor que cero")
	}
	item, err := s.item(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	key := entity.StockKey{WarehouseID: in.WarehouseID, ItemID: in.ItemID}
	p := posting{
		key: key, item: item, kind: entity.MovementExit,
		reason: defaultString(in.Reason, "consumo"), referenceID: in.ReferenceID, actor: in.Actor,
	}
	var plan []entity.LotDepletion
	err = s.run(ctx, "consume_fifo", []string{stockLockKey(key)}, func(w *work) error {
		if !item.TracksLots {
			p.delta = in.Quantity.Neg()
			_, err := w.post(ctx, p)
			return err
		}
		var err error
		plan, err = w.consumeLots(ctx, p, in.Quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ReturnInput entrada de ReturnToStock.
type ReturnInput struct {
	WarehouseID string
	ItemID      string
	Quantity    decimal.Decimal
	LotID       string
	ReferenceID string
	Actor       string
}

// ReturnToStock revierte un consumo (p. ej. ítem de orden cancelado). Con LotID acredita ese
// lote hasta su cantidad inicial; el resto va al lote agotado más reciente y, si aún sobra,
// a un lote nuevo de devolución, que hereda el vencimiento del lote de referencia (el indicado
// o el agotado más reciente). Devuelve una entrada por lote acreditado.
func (s *LedgerService) ReturnToStock(ctx context.Context, in ReturnInput) ([]*entity.Movement, error) {
	if in.WarehouseID == "" {
		return nil, domain.Invalid("warehouse_id requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad a devolver debe ser mayor que cero")
	}
	item, err := s.item(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.TracksLots && in.LotID != "" {
		return nil, domain.Invalid("el ítem %s no maneja lotes", item.ID)
	}
	key := entity.StockKey{WarehouseID: in.WarehouseID, ItemID: in.ItemID}
	base := posting{
		key: key, item: item, kind: entity.MovementEntry,
		reason: "devolución", referenceID: in.ReferenceID, actor: in.Actor,
	}
	var out []*entity.Movement
	err = s.run(ctx, "return_to_stock", []string{stockLockKey(key)}, func(w *work) error {
		if !item.TracksLots {
			p := base
			p.delta = in.Quantity
			m, err := w.post(ctx, p)
			if err != nil {
				return err
			}
			out = append(out, m)
			return nil
		}

		pending := in.Quantity
		var ref *entity.Lot
		credit := func(l *entity.Lot) error {
			room := l.QuantityInitial.Sub(l.QuantityRemaining)
			q := decimal.Min(room, pending)
			if !q.IsPositive() {
				return nil
			}
			p := base
			p.lotID = l.ID
			m, err := w.creditLot(ctx, p, q, false)
			if err != nil {
				return err
			}
			out = append(out, m)
			pending = pending.Sub(q)
			return nil
		}

		if in.LotID != "" {
			l, err := w.lotFor(ctx, key, in.LotID)
			if err != nil {
				return err
			}
			ref = l
			if err := credit(l); err != nil {
				return err
			}
		}
		if pending.IsPositive() {
			lots, err := w.lockedLots(ctx, key)
			if err != nil {
				return err
			}
			if last := invdomain.MostRecentlyDepleted(lots); last != nil && last.ID != in.LotID {
				if ref == nil {
					ref = last
				}
				if err := credit(last); err != nil {
					return err
				}
			}
		}
		if pending.IsPositive() {
			nl := newLot{notes: "lote de devolución"}
			if ref != nil {
				nl.expiresAt = ref.ExpiresAt
			}
			_, m, err := w.receiveLot(ctx, base, pending, nl)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetStock saldo de un ítem en una bodega (cero si nunca tuvo movimientos).
func (s *LedgerService) GetStock(ctx context.Context, key entity.StockKey) (*entity.WarehouseStock, error) {
	var st *entity.WarehouseStock
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		st, err = r.Stock.Get(ctx, key)
		return err
	})
	return st, err
}

// ListStock saldos de una bodega.
func (s *LedgerService) ListStock(ctx context.Context, warehouseID string) ([]*entity.WarehouseStock, error) {
	var list []*entity.WarehouseStock
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Stock.ListByWarehouse(ctx, warehouseID)
		return err
	})
	return list, err
}

// StockAcrossWarehouses saldos de un ítem en todas las bodegas y su total.
func (s *LedgerService) StockAcrossWarehouses(ctx context.Context, itemID string) ([]*entity.WarehouseStock, decimal.Decimal, error) {
	var list []*entity.WarehouseStock
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Stock.ListByItem(ctx, itemID)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for _, st := range list {
		total = total.Add(st.QuantityOnHand)
	}
	return list, total, nil
}

// ThresholdsInput parámetros de reposición de un saldo.
type ThresholdsInput struct {
	WarehouseID      string
	ItemID           string
	MinThreshold     decimal.Decimal
	MaxThreshold     decimal.Decimal
	PhysicalLocation string
}

// SetThresholds actualiza mínimo, máximo y ubicación. Nunca toca la cantidad.
func (s *LedgerService) SetThresholds(ctx context.Context, in ThresholdsInput) (*entity.WarehouseStock, error) {
	if in.MinThreshold.IsNegative() || in.MaxThreshold.IsNegative() {
		return nil, domain.Invalid("umbrales negativos")
	}
	if in.MaxThreshold.IsPositive() && in.MaxThreshold.LessThan(in.MinThreshold) {
		return nil, domain.Invalid("el máximo debe ser mayor o igual al mínimo")
	}
	item, err := s.item(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	key := entity.StockKey{WarehouseID: in.WarehouseID, ItemID: in.ItemID}
	var st *entity.WarehouseStock
	err = s.run(ctx, "set_thresholds", []string{stockLockKey(key)}, func(w *work) error {
		var err error
		if st, err = w.repos.Stock.GetForUpdate(ctx, key); err != nil {
			return err
		}
		if st.ItemKind == "" {
			st.ItemKind = item.Kind
		}
		st.MinThreshold = in.MinThreshold
		st.MaxThreshold = in.MaxThreshold
		st.PhysicalLocation = in.PhysicalLocation
		st.UpdatedAt = w.now
		return w.repos.Stock.Upsert(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Movements log de una llave en orden de escritura.
func (s *LedgerService) Movements(ctx context.Context, key entity.StockKey, f repository.MovementFilter) ([]*entity.Movement, error) {
	var list []*entity.Movement
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Movements.ListByKey(ctx, key, f)
		return err
	})
	return list, err
}

// Reconcile reconstruye el saldo desde el log y lo compara con el saldo y los lotes.
func (s *LedgerService) Reconcile(ctx context.Context, key entity.StockKey) (invdomain.ReplayReport, error) {
	item, err := s.item(ctx, key.ItemID)
	if err != nil {
		return invdomain.ReplayReport{}, err
	}
	var rep invdomain.ReplayReport
	err = s.read(ctx, func(r repository.Repos) error {
		st, err := r.Stock.Get(ctx, key)
		if err != nil {
			return err
		}
		movs, err := r.Movements.ListByKey(ctx, key, repository.MovementFilter{})
		if err != nil {
			return err
		}
		var lots []*entity.Lot
		if item.TracksLots {
			if lots, err = r.Lots.ListByKey(ctx, key); err != nil {
				return err
			}
		}
		rep = invdomain.Replay(key, movs, st.QuantityOnHand, item.TracksLots, lots)
		return nil
	})
	if err != nil {
		return invdomain.ReplayReport{}, err
	}
	if !rep.Consistent() {
		s.log.Warn().Str("key", key.String()).Str("on_hand", rep.OnHand.String()).
			Str("replayed", rep.ReplayedBalance.String()).Msg("saldo inconsistente con el log de movimientos")
	}
	return rep, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
