package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-caja/internal/domain/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// ReceiveLotInput recepción de mercancía con lote.
type ReceiveLotInput struct {
	WarehouseID    string
	ItemID         string
	Code           string // vacío = consecutivo automático
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	ManufacturedAt *time.Time
	ExpiresAt      *time.Time
	Supplier       string
	InvoiceRef     string
	Notes          string
	Actor          string
}

// ReceiveLot crea un lote y registra su entrada en el saldo.
func (s *LedgerService) ReceiveLot(ctx context.Context, in ReceiveLotInput) (*entity.Lot, error) {
	if in.WarehouseID == "" {
		return nil, domain.Invalid("warehouse_id requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad del lote debe ser mayor que cero")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.Invalid("costo unitario negativo")
	}
	if in.ExpiresAt != nil && entity.CalendarDay(*in.ExpiresAt).Before(entity.CalendarDay(s.now())) {
		return nil, domain.Invalid("la fecha de vencimiento no puede ser anterior a hoy")
	}
	if in.ManufacturedAt != nil && in.ExpiresAt != nil && in.ExpiresAt.Before(*in.ManufacturedAt) {
		return nil, domain.Invalid("el vencimiento es anterior a la fabricación")
	}
	item, err := s.item(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.TracksLots {
		return nil, domain.Invalid("el ítem %s no maneja lotes", item.ID)
	}
	key := entity.StockKey{WarehouseID: in.WarehouseID, ItemID: in.ItemID}
	p := posting{
		key: key, item: item, kind: entity.MovementEntry,
		reason: "recepción de lote", referenceID: in.InvoiceRef, actor: in.Actor, unitCost: in.UnitCost,
	}
	var lot *entity.Lot
	err = s.run(ctx, "receive_lot", []string{stockLockKey(key)}, func(w *work) error {
		var err error
		lot, _, err = w.receiveLot(ctx, p, in.Quantity, newLot{
			code: in.Code, expiresAt: in.ExpiresAt, manufacturedAt: in.ManufacturedAt,
			supplier: in.Supplier, invoiceRef: in.InvoiceRef, notes: in.Notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("lot", lot.Code).Str("item_id", lot.ItemID).Str("warehouse_id", lot.WarehouseID).
		Str("quantity", lot.QuantityInitial.String()).Msg("lote recibido")
	return lot, nil
}

// GetLot obtiene un lote por id.
func (s *LedgerService) GetLot(ctx context.Context, id string) (*entity.Lot, error) {
	var l *entity.Lot
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		l, err = r.Lots.GetByID(ctx, id)
		return err
	})
	return l, err
}

// WithdrawLot retira un lote (recall, daño); su saldo restante sale del inventario.
func (s *LedgerService) WithdrawLot(ctx context.Context, lotID, reason, actor string) (*entity.Lot, error) {
	if reason == "" {
		return nil, domain.Invalid("el motivo del retiro es obligatorio")
	}
	current, err := s.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	item, err := s.item(ctx, current.ItemID)
	if err != nil {
		return nil, err
	}
	key := current.Key()
	var lot *entity.Lot
	err = s.run(ctx, "withdraw_lot", []string{stockLockKey(key), lotLockKey(lotID)}, func(w *work) error {
		l, err := w.repos.Lots.GetForUpdate(ctx, lotID)
		if err != nil {
			return err
		}
		if l.Status == entity.LotStatusWithdrawn {
			return domain.InvalidTransition("lote", string(l.Status), "retirar")
		}
		qty := l.QuantityRemaining
		l.Withdraw(w.now)
		if l.Notes == "" {
			l.Notes = "retirado: " + reason
		} else {
			l.Notes += "; retirado: " + reason
		}
		if err := w.repos.Lots.Update(ctx, l); err != nil {
			return err
		}
		if qty.IsPositive() {
			_, err := w.post(ctx, posting{
				key: key, item: item, kind: entity.MovementExit, delta: qty.Neg(),
				reason: "retiro de lote: " + reason, referenceID: l.ID, actor: actor,
				lotID: l.ID, unitCost: l.UnitCost,
			})
			if err != nil {
				return err
			}
		}
		lot = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("lot", lot.Code).Str("reason", reason).Msg("lote retirado")
	return lot, nil
}

// MarkExpiredLots pasa a EXPIRED los lotes activos vencidos de la bodega. El saldo no cambia:
// la baja del lote vencido se hace con un ajuste.
func (s *LedgerService) MarkExpiredLots(ctx context.Context, warehouseID string) (int, error) {
	count := 0
	err := s.run(ctx, "mark_expired_lots", nil, func(w *work) error {
		lots, err := w.repos.Lots.ListByWarehouse(ctx, warehouseID)
		if err != nil {
			return err
		}
		for _, l := range lots {
			if l.Status != entity.LotStatusActive || !l.IsExpired(w.now) {
				continue
			}
			locked, err := w.repos.Lots.GetForUpdate(ctx, l.ID)
			if err != nil {
				return err
			}
			locked.RefreshStatus(w.now)
			if err := w.repos.Lots.Update(ctx, locked); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Info().Str("warehouse_id", warehouseID).Int("lots", count).Msg("lotes marcados como vencidos")
	}
	return count, nil
}

// ExpiringLots lotes activos que vencen dentro de days días, en orden FIFO.
func (s *LedgerService) ExpiringLots(ctx context.Context, warehouseID string, days int) ([]*entity.Lot, error) {
	if days <= 0 {
		days = s.deps.Policy.ExpiryWarningDays
	}
	var lots []*entity.Lot
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		lots, err = r.Lots.ListByWarehouse(ctx, warehouseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		if l.Consumable() && l.ExpiresWithin(now, days) {
			out = append(out, l)
		}
	}
	invdomain.SortFIFO(out)
	return out, nil
}

// LotSummary conteo de lotes de la bodega por estado. Los activos ya vencidos se cuentan
// como vencidos aunque aún no se hayan marcado.
func (s *LedgerService) LotSummary(ctx context.Context, warehouseID string) (*entity.LotSummary, error) {
	var lots []*entity.Lot
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		lots, err = r.Lots.ListByWarehouse(ctx, warehouseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	sum := &entity.LotSummary{WarehouseID: warehouseID, ActiveValue: decimal.Zero}
	for _, l := range lots {
		status := l.Status
		if status == entity.LotStatusActive && l.IsExpired(now) {
			status = entity.LotStatusExpired
		}
		switch status {
		case entity.LotStatusActive:
			sum.Active++
			sum.ActiveValue = sum.ActiveValue.Add(l.QuantityRemaining.Mul(l.UnitCost))
			if l.ExpiresWithin(now, s.deps.Policy.ExpiryWarningDays) {
				sum.ExpiringSoon++
			}
		case entity.LotStatusDepleted:
			sum.Depleted++
		case entity.LotStatusExpired:
			sum.Expired++
		case entity.LotStatusWithdrawn:
			sum.Withdrawn++
		}
	}
	return sum, nil
}
