package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// SortFIFO ordena lotes por vencimiento ascendente (sin vencimiento al final),
// luego por fecha de recepción y por último por código para un orden total.
func SortFIFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		switch {
		case a.ExpiresAt != nil && b.ExpiresAt == nil:
			return true
		case a.ExpiresAt == nil && b.ExpiresAt != nil:
			return false
		case a.ExpiresAt != nil && b.ExpiresAt != nil && !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		}
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.Code < b.Code
	})
}

// PlanFIFO calcula el consumo por lote sin modificar nada. Solo considera lotes ACTIVE con
// saldo y no vencidos a now. Si el disponible no alcanza devuelve ErrInsufficientStock y
// ningún plan: el consumo es todo o nada.
func PlanFIFO(lots []*entity.Lot, quantity decimal.Decimal, now time.Time) ([]entity.LotDepletion, error) {
	if !quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad a consumir debe ser mayor que cero")
	}
	eligible := make([]*entity.Lot, 0, len(lots))
	available := decimal.Zero
	for _, l := range lots {
		if l.Consumable() && !l.IsExpired(now) {
			eligible = append(eligible, l)
			available = available.Add(l.QuantityRemaining)
		}
	}
	if available.LessThan(quantity) {
		itemID, warehouseID := "", ""
		if len(lots) > 0 {
			itemID, warehouseID = lots[0].ItemID, lots[0].WarehouseID
		}
		return nil, domain.Insufficient(itemID, warehouseID, available, quantity)
	}
	SortFIFO(eligible)

	pending := quantity
	plan := make([]entity.LotDepletion, 0, len(eligible))
	for _, l := range eligible {
		if !pending.IsPositive() {
			break
		}
		take := decimal.Min(l.QuantityRemaining, pending)
		plan = append(plan, entity.LotDepletion{
			LotID:     l.ID,
			LotCode:   l.Code,
			Quantity:  take,
			ExpiresAt: l.ExpiresAt,
			UnitCost:  l.UnitCost,
		})
		pending = pending.Sub(take)
	}
	return plan, nil
}

// AvailableInLots suma el saldo consumible de los lotes.
func AvailableInLots(lots []*entity.Lot, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l.Consumable() && !l.IsExpired(now) {
			total = total.Add(l.QuantityRemaining)
		}
	}
	return total
}

// MostRecentlyDepleted devuelve el lote agotado más reciente (por UpdatedAt), o nil.
func MostRecentlyDepleted(lots []*entity.Lot) *entity.Lot {
	var last *entity.Lot
	for _, l := range lots {
		if l.Status != entity.LotStatusDepleted {
			continue
		}
		if last == nil || l.UpdatedAt.After(last.UpdatedAt) {
			last = l
		}
	}
	return last
}
