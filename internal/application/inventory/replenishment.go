package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// ReplenishmentSuggestion ítem en o bajo su mínimo con la cantidad sugerida de pedido.
type ReplenishmentSuggestion struct {
	WarehouseID        string
	ItemID             string
	ItemKind           string
	PhysicalLocation   string
	OnHand             decimal.Decimal
	MinThreshold       decimal.Decimal
	TargetStock        decimal.Decimal
	SuggestedOrderQty  decimal.Decimal
	UnitCost           decimal.Decimal
	EstimatedOrderCost decimal.Decimal
	Priority           int
}

// LowStock devuelve los saldos de la bodega en o bajo el mínimo.
// Stock objetivo: el máximo si está definido; si no, 1.5 veces el mínimo.
func (s *LedgerService) LowStock(ctx context.Context, warehouseID string) ([]ReplenishmentSuggestion, error) {
	stocks, err := s.ListStock(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	factor := decimal.NewFromFloat(1.5)
	out := make([]ReplenishmentSuggestion, 0)
	for _, st := range stocks {
		if !st.IsLow() {
			continue
		}
		target := st.MaxThreshold
		if !target.IsPositive() {
			target = st.MinThreshold.Mul(factor)
		}
		suggested := target.Sub(st.QuantityOnHand)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		out = append(out, ReplenishmentSuggestion{
			WarehouseID:        st.WarehouseID,
			ItemID:             st.ItemID,
			ItemKind:           string(st.ItemKind),
			PhysicalLocation:   st.PhysicalLocation,
			OnHand:             st.QuantityOnHand,
			MinThreshold:       st.MinThreshold,
			TargetStock:        target,
			SuggestedOrderQty:  suggested,
			UnitCost:           st.AverageUnitCost,
			EstimatedOrderCost: suggested.Mul(st.AverageUnitCost),
		})
	}

	// Primero el mayor déficit relativo al mínimo; desempate por ítem para un orden estable.
	sort.SliceStable(out, func(i, j int) bool {
		ri := coverage(out[i])
		rj := coverage(out[j])
		if !ri.Equal(rj) {
			return ri.LessThan(rj)
		}
		return out[i].ItemID < out[j].ItemID
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}

// coverage fracción del mínimo cubierta por el saldo.
func coverage(s ReplenishmentSuggestion) decimal.Decimal {
	if !s.MinThreshold.IsPositive() {
		return decimal.Zero
	}
	return s.OnHand.Div(s.MinThreshold)
}
