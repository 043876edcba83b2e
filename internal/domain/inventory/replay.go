package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// ReplayReport resultado de reconstruir un saldo desde su log de movimientos.
type ReplayReport struct {
	Key             entity.StockKey
	Movements       int
	ReplayedBalance decimal.Decimal
	OnHand          decimal.Decimal
	LotsBalance     *decimal.Decimal // nil si el ítem no maneja lotes
	BrokenChainAt   string           // id del primer movimiento cuyo "antes" no coincide con la suma prefija
}

// Consistent indica si el saldo, la suma prefija y (si aplica) la suma de lotes coinciden.
func (r ReplayReport) Consistent() bool {
	if r.BrokenChainAt != "" || !r.ReplayedBalance.Equal(r.OnHand) {
		return false
	}
	return r.LotsBalance == nil || r.LotsBalance.Equal(r.OnHand)
}

// Replay reduce los movimientos (en orden de escritura) por suma prefija y valida que cada
// registro encadene su saldo anterior con el posterior.
func Replay(key entity.StockKey, movements []*entity.Movement, onHand decimal.Decimal, tracksLots bool, lots []*entity.Lot) ReplayReport {
	rep := ReplayReport{Key: key, Movements: len(movements), OnHand: onHand}
	running := decimal.Zero
	for _, m := range movements {
		if rep.BrokenChainAt == "" &&
			(!m.QuantityBefore.Equal(running) || !m.QuantityAfter.Equal(running.Add(m.QuantityDelta))) {
			rep.BrokenChainAt = m.ID
		}
		running = running.Add(m.QuantityDelta)
	}
	rep.ReplayedBalance = running
	if tracksLots {
		sum := decimal.Zero
		for _, l := range lots {
			sum = sum.Add(l.QuantityRemaining)
		}
		rep.LotsBalance = &sum
	}
	return rep
}
