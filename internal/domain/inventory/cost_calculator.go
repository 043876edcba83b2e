package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost costo promedio ponderado tras una entrada (servicio de dominio).
// NuevoCosto = ((Saldo * CostoActual) + (CantEntrada * CostoEntrada)) / (Saldo + CantEntrada)
// Un saldo negativo (ajuste permitido por política) no aporta al promedio.
func WeightedAverageCost(onHand, currentCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	if onHand.IsNegative() {
		onHand = decimal.Zero
	}
	sum := onHand.Add(inQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := onHand.Mul(currentCost).Add(inQty.Mul(inCost))
	return num.Div(sum).Round(4)
}
