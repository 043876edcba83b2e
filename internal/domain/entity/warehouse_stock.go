package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica un saldo: (bodega, ítem).
type StockKey struct {
	WarehouseID string
	ItemID      string
}

func (k StockKey) String() string {
	return fmt.Sprintf("%s:%s", k.WarehouseID, k.ItemID)
}

// WarehouseStock es el saldo corriente de un ítem en una bodega.
// Solo se modifica al aplicar un Movement, en la misma unidad de trabajo que lo registra.
type WarehouseStock struct {
	WarehouseID      string
	ItemID           string
	ItemKind         ItemKind
	QuantityOnHand   decimal.Decimal
	MinThreshold     decimal.Decimal
	MaxThreshold     decimal.Decimal
	PhysicalLocation string
	AverageUnitCost  decimal.Decimal
	LastMovementAt   *time.Time
	UpdatedAt        time.Time
}

// Key devuelve la llave (bodega, ítem) del saldo.
func (s *WarehouseStock) Key() StockKey {
	return StockKey{WarehouseID: s.WarehouseID, ItemID: s.ItemID}
}

// IsLow indica si el saldo está en o por debajo del mínimo configurado.
func (s *WarehouseStock) IsLow() bool {
	return s.MinThreshold.GreaterThan(decimal.Zero) && s.QuantityOnHand.LessThanOrEqual(s.MinThreshold)
}

// IsOverstocked indica si el saldo supera el máximo configurado.
func (s *WarehouseStock) IsOverstocked() bool {
	return s.MaxThreshold.GreaterThan(decimal.Zero) && s.QuantityOnHand.GreaterThan(s.MaxThreshold)
}

// StockValue valoriza el saldo al costo promedio.
func (s *WarehouseStock) StockValue() decimal.Decimal {
	return s.QuantityOnHand.Mul(s.AverageUnitCost)
}
