package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del ledger.
type MovementKind string

const (
	MovementEntry       MovementKind = "ENTRY"        // entrada (compra, devolución, recepción de lote)
	MovementExit        MovementKind = "EXIT"         // salida (consumo, venta, retiro de lote)
	MovementAdjustment  MovementKind = "ADJUSTMENT"   // ajuste aprobado
	MovementTransferOut MovementKind = "TRANSFER_OUT" // débito en bodega origen
	MovementTransferIn  MovementKind = "TRANSFER_IN"  // crédito en bodega destino
)

// Valid indica si el tipo es conocido.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementEntry, MovementExit, MovementAdjustment, MovementTransferOut, MovementTransferIn:
		return true
	}
	return false
}

// SignAllowed valida la coherencia entre el tipo y el signo del delta.
func (k MovementKind) SignAllowed(delta decimal.Decimal) bool {
	switch k {
	case MovementEntry, MovementTransferIn:
		return delta.IsPositive()
	case MovementExit, MovementTransferOut:
		return delta.IsNegative()
	case MovementAdjustment:
		return !delta.IsZero()
	}
	return false
}

// Movement registro inmutable del ledger. La suma prefija de QuantityDelta para una llave
// reproduce el saldo corriente.
type Movement struct {
	ID             string
	Sequence       int64 // orden total de escritura dentro de la llave
	WarehouseID    string
	ItemID         string
	Kind           MovementKind
	QuantityDelta  decimal.Decimal
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Reason         string
	ReferenceID    string
	LotID          string
	Actor          string
	UnitCost       decimal.Decimal
	TotalCost      decimal.Decimal // |delta| * costo unitario
	Timestamp      time.Time
}

// Key devuelve la llave del saldo afectado.
func (m *Movement) Key() StockKey {
	return StockKey{WarehouseID: m.WarehouseID, ItemID: m.ItemID}
}
