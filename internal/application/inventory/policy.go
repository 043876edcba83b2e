package inventory

import "strings"

// StockCheckMode política de validación de stock al solicitar un traslado.
type StockCheckMode string

const (
	StockCheckOff   StockCheckMode = "off"
	StockCheckWarn  StockCheckMode = "warn"
	StockCheckBlock StockCheckMode = "block"
)

// ParseStockCheckMode interpreta el valor de configuración; lo desconocido se toma como warn.
func ParseStockCheckMode(s string) StockCheckMode {
	switch StockCheckMode(strings.ToLower(strings.TrimSpace(s))) {
	case StockCheckOff:
		return StockCheckOff
	case StockCheckBlock:
		return StockCheckBlock
	default:
		return StockCheckWarn
	}
}

// Policy reglas configurables del ledger.
type Policy struct {
	// AllowNegativeAdjustments permite que un ajuste deje saldo negativo en ítems sin lotes.
	AllowNegativeAdjustments bool
	// TransferStockCheck valida lo solicitado contra el saldo de origen al crear el traslado.
	TransferStockCheck StockCheckMode
	// ExpiryWarningDays ventana de "próximo a vencer" para el resumen de lotes.
	ExpiryWarningDays int
}

// DefaultPolicy política por defecto: sin negativos, advertir en traslados.
func DefaultPolicy() Policy {
	return Policy{TransferStockCheck: StockCheckWarn, ExpiryWarningDays: 30}
}
