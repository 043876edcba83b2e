package entity

import "strings"

// Formas de pago con las que se etiquetan los flujos de caja.
const (
	MethodCash     = "efectivo"
	MethodTransfer = "transferencia"
	MethodCard     = "tarjeta"
	MethodOther    = "otro"
)

// NormalizeMethod lleva la forma de pago a su clave canónica; lo desconocido cae en "otro".
func NormalizeMethod(method string) string {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "efectivo", "cash":
		return MethodCash
	case "transferencia", "transfer":
		return MethodTransfer
	case "tarjeta", "card":
		return MethodCard
	default:
		return MethodOther
	}
}

// NormalizeCategory normaliza categorías libres de gastos/ingresos (configuración externa).
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return "general"
	}
	return c
}
