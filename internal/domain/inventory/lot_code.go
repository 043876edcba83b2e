package inventory

import (
	"fmt"
	"time"
)

// LotCodePrefix prefijo mensual de los códigos de lote: LOTE-YYYY-MM.
func LotCodePrefix(now time.Time) string {
	return fmt.Sprintf("LOTE-%04d-%02d", now.Year(), int(now.Month()))
}

// NextLotCode genera el código consecutivo del mes: LOTE-2025-01-0001.
func NextLotCode(now time.Time, existingThisMonth int) string {
	return fmt.Sprintf("%s-%04d", LotCodePrefix(now), existingThisMonth+1)
}
