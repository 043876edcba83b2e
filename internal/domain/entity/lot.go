package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotStatus estado de un lote.
type LotStatus string

const (
	LotStatusActive    LotStatus = "ACTIVE"
	LotStatusDepleted  LotStatus = "DEPLETED"
	LotStatusExpired   LotStatus = "EXPIRED"
	LotStatusWithdrawn LotStatus = "WITHDRAWN"
)

// DefaultExpiryWarningDays ventana por defecto para "próximo a vencer".
const DefaultExpiryWarningDays = 30

// Lot es un lote con fecha de vencimiento de un ítem en una bodega.
// Pertenece exclusivamente a su saldo (bodega, ítem).
type Lot struct {
	ID                string
	Code              string
	ItemID            string
	ItemKind          ItemKind
	WarehouseID       string
	QuantityInitial   decimal.Decimal
	QuantityRemaining decimal.Decimal
	ReceivedAt        time.Time
	ManufacturedAt    *time.Time
	ExpiresAt         *time.Time
	UnitCost          decimal.Decimal
	Supplier          string
	InvoiceRef        string
	Status            LotStatus
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Key devuelve la llave del saldo dueño del lote.
func (l *Lot) Key() StockKey {
	return StockKey{WarehouseID: l.WarehouseID, ItemID: l.ItemID}
}

// CalendarDay trunca t a la medianoche UTC de su fecha. El vencimiento es una fecha, no un instante.
func CalendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// IsExpired indica si el lote ya pasó su fecha de vencimiento. El día del vencimiento aún es válido.
func (l *Lot) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && CalendarDay(now).After(CalendarDay(*l.ExpiresAt))
}

// ExpiresWithin indica si el lote vence dentro de los próximos days días (sin haber vencido).
func (l *Lot) ExpiresWithin(now time.Time, days int) bool {
	if l.ExpiresAt == nil || l.IsExpired(now) {
		return false
	}
	return !CalendarDay(*l.ExpiresAt).After(CalendarDay(now).AddDate(0, 0, days))
}

// DaysToExpiry días de calendario hasta el vencimiento (0 = vence hoy); nil si el lote no vence.
func (l *Lot) DaysToExpiry(now time.Time) *int {
	if l.ExpiresAt == nil {
		return nil
	}
	d := int(CalendarDay(*l.ExpiresAt).Sub(CalendarDay(now)).Hours() / 24)
	return &d
}

// Consumable indica si el asignador FIFO puede tomar del lote.
func (l *Lot) Consumable() bool {
	return l.Status == LotStatusActive && l.QuantityRemaining.GreaterThan(decimal.Zero)
}

// RefreshStatus es el único punto donde se recalcula el estado del lote.
// WITHDRAWN es terminal. El vencimiento prevalece sobre el agotamiento mientras quede cantidad.
func (l *Lot) RefreshStatus(now time.Time) {
	if l.Status == LotStatusWithdrawn {
		return
	}
	switch {
	case l.QuantityRemaining.GreaterThan(decimal.Zero) && l.IsExpired(now):
		l.Status = LotStatusExpired
	case l.QuantityRemaining.LessThanOrEqual(decimal.Zero):
		l.Status = LotStatusDepleted
	default:
		l.Status = LotStatusActive
	}
	l.UpdatedAt = now
}

// Deduct descuenta qty del saldo del lote y recalcula el estado.
func (l *Lot) Deduct(qty decimal.Decimal, now time.Time) {
	l.QuantityRemaining = l.QuantityRemaining.Sub(qty)
	l.RefreshStatus(now)
}

// Credit suma qty al lote hasta su cantidad inicial; devuelve lo efectivamente acreditado.
func (l *Lot) Credit(qty decimal.Decimal, now time.Time) decimal.Decimal {
	room := l.QuantityInitial.Sub(l.QuantityRemaining)
	if room.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	credited := decimal.Min(room, qty)
	l.QuantityRemaining = l.QuantityRemaining.Add(credited)
	l.RefreshStatus(now)
	return credited
}

// Withdraw retira el lote; la cantidad restante queda en cero.
func (l *Lot) Withdraw(now time.Time) {
	l.QuantityRemaining = decimal.Zero
	l.Status = LotStatusWithdrawn
	l.UpdatedAt = now
}

// LotDepletion es el consumo aplicado a un lote por el asignador FIFO.
type LotDepletion struct {
	LotID     string          `json:"lot_id"`
	LotCode   string          `json:"lot_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// LotSummary conteo de lotes de una bodega por estado.
type LotSummary struct {
	WarehouseID  string
	Active       int
	Depleted     int
	Expired      int
	Withdrawn    int
	ExpiringSoon int
	ActiveValue  decimal.Decimal
}
