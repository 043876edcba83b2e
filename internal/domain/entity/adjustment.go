package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentKind tipo de ajuste de inventario.
type AdjustmentKind string

const (
	AdjustmentPositive   AdjustmentKind = "POSITIVE"
	AdjustmentNegative   AdjustmentKind = "NEGATIVE"
	AdjustmentShrinkage  AdjustmentKind = "SHRINKAGE" // merma
	AdjustmentLoss       AdjustmentKind = "LOSS"
	AdjustmentDamage     AdjustmentKind = "DAMAGE"
	AdjustmentTheft      AdjustmentKind = "THEFT"
	AdjustmentCorrection AdjustmentKind = "CORRECTION"
)

// Valid indica si el tipo es conocido.
func (k AdjustmentKind) Valid() bool {
	switch k {
	case AdjustmentPositive, AdjustmentNegative, AdjustmentShrinkage, AdjustmentLoss,
		AdjustmentDamage, AdjustmentTheft, AdjustmentCorrection:
		return true
	}
	return false
}

// SignAllowed: POSITIVE solo suma, CORRECTION admite ambos signos, el resto solo resta.
func (k AdjustmentKind) SignAllowed(delta decimal.Decimal) bool {
	switch k {
	case AdjustmentPositive:
		return delta.IsPositive()
	case AdjustmentCorrection:
		return !delta.IsZero()
	default:
		return delta.IsNegative()
	}
}

// AdjustmentStatus estado del ajuste.
type AdjustmentStatus string

const (
	AdjustmentPending  AdjustmentStatus = "PENDING"
	AdjustmentApproved AdjustmentStatus = "APPROVED"
	AdjustmentRejected AdjustmentStatus = "REJECTED"
)

// IsTerminal indica si el estado ya no admite transiciones.
func (s AdjustmentStatus) IsTerminal() bool {
	return s == AdjustmentApproved || s == AdjustmentRejected
}

// AdjustmentItem línea de un ajuste.
type AdjustmentItem struct {
	ItemID         string
	ItemKind       ItemKind
	QuantityBefore decimal.Decimal
	QuantityDelta  decimal.Decimal
	QuantityAfter  decimal.Decimal
	LotID          string
	UnitCost       decimal.Decimal
	Notes          string
}

// Value valor absoluto de la línea.
func (i AdjustmentItem) Value() decimal.Decimal {
	return i.QuantityDelta.Abs().Mul(i.UnitCost)
}

// Adjustment corrección manual de stock con aprobación dual.
type Adjustment struct {
	ID               string
	WarehouseID      string
	Kind             AdjustmentKind
	Status           AdjustmentStatus
	Reason           string // motivo
	Justification    string
	Items            []AdjustmentItem
	RequiresApproval bool
	RequestedBy      string
	ApprovedBy       string
	RejectionReason  string
	CreatedAt        time.Time
	ApprovedAt       *time.Time
	RejectedAt       *time.Time
	Version          int
}

// TotalValue valorTotal = Σ |delta| × costo unitario.
func (a *Adjustment) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range a.Items {
		total = total.Add(it.Value())
	}
	return total
}

// Approve transición PENDING -> APPROVED.
func (a *Adjustment) Approve(approver string, now time.Time) error {
	if a.Status != AdjustmentPending {
		return invalidTransition("ajuste", string(a.Status), "aprobar")
	}
	a.Status = AdjustmentApproved
	a.ApprovedBy = approver
	a.ApprovedAt = &now
	return nil
}

// Reject transición PENDING -> REJECTED.
func (a *Adjustment) Reject(approver, reason string, now time.Time) error {
	if a.Status != AdjustmentPending {
		return invalidTransition("ajuste", string(a.Status), "rechazar")
	}
	a.Status = AdjustmentRejected
	a.ApprovedBy = approver
	a.RejectionReason = reason
	a.RejectedAt = &now
	return nil
}

// Clone copia profunda (los repositorios en memoria no comparten punteros).
func (a *Adjustment) Clone() *Adjustment {
	c := *a
	c.Items = append([]AdjustmentItem(nil), a.Items...)
	c.ApprovedAt = cloneTime(a.ApprovedAt)
	c.RejectedAt = cloneTime(a.RejectedAt)
	return &c
}
