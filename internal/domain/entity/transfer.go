package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus estado de un traslado entre bodegas.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferInTransit TransferStatus = "IN_TRANSIT"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferRejected  TransferStatus = "REJECTED"
)

// IsTerminal indica si el estado ya no admite transiciones.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferCompleted || s == TransferRejected
}

// TransferItem línea de un traslado. Invariante: 0 ≤ recibido ≤ enviado ≤ solicitado.
type TransferItem struct {
	ItemID            string
	ItemKind          ItemKind
	QuantityRequested decimal.Decimal
	QuantityShipped   decimal.Decimal
	QuantityReceived  decimal.Decimal
	UnitCost          decimal.Decimal // costo promedio en origen al despachar
	Notes             string
	ShippedLots       []LotDepletion
}

// Discrepancy diferencia entre lo enviado y lo recibido (merma en tránsito).
func (i TransferItem) Discrepancy() decimal.Decimal {
	return i.QuantityShipped.Sub(i.QuantityReceived)
}

// Transfer traslado multi-ítem; el traslado de un solo ítem es una lista de un elemento.
type Transfer struct {
	ID                string
	SourceWarehouseID string
	DestWarehouseID   string
	Status            TransferStatus
	Items             []TransferItem
	Notes             string
	RequestedBy       string
	Approver          string
	ReceivedBy        string
	RejectionReason   string
	RequestedAt       time.Time
	ApprovedAt        *time.Time
	ShippedAt         *time.Time
	ReceivedAt        *time.Time
	RejectedAt        *time.Time
	Version           int
}

// Item devuelve la línea del ítem, o nil.
func (t *Transfer) Item(itemID string) *TransferItem {
	for i := range t.Items {
		if t.Items[i].ItemID == itemID {
			return &t.Items[i]
		}
	}
	return nil
}

// Ship transición PENDING -> IN_TRANSIT; la aprobación despacha de inmediato.
func (t *Transfer) Ship(approver string, now time.Time) error {
	if t.Status != TransferPending {
		return invalidTransition("traslado", string(t.Status), "aprobar")
	}
	t.Status = TransferInTransit
	t.Approver = approver
	t.ApprovedAt = &now
	t.ShippedAt = &now
	return nil
}

// Complete transición IN_TRANSIT -> COMPLETED.
func (t *Transfer) Complete(receiver string, now time.Time) error {
	if t.Status != TransferInTransit {
		return invalidTransition("traslado", string(t.Status), "recibir")
	}
	t.Status = TransferCompleted
	t.ReceivedBy = receiver
	t.ReceivedAt = &now
	return nil
}

// Reject transición PENDING -> REJECTED.
func (t *Transfer) Reject(approver, reason string, now time.Time) error {
	if t.Status != TransferPending {
		return invalidTransition("traslado", string(t.Status), "rechazar")
	}
	t.Status = TransferRejected
	t.Approver = approver
	t.RejectionReason = reason
	t.RejectedAt = &now
	return nil
}

// Clone copia profunda.
func (t *Transfer) Clone() *Transfer {
	c := *t
	c.Items = make([]TransferItem, len(t.Items))
	for i, it := range t.Items {
		it.ShippedLots = append([]LotDepletion(nil), it.ShippedLots...)
		c.Items[i] = it
	}
	c.ApprovedAt = cloneTime(t.ApprovedAt)
	c.ShippedAt = cloneTime(t.ShippedAt)
	c.ReceivedAt = cloneTime(t.ReceivedAt)
	c.RejectedAt = cloneTime(t.RejectedAt)
	return &c
}
