package entity

import "time"

// Tipos de evento de dominio publicados después del commit.
const (
	EventTransferApproved   = "transfer.approved"
	EventTransferCompleted  = "transfer.completed"
	EventTransferRejected   = "transfer.rejected"
	EventAdjustmentApplied  = "adjustment.applied"
	EventAdjustmentRejected = "adjustment.rejected"
	EventCashSessionClosed  = "cash_session.closed"
	EventCashSessionReview  = "cash_session.reviewed"
	EventStockLow           = "stock.low"
)

// Event notificación de un hecho ya confirmado en la persistencia.
type Event struct {
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Payload     any       `json:"payload,omitempty"`
}
