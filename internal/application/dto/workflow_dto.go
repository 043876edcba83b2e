package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferItemRequest línea solicitada de un traslado.
type TransferItemRequest struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	SourceWarehouseID string                `json:"source_warehouse_id" validate:"required"`
	DestWarehouseID   string                `json:"dest_warehouse_id" validate:"required,nefield=SourceWarehouseID"`
	Items             []TransferItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes             string                `json:"notes,omitempty"`
}

// ApproveTransferRequest body opcional de la aprobación: cantidades despachadas por ítem.
type ApproveTransferRequest struct {
	Shipped map[string]decimal.Decimal `json:"shipped,omitempty"`
}

// ReceiveTransferRequest body opcional de la recepción: cantidades recibidas por ítem.
type ReceiveTransferRequest struct {
	Received map[string]decimal.Decimal `json:"received,omitempty"`
}

// RejectRequest body de cualquier rechazo.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// TransferItemResponse línea de un traslado.
type TransferItemResponse struct {
	ItemID            string            `json:"item_id"`
	ItemKind          string            `json:"item_kind"`
	QuantityRequested decimal.Decimal   `json:"quantity_requested"`
	QuantityShipped   decimal.Decimal   `json:"quantity_shipped"`
	QuantityReceived  decimal.Decimal   `json:"quantity_received"`
	Discrepancy       decimal.Decimal   `json:"discrepancy"`
	UnitCost          decimal.Decimal   `json:"unit_cost"`
	Notes             string            `json:"notes,omitempty"`
	ShippedLots       []LotDepletionDTO `json:"shipped_lots,omitempty"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID                string                 `json:"id"`
	SourceWarehouseID string                 `json:"source_warehouse_id"`
	DestWarehouseID   string                 `json:"dest_warehouse_id"`
	Status            string                 `json:"status"`
	Items             []TransferItemResponse `json:"items"`
	Notes             string                 `json:"notes,omitempty"`
	RequestedBy       string                 `json:"requested_by"`
	Approver          string                 `json:"approver,omitempty"`
	ReceivedBy        string                 `json:"received_by,omitempty"`
	RejectionReason   string                 `json:"rejection_reason,omitempty"`
	RequestedAt       time.Time              `json:"requested_at"`
	ShippedAt         *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt        *time.Time             `json:"received_at,omitempty"`
	RejectedAt        *time.Time             `json:"rejected_at,omitempty"`
	Version           int                    `json:"version"`
}

// AdjustmentItemRequest línea propuesta de un ajuste.
type AdjustmentItemRequest struct {
	ItemID        string           `json:"item_id" validate:"required"`
	QuantityDelta decimal.Decimal  `json:"quantity_delta"`
	LotID         string           `json:"lot_id,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// CreateAdjustmentRequest body para POST /api/adjustments.
// RequiresApproval nil equivale a true: el ajuste espera la aprobación de otro usuario.
type CreateAdjustmentRequest struct {
	WarehouseID      string                  `json:"warehouse_id" validate:"required"`
	Kind             string                  `json:"kind" validate:"required,oneof=POSITIVE NEGATIVE SHRINKAGE LOSS DAMAGE THEFT CORRECTION"`
	Reason           string                  `json:"reason" validate:"required,max=500"`
	Justification    string                  `json:"justification,omitempty"`
	Items            []AdjustmentItemRequest `json:"items" validate:"required,min=1,dive"`
	RequiresApproval *bool                   `json:"requires_approval,omitempty"`
}

// AdjustmentItemResponse línea de un ajuste.
type AdjustmentItemResponse struct {
	ItemID         string          `json:"item_id"`
	ItemKind       string          `json:"item_kind"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityDelta  decimal.Decimal `json:"quantity_delta"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	LotID          string          `json:"lot_id,omitempty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	Value          decimal.Decimal `json:"value"`
	Notes          string          `json:"notes,omitempty"`
}

// AdjustmentResponse salida de un ajuste.
type AdjustmentResponse struct {
	ID               string                   `json:"id"`
	WarehouseID      string                   `json:"warehouse_id"`
	Kind             string                   `json:"kind"`
	Status           string                   `json:"status"`
	Reason           string                   `json:"reason"`
	Justification    string                   `json:"justification,omitempty"`
	Items            []AdjustmentItemResponse `json:"items"`
	TotalValue       decimal.Decimal          `json:"total_value"`
	RequiresApproval bool                     `json:"requires_approval"`
	RequestedBy      string                   `json:"requested_by"`
	ApprovedBy       string                   `json:"approved_by,omitempty"`
	RejectionReason  string                   `json:"rejection_reason,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	ApprovedAt       *time.Time               `json:"approved_at,omitempty"`
	RejectedAt       *time.Time               `json:"rejected_at,omitempty"`
	Version          int                      `json:"version"`
}
