package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveLotRequest body para POST /api/lots. Code vacío = consecutivo LOTE-AAAA-MM-NNNN.
type ReceiveLotRequest struct {
	WarehouseID    string          `json:"warehouse_id" validate:"required"`
	ItemID         string          `json:"item_id" validate:"required"`
	Code           string          `json:"code,omitempty" validate:"max=50"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ManufacturedAt *time.Time      `json:"manufactured_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	Supplier       string          `json:"supplier,omitempty" validate:"max=200"`
	InvoiceRef     string          `json:"invoice_ref,omitempty" validate:"max=100"`
	Notes          string          `json:"notes,omitempty"`
}

// WithdrawLotRequest body para POST /api/lots/:id/withdraw.
type WithdrawLotRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ExpireLotsRequest body para POST /api/lots/expire.
type ExpireLotsRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	ItemID            string          `json:"item_id"`
	ItemKind          string          `json:"item_kind"`
	WarehouseID       string          `json:"warehouse_id"`
	QuantityInitial   decimal.Decimal `json:"quantity_initial"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Status            string          `json:"status"`
	ReceivedAt        time.Time       `json:"received_at"`
	ManufacturedAt    *time.Time      `json:"manufactured_at,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	DaysToExpiry      *int            `json:"days_to_expiry,omitempty"`
	Supplier          string          `json:"supplier,omitempty"`
	InvoiceRef        string          `json:"invoice_ref,omitempty"`
	Notes             string          `json:"notes,omitempty"`
}

// LotSummaryResponse conteo de lotes por estado.
type LotSummaryResponse struct {
	WarehouseID  string          `json:"warehouse_id"`
	Active       int             `json:"active"`
	Depleted     int             `json:"depleted"`
	Expired      int             `json:"expired"`
	Withdrawn    int             `json:"withdrawn"`
	ExpiringSoon int             `json:"expiring_soon"`
	ActiveValue  decimal.Decimal `json:"active_value"`
}
