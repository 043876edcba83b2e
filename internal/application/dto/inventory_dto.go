package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementRequest body para POST /api/inventory/movements.
type MovementRequest struct {
	WarehouseID   string          `json:"warehouse_id" validate:"required"`
	ItemID        string          `json:"item_id" validate:"required"`
	Kind          string          `json:"kind" validate:"required,oneof=ENTRY EXIT ADJUSTMENT TRANSFER_OUT TRANSFER_IN"`
	QuantityDelta decimal.Decimal `json:"quantity_delta"`
	Reason        string          `json:"reason" validate:"max=500"`
	ReferenceID   string          `json:"reference_id"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	LotID         string          `json:"lot_id,omitempty"`
}

// ConsumeRequest body para POST /api/inventory/consume (descuento FIFO).
type ConsumeRequest struct {
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	ItemID      string          `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason" validate:"max=500"`
	ReferenceID string          `json:"reference_id"`
}

// ReturnRequest body para POST /api/inventory/returns.
type ReturnRequest struct {
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	ItemID      string          `json:"item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	LotID       string          `json:"lot_id,omitempty"`
	ReferenceID string          `json:"reference_id"`
}

// ThresholdsRequest body para PUT /api/inventory/stock/:warehouseId/:itemId/thresholds.
type ThresholdsRequest struct {
	MinThreshold     decimal.Decimal `json:"min_threshold"`
	MaxThreshold     decimal.Decimal `json:"max_threshold"`
	PhysicalLocation string          `json:"physical_location" validate:"max=100"`
}

// StockResponse saldo de un ítem en una bodega.
type StockResponse struct {
	WarehouseID      string          `json:"warehouse_id"`
	ItemID           string          `json:"item_id"`
	ItemKind         string          `json:"item_kind"`
	QuantityOnHand   decimal.Decimal `json:"quantity_on_hand"`
	MinThreshold     decimal.Decimal `json:"min_threshold"`
	MaxThreshold     decimal.Decimal `json:"max_threshold"`
	PhysicalLocation string          `json:"physical_location,omitempty"`
	AverageUnitCost  decimal.Decimal `json:"average_unit_cost"`
	StockValue       decimal.Decimal `json:"stock_value"`
	IsLow            bool            `json:"is_low"`
	IsOverstocked    bool            `json:"is_overstocked"`
	LastMovementAt   *time.Time      `json:"last_movement_at,omitempty"`
}

// ItemStockResponse saldo de un ítem en todas las bodegas.
type ItemStockResponse struct {
	ItemID     string          `json:"item_id"`
	Total      decimal.Decimal `json:"total"`
	Warehouses []StockResponse `json:"warehouses"`
}

// MovementResponse registro del ledger.
type MovementResponse struct {
	ID             string          `json:"id"`
	Sequence       int64           `json:"sequence"`
	WarehouseID    string          `json:"warehouse_id"`
	ItemID         string          `json:"item_id"`
	Kind           string          `json:"kind"`
	QuantityDelta  decimal.Decimal `json:"quantity_delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Reason         string          `json:"reason,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	LotID          string          `json:"lot_id,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Timestamp      time.Time       `json:"timestamp"`
}

// MovementListResponse página de movimientos de una llave.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LotDepletionDTO consumo aplicado a un lote.
type LotDepletionDTO struct {
	LotID     string          `json:"lot_id"`
	LotCode   string          `json:"lot_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// ConsumeResponse resultado de un consumo FIFO.
type ConsumeResponse struct {
	Consumed   decimal.Decimal   `json:"consumed"`
	Depletions []LotDepletionDTO `json:"depletions"`
}

// ReplenishmentSuggestionDTO ítem en o bajo su mínimo con la cantidad sugerida de pedido.
type ReplenishmentSuggestionDTO struct {
	WarehouseID        string          `json:"warehouse_id"`
	ItemID             string          `json:"item_id"`
	ItemKind           string          `json:"item_kind"`
	PhysicalLocation   string          `json:"physical_location,omitempty"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	MinThreshold       decimal.Decimal `json:"min_threshold"`
	TargetStock        decimal.Decimal `json:"target_stock"`        // máximo, o mínimo * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"` // TargetStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"` // 1 = más urgente
}

// ReconcileResponse comparación del saldo contra la reproducción del ledger.
type ReconcileResponse struct {
	WarehouseID     string           `json:"warehouse_id"`
	ItemID          string           `json:"item_id"`
	Movements       int              `json:"movements"`
	ReplayedBalance decimal.Decimal  `json:"replayed_balance"`
	OnHand          decimal.Decimal  `json:"on_hand"`
	LotsBalance     *decimal.Decimal `json:"lots_balance,omitempty"`
	BrokenChainAt   string           `json:"broken_chain_at,omitempty"`
	Consistent      bool             `json:"consistent"`
}
