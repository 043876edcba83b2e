package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-caja/internal/domain/inventory"
)

func toStockResponse(s *entity.WarehouseStock) dto.StockResponse {
	return dto.StockResponse{
		WarehouseID:      s.WarehouseID,
		ItemID:           s.ItemID,
		ItemKind:         string(s.ItemKind),
		QuantityOnHand:   s.QuantityOnHand,
		MinThreshold:     s.MinThreshold,
		MaxThreshold:     s.MaxThreshold,
		PhysicalLocation: s.PhysicalLocation,
		AverageUnitCost:  s.AverageUnitCost,
		StockValue:       s.StockValue(),
		IsLow:            s.IsLow(),
		IsOverstocked:    s.IsOverstocked(),
		LastMovementAt:   s.LastMovementAt,
	}
}

func toStockList(list []*entity.WarehouseStock) []dto.StockResponse {
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toStockResponse(s))
	}
	return out
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		Sequence:       m.Sequence,
		WarehouseID:    m.WarehouseID,
		ItemID:         m.ItemID,
		Kind:           string(m.Kind),
		QuantityDelta:  m.QuantityDelta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Reason:         m.Reason,
		ReferenceID:    m.ReferenceID,
		LotID:          m.LotID,
		Actor:          m.Actor,
		UnitCost:       m.UnitCost,
		TotalCost:      m.TotalCost,
		Timestamp:      m.Timestamp,
	}
}

func toMovementList(list []*entity.Movement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toDepletions(list []entity.LotDepletion) []dto.LotDepletionDTO {
	out := make([]dto.LotDepletionDTO, 0, len(list))
	for _, d := range list {
		out = append(out, dto.LotDepletionDTO{
			LotID: d.LotID, LotCode: d.LotCode, Quantity: d.Quantity,
			ExpiresAt: d.ExpiresAt, UnitCost: d.UnitCost,
		})
	}
	return out
}

func toSuggestions(list []inventory.ReplenishmentSuggestion) []dto.ReplenishmentSuggestionDTO {
	out := make([]dto.ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, dto.ReplenishmentSuggestionDTO{
			WarehouseID:        s.WarehouseID,
			ItemID:             s.ItemID,
			ItemKind:           s.ItemKind,
			PhysicalLocation:   s.PhysicalLocation,
			CurrentStock:       s.OnHand,
			MinThreshold:       s.MinThreshold,
			TargetStock:        s.TargetStock,
			SuggestedOrderQty:  s.SuggestedOrderQty,
			UnitCost:           s.UnitCost,
			EstimatedOrderCost: s.EstimatedOrderCost,
			Priority:           s.Priority,
		})
	}
	return out
}

func toReconcileResponse(r invdomain.ReplayReport) dto.ReconcileResponse {
	return dto.ReconcileResponse{
		WarehouseID:     r.Key.WarehouseID,
		ItemID:          r.Key.ItemID,
		Movements:       r.Movements,
		ReplayedBalance: r.ReplayedBalance,
		OnHand:          r.OnHand,
		LotsBalance:     r.LotsBalance,
		BrokenChainAt:   r.BrokenChainAt,
		Consistent:      r.Consistent(),
	}
}

func toLotResponse(l *entity.Lot, now time.Time) dto.LotResponse {
	return dto.LotResponse{
		ID:                l.ID,
		Code:              l.Code,
		ItemID:            l.ItemID,
		ItemKind:          string(l.ItemKind),
		WarehouseID:       l.WarehouseID,
		QuantityInitial:   l.QuantityInitial,
		QuantityRemaining: l.QuantityRemaining,
		UnitCost:          l.UnitCost,
		Status:            string(l.Status),
		ReceivedAt:        l.ReceivedAt,
		ManufacturedAt:    l.ManufacturedAt,
		ExpiresAt:         l.ExpiresAt,
		DaysToExpiry:      l.DaysToExpiry(now),
		Supplier:          l.Supplier,
		InvoiceRef:        l.InvoiceRef,
		Notes:             l.Notes,
	}
}

func toLotSummary(s *entity.LotSummary) dto.LotSummaryResponse {
	return dto.LotSummaryResponse{
		WarehouseID:  s.WarehouseID,
		Active:       s.Active,
		Depleted:     s.Depleted,
		Expired:      s.Expired,
		Withdrawn:    s.Withdrawn,
		ExpiringSoon: s.ExpiringSoon,
		ActiveValue:  s.ActiveValue,
	}
}

func toTransferResponse(t *entity.Transfer) dto.TransferResponse {
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemResponse{
			ItemID:            it.ItemID,
			ItemKind:          string(it.ItemKind),
			QuantityRequested: it.QuantityRequested,
			QuantityShipped:   it.QuantityShipped,
			QuantityReceived:  it.QuantityReceived,
			Discrepancy:       it.Discrepancy(),
			UnitCost:          it.UnitCost,
			Notes:             it.Notes,
			ShippedLots:       toDepletions(it.ShippedLots),
		})
	}
	return dto.TransferResponse{
		ID:                t.ID,
		SourceWarehouseID: t.SourceWarehouseID,
		DestWarehouseID:   t.DestWarehouseID,
		Status:            string(t.Status),
		Items:             items,
		Notes:             t.Notes,
		RequestedBy:       t.RequestedBy,
		Approver:          t.Approver,
		ReceivedBy:        t.ReceivedBy,
		RejectionReason:   t.RejectionReason,
		RequestedAt:       t.RequestedAt,
		ShippedAt:         t.ShippedAt,
		ReceivedAt:        t.ReceivedAt,
		RejectedAt:        t.RejectedAt,
		Version:           t.Version,
	}
}

func toAdjustmentResponse(a *entity.Adjustment) dto.AdjustmentResponse {
	items := make([]dto.AdjustmentItemResponse, 0, len(a.Items))
	for _, it := range a.Items {
		items = append(items, dto.AdjustmentItemResponse{
			ItemID:         it.ItemID,
			ItemKind:       string(it.ItemKind),
			QuantityBefore: it.QuantityBefore,
			QuantityDelta:  it.QuantityDelta,
			QuantityAfter:  it.QuantityAfter,
			LotID:          it.LotID,
			UnitCost:       it.UnitCost,
			Value:          it.Value(),
			Notes:          it.Notes,
		})
	}
	return dto.AdjustmentResponse{
		ID:               a.ID,
		WarehouseID:      a.WarehouseID,
		Kind:             string(a.Kind),
		Status:           string(a.Status),
		Reason:           a.Reason,
		Justification:    a.Justification,
		Items:            items,
		TotalValue:       a.TotalValue(),
		RequiresApproval: a.RequiresApproval,
		RequestedBy:      a.RequestedBy,
		ApprovedBy:       a.ApprovedBy,
		RejectionReason:  a.RejectionReason,
		CreatedAt:        a.CreatedAt,
		ApprovedAt:       a.ApprovedAt,
		RejectedAt:       a.RejectedAt,
		Version:          a.Version,
	}
}

func amounts(a entity.Amounts) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func toCashSessionResponse(s *entity.CashSession) dto.CashSessionResponse {
	cashiers := s.Cashiers
	if cashiers == nil {
		cashiers = []string{}
	}
	return dto.CashSessionResponse{
		ID:                       s.ID,
		Name:                     s.Name,
		Responsible:              s.Responsible,
		RegisterID:               s.RegisterID,
		Cashiers:                 cashiers,
		Status:                   string(s.Status),
		OpeningFloatByMethod:     amounts(s.OpeningFloatByMethod),
		SalesByMethod:            amounts(s.SalesByMethod),
		ExpensesByType:           amounts(s.ExpensesByType),
		ExpensesByMethod:         amounts(s.ExpensesByMethod),
		CashPaidExpensesByMethod: amounts(s.CashPaidExpensesByMethod),
		ManualIncomeByType:       amounts(s.ManualIncomeByType),
		ManualIncomeByMethod:     amounts(s.ManualIncomeByMethod),
		TotalSales:               s.TotalSales(),
		TotalExpenses:            s.TotalExpenses(),
		TotalIncome:              s.TotalIncome(),
		Tolerance:                s.Tolerance,
		DeclaredCash:             s.DeclaredCash,
		ExpectedCash:             s.ExpectedCash,
		Difference:               s.Difference,
		Balanced:                 s.Balanced,
		Notes:                    s.Notes,
		OpenedBy:                 s.OpenedBy,
		ClosedBy:                 s.ClosedBy,
		ReviewedBy:               s.ReviewedBy,
		RejectionReason:          s.RejectionReason,
		OpenedAt:                 s.OpenedAt,
		ClosedAt:                 s.ClosedAt,
		ReviewedAt:               s.ReviewedAt,
		Version:                  s.Version,
	}
}

func toCashEntries(list []*entity.CashEntry) []dto.CashEntryResponse {
	out := make([]dto.CashEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.CashEntryResponse{
			ID:           e.ID,
			Kind:         string(e.Kind),
			Method:       e.Method,
			Category:     e.Category,
			Amount:       e.Amount,
			PaidFromCash: e.PaidFromCash,
			ReferenceID:  e.ReferenceID,
			Actor:        e.Actor,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out
}
