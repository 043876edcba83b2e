package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// AdjustmentService flujo de ajustes con aprobación dual: el ledger solo cambia al aprobar.
type AdjustmentService struct {
	engine
}

// NewAdjustmentService construye el servicio.
func NewAdjustmentService(deps Deps) *AdjustmentService {
	return &AdjustmentService{engine: newEngine(deps, "adjustments")}
}

// AdjustmentItemInput línea propuesta. UnitCost nil = costo promedio del saldo o del catálogo.
type AdjustmentItemInput struct {
	ItemID        string
	QuantityDelta decimal.Decimal
	LotID         string
	UnitCost      *decimal.Decimal
	Notes         string
}

// ProposeAdjustmentInput propuesta de ajuste.
type ProposeAdjustmentInput struct {
	WarehouseID      string
	Kind             entity.AdjustmentKind
	Reason           string
	Justification    string
	Items            []AdjustmentItemInput
	RequestedBy      string
	RequiresApproval bool
}

// Propose crea el ajuste PENDING. Con RequiresApproval=false se aplica en la misma operación
// (aprobado por el solicitante); si la aplicación falla no queda nada persistido.
func (s *AdjustmentService) Propose(ctx context.Context, in ProposeAdjustmentInput) (*entity.Adjustment, error) {
	if in.WarehouseID == "" {
		return nil, domain.Invalid("warehouse_id requerido")
	}
	if !in.Kind.Valid() {
		return nil, domain.Invalid("tipo de ajuste desconocido: %q", in.Kind)
	}
	if in.Reason == "" {
		return nil, domain.Invalid("el motivo del ajuste es obligatorio")
	}
	if in.RequestedBy == "" {
		return nil, domain.Invalid("solicitante requerido")
	}
	if len(in.Items) == 0 {
		return nil, domain.Invalid("el ajuste debe tener al menos un ítem")
	}
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.QuantityDelta.IsZero() {
			return nil, domain.Invalid("ajuste con cantidad cero para %s", it.ItemID)
		}
		if !in.Kind.SignAllowed(it.QuantityDelta) {
			return nil, domain.Invalid("el signo de %s no corresponde al ajuste %s", it.QuantityDelta, in.Kind)
		}
		if it.UnitCost != nil && it.UnitCost.IsNegative() {
			return nil, domain.Invalid("costo unitario negativo para %s", it.ItemID)
		}
		ids = append(ids, it.ItemID)
	}
	catalog, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a := &entity.Adjustment{
		ID:               uuid.New().String(),
		WarehouseID:      in.WarehouseID,
		Kind:             in.Kind,
		Status:           entity.AdjustmentPending,
		Reason:           in.Reason,
		Justification:    in.Justification,
		RequiresApproval: in.RequiresApproval,
		RequestedBy:      in.RequestedBy,
		CreatedAt:        now,
		Version:          1,
	}

	var keys []string
	if !in.RequiresApproval {
		keys = stockKeys(in.WarehouseID, ids)
	}
	err = s.run(ctx, "adjustment_propose", keys, func(w *work) error {
		for _, it := range in.Items {
			item := catalog[it.ItemID]
			if it.LotID != "" && !item.TracksLots {
				return domain.Invalid("el ítem %s no maneja lotes", item.ID)
			}
			st, err := w.repos.Stock.Get(ctx, entity.StockKey{WarehouseID: in.WarehouseID, ItemID: it.ItemID})
			if err != nil {
				return err
			}
			cost := st.AverageUnitCost
			if it.UnitCost != nil {
				cost = *it.UnitCost
			} else if cost.IsZero() {
				cost = item.UnitCost
			}
			a.Items = append(a.Items, entity.AdjustmentItem{
				ItemID:         it.ItemID,
				ItemKind:       item.Kind,
				QuantityBefore: st.QuantityOnHand,
				QuantityDelta:  it.QuantityDelta,
				QuantityAfter:  st.QuantityOnHand.Add(it.QuantityDelta),
				LotID:          it.LotID,
				UnitCost:       cost,
				Notes:          it.Notes,
			})
		}
		if !in.RequiresApproval {
			if err := a.Approve(in.RequestedBy, w.now); err != nil {
				return err
			}
			if err := s.apply(ctx, w, a, catalog); err != nil {
				return err
			}
		}
		return w.repos.Adjustments.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("adjustment_id", a.ID).Str("kind", string(a.Kind)).Str("status", string(a.Status)).
		Str("value", a.TotalValue().String()).Msg("ajuste propuesto")
	return a, nil
}

// Approve aplica un ajuste PENDING: un movimiento ADJUSTMENT por línea (o por lote afectado).
// Si una línea falla, el ajuste sigue PENDING y no se escribe ningún movimiento.
func (s *AdjustmentService) Approve(ctx context.Context, adjustmentID, approver string) (*entity.Adjustment, error) {
	if approver == "" {
		return nil, domain.Invalid("aprobador requerido")
	}
	current, err := s.Get(ctx, adjustmentID)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.AdjustmentPending {
		return nil, domain.InvalidTransition("ajuste", string(current.Status), "aprobar")
	}
	if current.RequestedBy == approver {
		return nil, fmt.Errorf("%w: quien solicita el ajuste no puede aprobarlo", domain.ErrForbidden)
	}
	ids := adjustmentItemIDs(current)
	catalog, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}

	keys := append(stockKeys(current.WarehouseID, ids), adjustmentLockKey(current.ID))
	var a *entity.Adjustment
	err = s.run(ctx, "adjustment_approve", keys, func(w *work) error {
		var err error
		if a, err = w.repos.Adjustments.GetByID(ctx, adjustmentID); err != nil {
			return err
		}
		expected := a.Version
		if err := a.Approve(approver, w.now); err != nil {
			return err
		}
		if err := s.apply(ctx, w, a, catalog); err != nil {
			return err
		}
		return w.repos.Adjustments.Update(ctx, a, expected)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("adjustment_id", a.ID).Str("approver", approver).
		Str("value", a.TotalValue().String()).Msg("ajuste aprobado")
	return a, nil
}

// apply registra los movimientos de cada línea y refresca antes/después con lo realmente aplicado.
func (s *AdjustmentService) apply(ctx context.Context, w *work, a *entity.Adjustment, catalog map[string]*entity.CatalogItem) error {
	for i := range a.Items {
		it := &a.Items[i]
		item := catalog[it.ItemID]
		p := posting{
			key:  entity.StockKey{WarehouseID: a.WarehouseID, ItemID: it.ItemID},
			item: item, kind: entity.MovementAdjustment,
			reason: fmt.Sprintf("ajuste %s: %s", a.Kind, a.Reason), referenceID: a.ID,
			actor: a.ApprovedBy, lotID: it.LotID, unitCost: it.UnitCost,
		}
		mark := len(w.movements)
		var err error
		switch {
		case !item.TracksLots:
			p.delta = it.QuantityDelta
			_, err = w.post(ctx, p)
		case it.QuantityDelta.IsNegative() && it.LotID != "":
			_, err = w.debitLot(ctx, p, it.QuantityDelta.Abs())
		case it.QuantityDelta.IsNegative():
			_, err = w.consumeLots(ctx, p, it.QuantityDelta.Abs())
		case it.LotID != "":
			_, err = w.creditLot(ctx, p, it.QuantityDelta, true)
		default:
			_, _, err = w.receiveLot(ctx, p, it.QuantityDelta, newLot{notes: "lote de ajuste " + a.ID})
		}
		if err != nil {
			return err
		}
		applied := w.movementsSince(mark)
		if len(applied) > 0 {
			it.QuantityBefore = applied[0].QuantityBefore
			it.QuantityAfter = applied[len(applied)-1].QuantityAfter
		}
	}
	w.emit(entity.EventAdjustmentApplied, a.ID, map[string]any{
		"warehouse_id": a.WarehouseID,
		"kind":         a.Kind,
		"total_value":  a.TotalValue(),
		"approved_by":  a.ApprovedBy,
	})
	return nil
}

// Reject rechaza un ajuste PENDING; no afecta el ledger.
func (s *AdjustmentService) Reject(ctx context.Context, adjustmentID, approver, reason string) (*entity.Adjustment, error) {
	if reason == "" {
		return nil, domain.Invalid("el motivo del rechazo es obligatorio")
	}
	var a *entity.Adjustment
	err := s.run(ctx, "adjustment_reject", []string{adjustmentLockKey(adjustmentID)}, func(w *work) error {
		var err error
		if a, err = w.repos.Adjustments.GetByID(ctx, adjustmentID); err != nil {
			return err
		}
		expected := a.Version
		if err := a.Reject(approver, reason, w.now); err != nil {
			return err
		}
		if err := w.repos.Adjustments.Update(ctx, a, expected); err != nil {
			return err
		}
		w.emit(entity.EventAdjustmentRejected, a.ID, map[string]any{"reason": reason, "approver": approver})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("adjustment_id", a.ID).Str("reason", reason).Msg("ajuste rechazado")
	return a, nil
}

// Get obtiene un ajuste.
func (s *AdjustmentService) Get(ctx context.Context, id string) (*entity.Adjustment, error) {
	var a *entity.Adjustment
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		a, err = r.Adjustments.GetByID(ctx, id)
		return err
	})
	return a, err
}

// ListByWarehouse ajustes de una bodega, opcionalmente por estado.
func (s *AdjustmentService) ListByWarehouse(ctx context.Context, warehouseID string, status entity.AdjustmentStatus) ([]*entity.Adjustment, error) {
	var list []*entity.Adjustment
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Adjustments.ListByWarehouse(ctx, warehouseID, status)
		return err
	})
	return list, err
}

func adjustmentItemIDs(a *entity.Adjustment) []string {
	ids := make([]string, 0, len(a.Items))
	for _, it := range a.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}
