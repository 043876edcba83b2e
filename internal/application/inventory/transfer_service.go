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

// TransferService flujo de traslados: PENDING -> IN_TRANSIT -> COMPLETED, o PENDING -> REJECTED.
type TransferService struct {
	engine
}

// NewTransferService construye el servicio.
func NewTransferService(deps Deps) *TransferService {
	return &TransferService{engine: newEngine(deps, "transfers")}
}

// TransferItemInput línea solicitada.
type TransferItemInput struct {
	ItemID   string
	Quantity decimal.Decimal
	Notes    string
}

// RequestTransferInput solicitud de traslado.
type RequestTransferInput struct {
	SourceWarehouseID string
	DestWarehouseID   string
	Items             []TransferItemInput
	Notes             string
	RequestedBy       string
}

// Request crea un traslado PENDING. Según la política valida lo solicitado contra el saldo
// de origen (off: no valida, warn: registra advertencia, block: rechaza).
func (s *TransferService) Request(ctx context.Context, in RequestTransferInput) (*entity.Transfer, error) {
	if in.SourceWarehouseID == "" || in.DestWarehouseID == "" {
		return nil, domain.Invalid("bodegas de origen y destino requeridas")
	}
	if in.SourceWarehouseID == in.DestWarehouseID {
		return nil, domain.Invalid("la bodega de origen y destino deben ser diferentes")
	}
	if len(in.Items) == 0 {
		return nil, domain.Invalid("el traslado debe tener al menos un ítem")
	}
	ids := make([]string, 0, len(in.Items))
	seen := make(map[string]bool, len(in.Items))
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, domain.Invalid("cantidad solicitada inválida para %s", it.ItemID)
		}
		if seen[it.ItemID] {
			return nil, domain.Invalid("ítem repetido en el traslado: %s", it.ItemID)
		}
		seen[it.ItemID] = true
		ids = append(ids, it.ItemID)
	}
	catalog, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	t := &entity.Transfer{
		ID:                uuid.New().String(),
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		Status:            entity.TransferPending,
		Notes:             in.Notes,
		RequestedBy:       in.RequestedBy,
		RequestedAt:       now,
		Version:           1,
	}
	for _, it := range in.Items {
		t.Items = append(t.Items, entity.TransferItem{
			ItemID:            it.ItemID,
			ItemKind:          catalog[it.ItemID].Kind,
			QuantityRequested: it.Quantity,
			QuantityShipped:   decimal.Zero,
			QuantityReceived:  decimal.Zero,
			Notes:             it.Notes,
		})
	}

	err = s.run(ctx, "transfer_request", nil, func(w *work) error {
		if err := s.checkSourceStock(ctx, w, t); err != nil {
			return err
		}
		return w.repos.Transfers.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("transfer_id", t.ID).Str("from", t.SourceWarehouseID).Str("to", t.DestWarehouseID).
		Int("items", len(t.Items)).Msg("traslado solicitado")
	return t, nil
}

func (s *TransferService) checkSourceStock(ctx context.Context, w *work, t *entity.Transfer) error {
	mode := s.deps.Policy.TransferStockCheck
	if mode == StockCheckOff {
		return nil
	}
	for _, it := range t.Items {
		st, err := w.repos.Stock.Get(ctx, entity.StockKey{WarehouseID: t.SourceWarehouseID, ItemID: it.ItemID})
		if err != nil {
			return err
		}
		if it.QuantityRequested.LessThanOrEqual(st.QuantityOnHand) {
			continue
		}
		if mode == StockCheckBlock {
			return domain.Insufficient(it.ItemID, t.SourceWarehouseID, st.QuantityOnHand, it.QuantityRequested)
		}
		s.log.Warn().Str("item_id", it.ItemID).Str("warehouse_id", t.SourceWarehouseID).
			Str("on_hand", st.QuantityOnHand.String()).Str("requested", it.QuantityRequested.String()).
			Msg("traslado solicitado por encima del saldo de origen")
	}
	return nil
}

// ApproveTransferInput aprobación con despacho. Shipped permite despachar menos de lo
// solicitado por ítem (0 ≤ enviado ≤ solicitado); los ítems ausentes despachan lo solicitado.
type ApproveTransferInput struct {
	TransferID string
	Approver   string
	Shipped    map[string]decimal.Decimal
}

// Approve pasa a IN_TRANSIT y debita el origen (TRANSFER_OUT). Si algún ítem no tiene saldo
// la aprobación completa falla y el traslado sigue PENDING.
func (s *TransferService) Approve(ctx context.Context, in ApproveTransferInput) (*entity.Transfer, error) {
	current, err := s.Get(ctx, in.TransferID)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.TransferPending {
		return nil, domain.InvalidTransition("traslado", string(current.Status), "aprobar")
	}
	for itemID := range in.Shipped {
		if current.Item(itemID) == nil {
			return nil, domain.Invalid("el ítem %s no pertenece al traslado", itemID)
		}
	}
	catalog, err := s.items(ctx, transferItemIDs(current))
	if err != nil {
		return nil, err
	}

	keys := append(stockKeys(current.SourceWarehouseID, transferItemIDs(current)), transferLockKey(current.ID))
	var t *entity.Transfer
	err = s.run(ctx, "transfer_approve", keys, func(w *work) error {
		var err error
		if t, err = w.repos.Transfers.GetByID(ctx, in.TransferID); err != nil {
			return err
		}
		expected := t.Version
		if err := t.Ship(in.Approver, w.now); err != nil {
			return err
		}
		total := decimal.Zero
		for i := range t.Items {
			it := &t.Items[i]
			shipped := it.QuantityRequested
			if q, ok := in.Shipped[it.ItemID]; ok {
				if q.IsNegative() || q.GreaterThan(it.QuantityRequested) {
					return domain.Invalid("cantidad enviada de %s fuera de rango [0, %s]", it.ItemID, it.QuantityRequested)
				}
				shipped = q
			}
			it.QuantityShipped = shipped
			total = total.Add(shipped)
			if shipped.IsZero() {
				continue
			}
			if err := s.ship(ctx, w, t, it, catalog[it.ItemID]); err != nil {
				return err
			}
		}
		if total.IsZero() {
			return domain.Invalid("el traslado no despacha ninguna cantidad")
		}
		if err := w.repos.Transfers.Update(ctx, t, expected); err != nil {
			return err
		}
		w.emit(entity.EventTransferApproved, t.ID, map[string]any{
			"source_warehouse_id": t.SourceWarehouseID,
			"dest_warehouse_id":   t.DestWarehouseID,
			"approver":            t.Approver,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("transfer_id", t.ID).Str("approver", t.Approver).Msg("traslado aprobado y despachado")
	return t, nil
}

// ship debita el origen: por FIFO si el ítem maneja lotes, directo al saldo si no.
func (s *TransferService) ship(ctx context.Context, w *work, t *entity.Transfer, it *entity.TransferItem, item *entity.CatalogItem) error {
	key := entity.StockKey{WarehouseID: t.SourceWarehouseID, ItemID: it.ItemID}
	p := posting{
		key: key, item: item, kind: entity.MovementTransferOut,
		reason: fmt.Sprintf("traslado a %s", t.DestWarehouseID), referenceID: t.ID, actor: t.Approver,
	}
	if item.TracksLots {
		plan, err := w.consumeLots(ctx, p, it.QuantityShipped)
		if err != nil {
			return err
		}
		it.ShippedLots = plan
		value := decimal.Zero
		for _, d := range plan {
			value = value.Add(d.Quantity.Mul(d.UnitCost))
		}
		it.UnitCost = value.Div(it.QuantityShipped).Round(4)
		return nil
	}
	p.delta = it.QuantityShipped.Neg()
	m, err := w.post(ctx, p)
	if err != nil {
		return err
	}
	it.UnitCost = m.UnitCost
	return nil
}

// ReceiveTransferInput recepción en destino. Received por ítem (0 ≤ recibido ≤ enviado);
// los ítems ausentes reciben lo enviado.
type ReceiveTransferInput struct {
	TransferID string
	Receiver   string
	Received   map[string]decimal.Decimal
}

// Receive acredita el destino (TRANSFER_IN) y completa el traslado. Una recepción menor a lo
// enviado queda anotada como merma en la línea; no se genera un ajuste.
func (s *TransferService) Receive(ctx context.Context, in ReceiveTransferInput) (*entity.Transfer, error) {
	current, err := s.Get(ctx, in.TransferID)
	if err != nil {
		return nil, err
	}
	if current.Status != entity.TransferInTransit {
		return nil, domain.InvalidTransition("traslado", string(current.Status), "recibir")
	}
	for itemID := range in.Received {
		if current.Item(itemID) == nil {
			return nil, domain.Invalid("el ítem %s no pertenece al traslado", itemID)
		}
	}
	catalog, err := s.items(ctx, transferItemIDs(current))
	if err != nil {
		return nil, err
	}

	keys := append(stockKeys(current.DestWarehouseID, transferItemIDs(current)), transferLockKey(current.ID))
	var t *entity.Transfer
	discrepancies := map[string]decimal.Decimal{}
	err = s.run(ctx, "transfer_receive", keys, func(w *work) error {
		var err error
		if t, err = w.repos.Transfers.GetByID(ctx, in.TransferID); err != nil {
			return err
		}
		expected := t.Version
		if err := t.Complete(in.Receiver, w.now); err != nil {
			return err
		}
		for i := range t.Items {
			it := &t.Items[i]
			received := it.QuantityShipped
			if q, ok := in.Received[it.ItemID]; ok {
				if q.IsNegative() || q.GreaterThan(it.QuantityShipped) {
					return domain.Invalid("cantidad recibida de %s fuera de rango [0, %s]", it.ItemID, it.QuantityShipped)
				}
				received = q
			}
			it.QuantityReceived = received
			if d := it.Discrepancy(); d.IsPositive() {
				discrepancies[it.ItemID] = d
				it.Notes = appendNote(it.Notes, fmt.Sprintf("merma en tránsito: %s", d))
			}
			if received.IsZero() {
				continue
			}
			if err := s.receive(ctx, w, t, it, catalog[it.ItemID]); err != nil {
				return err
			}
		}
		if err := w.repos.Transfers.Update(ctx, t, expected); err != nil {
			return err
		}
		w.emit(entity.EventTransferCompleted, t.ID, map[string]any{
			"source_warehouse_id": t.SourceWarehouseID,
			"dest_warehouse_id":   t.DestWarehouseID,
			"discrepancies":       discrepancies,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev := s.log.Info().Str("transfer_id", t.ID).Str("receiver", t.ReceivedBy)
	if len(discrepancies) > 0 {
		ev = ev.Int("items_with_shrinkage", len(discrepancies))
	}
	ev.Msg("traslado recibido")
	return t, nil
}

// receive acredita el destino. Con lotes replica los lotes despachados (mismo vencimiento y
// costo) en orden FIFO hasta cubrir lo recibido.
func (s *TransferService) receive(ctx context.Context, w *work, t *entity.Transfer, it *entity.TransferItem, item *entity.CatalogItem) error {
	key := entity.StockKey{WarehouseID: t.DestWarehouseID, ItemID: it.ItemID}
	p := posting{
		key: key, item: item, kind: entity.MovementTransferIn,
		reason: fmt.Sprintf("traslado desde %s", t.SourceWarehouseID), referenceID: t.ID,
		actor: t.ReceivedBy, unitCost: it.UnitCost,
	}
	if !item.TracksLots {
		p.delta = it.QuantityReceived
		_, err := w.post(ctx, p)
		return err
	}
	pending := it.QuantityReceived
	for _, dep := range it.ShippedLots {
		if !pending.IsPositive() {
			break
		}
		q := decimal.Min(dep.Quantity, pending)
		lp := p
		lp.unitCost = dep.UnitCost
		if _, _, err := w.receiveLot(ctx, lp, q, newLot{
			expiresAt:  dep.ExpiresAt,
			supplier:   "traslado " + t.SourceWarehouseID,
			invoiceRef: t.ID,
			notes:      "lote de origen " + dep.LotCode,
		}); err != nil {
			return err
		}
		pending = pending.Sub(q)
	}
	if pending.IsPositive() {
		_, _, err := w.receiveLot(ctx, p, pending, newLot{supplier: "traslado " + t.SourceWarehouseID, invoiceRef: t.ID})
		return err
	}
	return nil
}

// Reject rechaza un traslado PENDING; no afecta el ledger.
func (s *TransferService) Reject(ctx context.Context, transferID, approver, reason string) (*entity.Transfer, error) {
	if reason == "" {
		return nil, domain.Invalid("el motivo del rechazo es obligatorio")
	}
	var t *entity.Transfer
	err := s.run(ctx, "transfer_reject", []string{transferLockKey(transferID)}, func(w *work) error {
		var err error
		if t, err = w.repos.Transfers.GetByID(ctx, transferID); err != nil {
			return err
		}
		expected := t.Version
		if err := t.Reject(approver, reason, w.now); err != nil {
			return err
		}
		if err := w.repos.Transfers.Update(ctx, t, expected); err != nil {
			return err
		}
		w.emit(entity.EventTransferRejected, t.ID, map[string]any{"reason": reason, "approver": approver})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("transfer_id", t.ID).Str("reason", reason).Msg("traslado rechazado")
	return t, nil
}

// Get obtiene un traslado.
func (s *TransferService) Get(ctx context.Context, id string) (*entity.Transfer, error) {
	var t *entity.Transfer
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		t, err = r.Transfers.GetByID(ctx, id)
		return err
	})
	return t, err
}

// ListByWarehouse traslados de una bodega (origen o destino), opcionalmente por estado.
func (s *TransferService) ListByWarehouse(ctx context.Context, warehouseID string, status entity.TransferStatus) ([]*entity.Transfer, error) {
	var list []*entity.Transfer
	err := s.read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Transfers.ListByWarehouse(ctx, warehouseID, status)
		return err
	})
	return list, err
}

func transferItemIDs(t *entity.Transfer) []string {
	ids := make([]string, 0, len(t.Items))
	for _, it := range t.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}
