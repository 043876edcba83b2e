package inventory_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

func requestY(t *testing.T, f *fixture, qty int64) *entity.Transfer {
	t.Helper()
	tr, err := f.transfers.Request(ctx, inventory.RequestTransferInput{
		SourceWarehouseID: bodegaCentral, DestWarehouseID: bodegaCocina,
		Items:       []inventory.TransferItemInput{{ItemID: itemY.ID, Quantity: d(qty)}},
		RequestedBy: "cocina",
	})
	require.NoError(t, err)
	return tr
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo con merma en tránsito
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_RecepcionParcialRegistraDiscrepancia(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 50)
	tr := requestY(t, f, 20)
	assert.Equal(t, entity.TransferPending, tr.Status)

	tr, err := f.transfers.Approve(ctx, inventory.ApproveTransferInput{
		TransferID: tr.ID, Approver: "supervisor",
		Shipped: map[string]decimal.Decimal{itemY.ID: d(20)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferInTransit, tr.Status)
	assert.True(t, f.onHand(t, bodegaCentral, itemY.ID).Equal(d(30)))

	tr, err = f.transfers.Receive(ctx, inventory.ReceiveTransferInput{
		TransferID: tr.ID, Receiver: "cocina",
		Received: map[string]decimal.Decimal{itemY.ID: d(18)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
	assert.True(t, f.onHand(t, bodegaCocina, itemY.ID).Equal(d(18)))

	line := tr.Item(itemY.ID)
	require.NotNil(t, line)
	assert.True(t, line.Discrepancy().Equal(d(2)))
	assert.True(t, strings.Contains(line.Notes, "merma en tránsito"))

	// Lo que salió es lo que entró más la merma.
	out := d(0)
	for _, m := range f.movements(t, bodegaCentral, itemY.ID) {
		if m.Kind == entity.MovementTransferOut && m.ReferenceID == tr.ID {
			out = out.Add(m.QuantityDelta.Abs())
		}
	}
	in := d(0)
	for _, m := range f.movements(t, bodegaCocina, itemY.ID) {
		if m.Kind == entity.MovementTransferIn && m.ReferenceID == tr.ID {
			in = in.Add(m.QuantityDelta)
		}
	}
	assert.True(t, out.Equal(in.Add(line.Discrepancy())))

	// No se genera ajuste automático por la merma.
	adjs, err := f.adjustments.ListByWarehouse(ctx, bodegaCocina, "")
	require.NoError(t, err)
	assert.Empty(t, adjs)

	completed := f.events.ofType(entity.EventTransferCompleted)
	require.Len(t, completed, 1)
	f.consistent(t, bodegaCentral, itemY.ID)
	f.consistent(t, bodegaCocina, itemY.ID)
}

func TestTransfer_LotesConservanVencimientoEnDestino(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.receiveLot(t, bodegaCentral, "A", 5, date(2025, 1, 1))
	f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))

	tr, err := f.transfers.Request(ctx, inventory.RequestTransferInput{
		SourceWarehouseID: bodegaCentral, DestWarehouseID: bodegaCocina,
		Items: []inventory.TransferItemInput{{ItemID: itemX.ID, Quantity: d(7)}}, RequestedBy: "cocina",
	})
	require.NoError(t, err)
	tr, err = f.transfers.Approve(ctx, inventory.ApproveTransferInput{TransferID: tr.ID, Approver: "supervisor"})
	require.NoError(t, err)
	require.Len(t, tr.Items[0].ShippedLots, 2)
	assert.Equal(t, "A", tr.Items[0].ShippedLots[0].LotCode)

	_, err = f.transfers.Receive(ctx, inventory.ReceiveTransferInput{TransferID: tr.ID, Receiver: "cocina"})
	require.NoError(t, err)

	expiring, err := f.ledger.ExpiringLots(ctx, bodegaCocina, 45)
	require.NoError(t, err)
	require.Len(t, expiring, 1, "solo el lote que viene de A vence en 45 días")
	assert.True(t, expiring[0].QuantityRemaining.Equal(d(5)))
	assert.True(t, f.onHand(t, bodegaCocina, itemX.ID).Equal(d(7)))
	f.consistent(t, bodegaCentral, itemX.ID)
	f.consistent(t, bodegaCocina, itemX.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reglas de transición
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_AprobacionSinSaldoDejaPendiente(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 5)
	tr := requestY(t, f, 20)

	_, err := f.transfers.Approve(ctx, inventory.ApproveTransferInput{TransferID: tr.ID, Approver: "supervisor"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	got, err := f.transfers.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPending, got.Status)
	assert.True(t, f.onHand(t, bodegaCentral, itemY.ID).Equal(d(5)))
	assert.Empty(t, f.events.ofType(entity.EventTransferApproved))
}

func TestTransfer_DobleAprobacionEsInvalida(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 50)
	tr := requestY(t, f, 20)

	_, err := f.transfers.Approve(ctx, inventory.ApproveTransferInput{TransferID: tr.ID, Approver: "supervisor"})
	require.NoError(t, err)
	_, err = f.transfers.Approve(ctx, inventory.ApproveTransferInput{TransferID: tr.ID, Approver: "supervisor"})
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	assert.True(t, f.onHand(t, bodegaCentral, itemY.ID).Equal(d(30)), "el origen se debita una sola vez")
}

func TestTransfer_Rechazo(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 50)
	tr := requestY(t, f, 20)

	_, err := f.transfers.Reject(ctx, tr.ID, "supervisor", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "el motivo es obligatorio")

	got, err := f.transfers.Reject(ctx, tr.ID, "supervisor", "no hay transporte")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferRejected, got.Status)
	assert.Equal(t, "no hay transporte", got.RejectionReason)

	_, err = f.transfers.Approve(ctx, inventory.ApproveTransferInput{TransferID: tr.ID, Approver: "supervisor"})
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	_, err = f.transfers.Receive(ctx, inventory.ReceiveTransferInput{TransferID: tr.ID, Receiver: "cocina"})
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	assert.True(t, f.onHand(t, bodegaCentral, itemY.ID).Equal(d(50)))
}

func TestTransfer_CantidadesFueraDeRango(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 50)
	tr := requestY(t, f, 20)

	_, err := f.transfers.Approve(ctx, inventory.ApproveTransferInput{
		TransferID: tr.ID, Approver: "supervisor", Shipped: map[string]decimal.Decimal{itemY.ID: d(25)},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "no se despacha más de lo solicitado")

	_, err = f.transfers.Approve(ctx, inventory.ApproveTransferInput{
		TransferID: tr.ID, Approver: "supervisor", Shipped: map[string]decimal.Decimal{itemY.ID: d(0)},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "un traslado sin despacho no tiene sentido")

	_, err = f.transfers.Approve(ctx, inventory.ApproveTransferInput{
		TransferID: tr.ID, Approver: "supervisor", Shipped: map[string]decimal.Decimal{itemY.ID: d(15)},
	})
	require.NoError(t, err)
	_, err = f.transfers.Receive(ctx, inventory.ReceiveTransferInput{
		TransferID: tr.ID, Receiver: "cocina", Received: map[string]decimal.Decimal{itemY.ID: d(16)},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "no se recibe más de lo enviado")
}

func TestTransfer_ValidacionDeSolicitud(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	_, err := f.transfers.Request(ctx, inventory.RequestTransferInput{
		SourceWarehouseID: bodegaCentral, DestWarehouseID: bodegaCentral,
		Items: []inventory.TransferItemInput{{ItemID: itemY.ID, Quantity: d(1)}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "origen y destino iguales")

	_, err = f.transfers.Request(ctx, inventory.RequestTransferInput{
		SourceWarehouseID: bodegaCentral, DestWarehouseID: bodegaCocina,
		Items: []inventory.TransferItemInput{{ItemID: itemY.ID, Quantity: d(-1)}},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "cantidad negativa")
}

func TestTransfer_PoliticaDeStockAlSolicitar(t *testing.T) {
	block := inventory.DefaultPolicy()
	block.TransferStockCheck = inventory.StockCheckBlock
	f := newFixture(t, block)
	f.entry(t, bodegaCentral, itemY.ID, 5)

	_, err := f.transfers.Request(ctx, inventory.RequestTransferInput{
		SourceWarehouseID: bodegaCentral, DestWarehouseID: bodegaCocina,
		Items: []inventory.TransferItemInput{{ItemID: itemY.ID, Quantity: d(20)}},
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	warn := newFixture(t, inventory.DefaultPolicy())
	warn.entry(t, bodegaCentral, itemY.ID, 5)
	tr := requestY(t, warn, 20)
	assert.Equal(t, entity.TransferPending, tr.Status)

	list, err := warn.transfers.ListByWarehouse(ctx, bodegaCocina, entity.TransferPending)
	require.NoError(t, err)
	assert.Len(t, list, 1, "el destino también ve el traslado")
}

func TestParseStockCheckMode(t *testing.T) {
	assert.Equal(t, inventory.StockCheckBlock, inventory.ParseStockCheckMode(" BLOCK "))
	assert.Equal(t, inventory.StockCheckOff, inventory.ParseStockCheckMode("off"))
	assert.Equal(t, inventory.StockCheckWarn, inventory.ParseStockCheckMode("cualquier cosa"))
}
