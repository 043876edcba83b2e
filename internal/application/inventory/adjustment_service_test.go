package inventory_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

func proposeZ(t *testing.T, f *fixture, kind entity.AdjustmentKind, delta int64) *entity.Adjustment {
	t.Helper()
	a, err := f.adjustments.Propose(ctx, inventory.ProposeAdjustmentInput{
		WarehouseID: bodegaCentral, Kind: kind, Reason: "conteo físico",
		Items:            []inventory.AdjustmentItemInput{{ItemID: itemZ.ID, QuantityDelta: d(delta)}},
		RequestedBy:      "bodeguero",
		RequiresApproval: true,
	})
	require.NoError(t, err)
	return a
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustment_AprobacionSinSaldoDejaPendiente(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 3)
	a := proposeZ(t, f, entity.AdjustmentNegative, -5)
	assert.Equal(t, entity.AdjustmentPending, a.Status)
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(3)), "proponer no toca el saldo")

	_, err := f.adjustments.Approve(ctx, a.ID, "supervisor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	got, err := f.adjustments.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentPending, got.Status)
	assert.Len(t, f.movements(t, bodegaCentral, itemZ.ID), 1, "solo la entrada inicial")
	assert.Empty(t, f.events.ofType(entity.EventAdjustmentApplied))
}

func TestAdjustment_AprobacionAplicaMovimientos(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 10)
	a := proposeZ(t, f, entity.AdjustmentShrinkage, -4)

	got, err := f.adjustments.Approve(ctx, a.ID, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentApproved, got.Status)
	assert.Equal(t, "supervisor", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.True(t, got.Items[0].QuantityBefore.Equal(d(10)))
	assert.True(t, got.Items[0].QuantityAfter.Equal(d(6)))
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(6)))

	movs := f.movements(t, bodegaCentral, itemZ.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementAdjustment, movs[1].Kind)
	assert.Equal(t, a.ID, movs[1].ReferenceID)
	assert.Len(t, f.events.ofType(entity.EventAdjustmentApplied), 1)
	f.consistent(t, bodegaCentral, itemZ.ID)
}

func TestAdjustment_QuienSolicitaNoAprueba(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 10)
	a := proposeZ(t, f, entity.AdjustmentLoss, -1)

	_, err := f.adjustments.Approve(ctx, a.ID, "bodeguero")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestAdjustment_UnaSolaDecision(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 10)
	a := proposeZ(t, f, entity.AdjustmentDamage, -2)

	_, err := f.adjustments.Approve(ctx, a.ID, "supervisor")
	require.NoError(t, err)
	_, err = f.adjustments.Approve(ctx, a.ID, "admin")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	_, err = f.adjustments.Reject(ctx, a.ID, "admin", "tarde")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(8)))
}

func TestAdjustment_AprobacionesConcurrentes(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 10)
	a := proposeZ(t, f, entity.AdjustmentTheft, -3)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.adjustments.Approve(ctx, a.ID, fmt.Sprintf("supervisor-%d", i))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "error inesperado: %v", err)
	}
	assert.Equal(t, 1, ok, "exactamente una aprobación gana")
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(7)), "el ajuste se aplica una sola vez")
	assert.Len(t, f.movements(t, bodegaCentral, itemZ.ID), 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Propuesta y rechazo
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustment_Validaciones(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	base := inventory.ProposeAdjustmentInput{
		WarehouseID: bodegaCentral, Kind: entity.AdjustmentPositive, Reason: "conteo",
		Items:       []inventory.AdjustmentItemInput{{ItemID: itemZ.ID, QuantityDelta: d(2)}},
		RequestedBy: "bodeguero",
	}

	sinMotivo := base
	sinMotivo.Reason = ""
	_, err := f.adjustments.Propose(ctx, sinMotivo)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	signo := base
	signo.Items = []inventory.AdjustmentItemInput{{ItemID: itemZ.ID, QuantityDelta: d(-2)}}
	_, err = f.adjustments.Propose(ctx, signo)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "un ajuste positivo no resta")

	sinItems := base
	sinItems.Items = nil
	_, err = f.adjustments.Propose(ctx, sinItems)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	tipo := base
	tipo.Kind = "MAGIA"
	_, err = f.adjustments.Propose(ctx, tipo)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestAdjustment_SinAprobacionSeAplicaDeInmediato(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a, err := f.adjustments.Propose(ctx, inventory.ProposeAdjustmentInput{
		WarehouseID: bodegaCentral, Kind: entity.AdjustmentPositive, Reason: "sobrante",
		Items:       []inventory.AdjustmentItemInput{{ItemID: itemZ.ID, QuantityDelta: d(4)}},
		RequestedBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentApproved, a.Status)
	assert.Equal(t, "admin", a.ApprovedBy)
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(4)))

	// Si la aplicación falla no queda ni el ajuste ni movimientos.
	_, err = f.adjustments.Propose(ctx, inventory.ProposeAdjustmentInput{
		WarehouseID: bodegaCentral, Kind: entity.AdjustmentNegative, Reason: "faltante",
		Items:       []inventory.AdjustmentItemInput{{ItemID: itemZ.ID, QuantityDelta: d(-9)}},
		RequestedBy: "admin",
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	list, err := f.adjustments.ListByWarehouse(ctx, bodegaCentral, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAdjustment_Rechazo(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 10)
	a := proposeZ(t, f, entity.AdjustmentNegative, -2)

	_, err := f.adjustments.Reject(ctx, a.ID, "supervisor", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	got, err := f.adjustments.Reject(ctx, a.ID, "supervisor", "conteo mal hecho")
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentRejected, got.Status)
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(10)))
	assert.Len(t, f.events.ofType(entity.EventAdjustmentRejected), 1)

	pending, err := f.adjustments.ListByWarehouse(ctx, bodegaCentral, entity.AdjustmentPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAdjustment_LotesPorFIFOYLoteNuevo(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a := f.receiveLot(t, bodegaCentral, "A", 5, date(2025, 1, 1))
	f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))

	neg, err := f.adjustments.Propose(ctx, inventory.ProposeAdjustmentInput{
		WarehouseID: bodegaCentral, Kind: entity.AdjustmentShrinkage, Reason: "derrame",
		Items:            []inventory.AdjustmentItemInput{{ItemID: itemX.ID, QuantityDelta: d(-6)}},
		RequestedBy:      "bodeguero",
		RequiresApproval: true,
	})
	require.NoError(t, err)
	_, err = f.adjustments.Approve(ctx, neg.ID, "supervisor")
	require.NoError(t, err)

	gotA, _ := f.ledger.GetLot(ctx, a.ID)
	assert.Equal(t, entity.LotStatusDepleted, gotA.Status, "el ajuste negativo consume por FIFO")

	pos, err := f.adjustments.Propose(ctx, inventory.ProposeAdjustmentInput{
		WarehouseID: bodegaCentral, Kind: entity.AdjustmentPositive, Reason: "sobrante",
		Items:       []inventory.AdjustmentItemInput{{ItemID: itemX.ID, QuantityDelta: d(2)}},
		RequestedBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.AdjustmentApproved, pos.Status)

	assert.True(t, f.onHand(t, bodegaCentral, itemX.ID).Equal(d(11)))
	f.consistent(t, bodegaCentral, itemX.ID)
}
