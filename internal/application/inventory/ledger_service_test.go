package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// ApplyMovement
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyMovement_ActualizaSaldoYRegistraMovimiento(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 10)

	mov, err := f.ledger.ApplyMovement(ctx, inventory.MovementInput{
		WarehouseID: bodegaCentral, ItemID: itemY.ID, Kind: entity.MovementExit,
		QuantityDelta: d(-4), Reason: "venta", ReferenceID: "orden-1", Actor: "cajero",
	})
	require.NoError(t, err)
	assert.True(t, mov.QuantityBefore.Equal(d(10)))
	assert.True(t, mov.QuantityAfter.Equal(d(6)))
	assert.Equal(t, now, mov.Timestamp)
	assert.True(t, f.onHand(t, bodegaCentral, itemY.ID).Equal(d(6)))

	movs := f.movements(t, bodegaCentral, itemY.ID)
	require.Len(t, movs, 2)
	assert.Less(t, movs[0].Sequence, movs[1].Sequence, "el log conserva el orden de escritura")
	f.consistent(t, bodegaCentral, itemY.ID)
}

func TestApplyMovement_Validaciones(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())

	cases := []struct {
		name string
		in   inventory.MovementInput
		want error
	}{
		{"cantidad cero", inventory.MovementInput{WarehouseID: bodegaCentral, ItemID: itemY.ID, Kind: entity.MovementEntry}, domain.ErrInvalidInput},
		{"signo incoherente", inventory.MovementInput{WarehouseID: bodegaCentral, ItemID: itemY.ID, Kind: entity.MovementExit, QuantityDelta: d(3)}, domain.ErrInvalidInput},
		{"tipo desconocido", inventory.MovementInput{WarehouseID: bodegaCentral, ItemID: itemY.ID, Kind: "VENTA", QuantityDelta: d(3)}, domain.ErrInvalidInput},
		{"ítem inexistente", inventory.MovementInput{WarehouseID: bodegaCentral, ItemID: "nope", Kind: entity.MovementEntry, QuantityDelta: d(3)}, domain.ErrNotFound},
		{"ítem con lotes sin lote", inventory.MovementInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Kind: entity.MovementEntry, QuantityDelta: d(3)}, domain.ErrInvalidInput},
		{"salida sin saldo", inventory.MovementInput{WarehouseID: bodegaCentral, ItemID: itemY.ID, Kind: entity.MovementExit, QuantityDelta: d(-1)}, domain.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ledger.ApplyMovement(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "se esperaba %v, se obtuvo %v", tc.want, err)
		})
	}
	assert.Empty(t, f.movements(t, bodegaCentral, itemY.ID), "ningún rechazo escribe movimientos")
}

func TestApplyMovement_AjusteNegativoSegunPolitica(t *testing.T) {
	in := inventory.MovementInput{
		WarehouseID: bodegaCentral, ItemID: itemZ.ID, Kind: entity.MovementAdjustment,
		QuantityDelta: d(-2), Reason: "conteo",
	}

	strict := newFixture(t, inventory.DefaultPolicy())
	_, err := strict.ledger.ApplyMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	lax := inventory.DefaultPolicy()
	lax.AllowNegativeAdjustments = true
	f := newFixture(t, lax)
	_, err = f.ledger.ApplyMovement(ctx, in)
	require.NoError(t, err)
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(-2)))

	// La política no habilita salidas normales en negativo.
	in.Kind = entity.MovementExit
	_, err = f.ledger.ApplyMovement(ctx, in)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestApplyMovement_CostoPromedioPonderado(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	_, err := f.ledger.ApplyMovement(ctx, inventory.MovementInput{
		WarehouseID: bodegaCentral, ItemID: itemZ.ID, Kind: entity.MovementEntry, QuantityDelta: d(10), UnitCost: d(4000),
	})
	require.NoError(t, err)
	_, err = f.ledger.ApplyMovement(ctx, inventory.MovementInput{
		WarehouseID: bodegaCentral, ItemID: itemZ.ID, Kind: entity.MovementEntry, QuantityDelta: d(10), UnitCost: d(5000),
	})
	require.NoError(t, err)

	st, err := f.ledger.GetStock(ctx, entity.StockKey{WarehouseID: bodegaCentral, ItemID: itemZ.ID})
	require.NoError(t, err)
	assert.True(t, st.AverageUnitCost.Equal(d(4500)), "promedio: %s", st.AverageUnitCost)
}

func TestApplyMovement_EmiteStockBajo(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 10)
	_, err := f.ledger.SetThresholds(ctx, inventory.ThresholdsInput{
		WarehouseID: bodegaCentral, ItemID: itemY.ID, MinThreshold: d(5), MaxThreshold: d(20),
	})
	require.NoError(t, err)

	_, err = f.ledger.ApplyMovement(ctx, inventory.MovementInput{
		WarehouseID: bodegaCentral, ItemID: itemY.ID, Kind: entity.MovementExit, QuantityDelta: d(-6),
	})
	require.NoError(t, err)
	assert.Len(t, f.events.ofType(entity.EventStockLow), 1)

	low, err := f.ledger.LowStock(ctx, bodegaCentral)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.True(t, low[0].SuggestedOrderQty.Equal(d(16)), "se repone hasta el máximo")
	assert.Equal(t, 1, low[0].Priority)
}

func TestSetThresholds_NoTocaLaCantidad(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 7)

	st, err := f.ledger.SetThresholds(ctx, inventory.ThresholdsInput{
		WarehouseID: bodegaCentral, ItemID: itemY.ID, MinThreshold: d(2), PhysicalLocation: "estante A",
	})
	require.NoError(t, err)
	assert.True(t, st.QuantityOnHand.Equal(d(7)))
	assert.Equal(t, "estante A", st.PhysicalLocation)

	_, err = f.ledger.SetThresholds(ctx, inventory.ThresholdsInput{
		WarehouseID: bodegaCentral, ItemID: itemY.ID, MinThreshold: d(10), MaxThreshold: d(5),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestStockAcrossWarehouses_SumaBodegas(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemY.ID, 7)
	f.entry(t, bodegaCocina, itemY.ID, 3)

	list, total, err := f.ledger.StockAcrossWarehouses(ctx, itemY.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, total.Equal(d(10)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo FIFO
// ──────────────────────────────────────────────────────────────────────────────

func TestConsumeFIFO_AgotaElLoteQueVencePrimero(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a := f.receiveLot(t, bodegaCentral, "A", 5, date(2025, 1, 1))
	b := f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))

	plan, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{
		WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(7), ReferenceID: "orden-9",
	})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, a.ID, plan[0].LotID)
	assert.True(t, plan[0].Quantity.Equal(d(5)))
	assert.Equal(t, b.ID, plan[1].LotID)
	assert.True(t, plan[1].Quantity.Equal(d(2)))

	gotA, err := f.ledger.GetLot(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusDepleted, gotA.Status)
	gotB, err := f.ledger.GetLot(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, gotB.QuantityRemaining.Equal(d(8)))

	assert.True(t, f.onHand(t, bodegaCentral, itemX.ID).Equal(d(8)))
	f.consistent(t, bodegaCentral, itemX.ID)
}

func TestConsumeFIFO_SinSaldoSuficienteNoCambiaNada(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a := f.receiveLot(t, bodegaCentral, "A", 5, date(2025, 1, 1))
	b := f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))

	_, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(100)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	gotA, _ := f.ledger.GetLot(ctx, a.ID)
	gotB, _ := f.ledger.GetLot(ctx, b.ID)
	assert.True(t, gotA.QuantityRemaining.Equal(d(5)))
	assert.True(t, gotB.QuantityRemaining.Equal(d(10)))
	assert.True(t, f.onHand(t, bodegaCentral, itemX.ID).Equal(d(15)))
	assert.Len(t, f.movements(t, bodegaCentral, itemX.ID), 2, "solo las dos recepciones")
}

func TestConsumeFIFO_ItemSinLotes(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	f.entry(t, bodegaCentral, itemZ.ID, 4)

	plan, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemZ.ID, Quantity: d(3)})
	require.NoError(t, err)
	assert.Empty(t, plan)
	assert.True(t, f.onHand(t, bodegaCentral, itemZ.ID).Equal(d(1)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Devoluciones
// ──────────────────────────────────────────────────────────────────────────────

func TestReturnToStock_ReabreElUltimoLoteAgotado(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a := f.receiveLot(t, bodegaCentral, "A", 5, date(2025, 1, 1))
	f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))
	_, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(7)})
	require.NoError(t, err)

	movs, err := f.ledger.ReturnToStock(ctx, inventory.ReturnInput{
		WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(3), ReferenceID: "orden-cancelada",
	})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, a.ID, movs[0].LotID)

	gotA, _ := f.ledger.GetLot(ctx, a.ID)
	assert.Equal(t, entity.LotStatusActive, gotA.Status)
	assert.True(t, gotA.QuantityRemaining.Equal(d(3)))
	assert.True(t, f.onHand(t, bodegaCentral, itemX.ID).Equal(d(11)))
	f.consistent(t, bodegaCentral, itemX.ID)
}

func TestReturnToStock_ExcedenteCreaLoteDeDevolucion(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	b := f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))
	_, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(2)})
	require.NoError(t, err)

	movs, err := f.ledger.ReturnToStock(ctx, inventory.ReturnInput{
		WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(5), LotID: b.ID,
	})
	require.NoError(t, err)
	require.Len(t, movs, 2, "2 al lote B y 3 a un lote nuevo")
	assert.True(t, movs[0].QuantityDelta.Equal(d(2)))
	assert.True(t, movs[1].QuantityDelta.Equal(d(3)))
	assert.NotEqual(t, b.ID, movs[1].LotID)

	nuevo, err := f.ledger.GetLot(ctx, movs[1].LotID)
	require.NoError(t, err)
	require.NotNil(t, nuevo.ExpiresAt, "el lote de devolución hereda el vencimiento")
	assert.True(t, nuevo.ExpiresAt.Equal(*date(2025, 6, 1)))

	assert.True(t, f.onHand(t, bodegaCentral, itemX.ID).Equal(d(13)))
	f.consistent(t, bodegaCentral, itemX.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestReceiveLot_CodigoConsecutivoYValidaciones(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	first := f.receiveLot(t, bodegaCentral, "", 4, date(2025, 3, 1))
	second := f.receiveLot(t, bodegaCentral, "", 4, nil)
	assert.Equal(t, "LOTE-2024-12-0001", first.Code)
	assert.Equal(t, "LOTE-2024-12-0002", second.Code)

	_, err := f.ledger.ReceiveLot(ctx, inventory.ReceiveLotInput{
		WarehouseID: bodegaCentral, ItemID: itemX.ID, Code: first.Code, Quantity: d(1),
	})
	assert.True(t, errors.Is(err, domain.ErrConflict), "código de lote duplicado")

	_, err = f.ledger.ReceiveLot(ctx, inventory.ReceiveLotInput{
		WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(1), ExpiresAt: date(2024, 11, 1),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "vencimiento en el pasado")

	_, err = f.ledger.ReceiveLot(ctx, inventory.ReceiveLotInput{
		WarehouseID: bodegaCentral, ItemID: itemY.ID, Quantity: d(1),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "el ítem no maneja lotes")
}

func TestWithdrawLot_SacaElSaldoRestante(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a := f.receiveLot(t, bodegaCentral, "A", 5, date(2025, 1, 1))
	f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))

	_, err := f.ledger.WithdrawLot(ctx, a.ID, "", "supervisor")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "el motivo es obligatorio")

	got, err := f.ledger.WithdrawLot(ctx, a.ID, "recall del proveedor", "supervisor")
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusWithdrawn, got.Status)
	assert.True(t, f.onHand(t, bodegaCentral, itemX.ID).Equal(d(10)))

	_, err = f.ledger.WithdrawLot(ctx, a.ID, "otra vez", "supervisor")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	f.consistent(t, bodegaCentral, itemX.ID)
}

func TestReceiveLot_VenceHoySigueSiendoConsumible(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	hoy := f.receiveLot(t, bodegaCentral, "HOY", 3, date(2024, 12, 1))
	assert.Equal(t, entity.LotStatusActive, hoy.Status, "el día del vencimiento el lote es válido")

	plan, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(1)})
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, hoy.ID, plan[0].LotID)

	n, err := f.ledger.MarkExpiredLots(ctx, bodegaCentral)
	require.NoError(t, err)
	assert.Zero(t, n)
	f.consistent(t, bodegaCentral, itemX.ID)
}

func TestConsumeFIFO_VencimientoExactoEnAhora(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	exacto := now
	l := f.receiveLot(t, bodegaCentral, "EXACTO", 4, &exacto)

	_, err := f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(1)})
	require.NoError(t, err, "vencer a la hora actual no vence el lote antes de terminar el día")

	// Al día siguiente ya no es consumible.
	now = now.AddDate(0, 0, 1)
	defer func() { now = now.AddDate(0, 0, -1) }()

	_, err = f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(1)})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	n, err := f.ledger.MarkExpiredLots(ctx, bodegaCentral)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := f.ledger.GetLot(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LotStatusExpired, got.Status)
	assert.True(t, got.QuantityRemaining.Equal(d(3)))
}

func TestMarkExpiredLots_YResumen(t *testing.T) {
	f := newFixture(t, inventory.DefaultPolicy())
	a := f.receiveLot(t, bodegaCentral, "A", 5, date(2024, 12, 10))
	f.receiveLot(t, bodegaCentral, "B", 10, date(2025, 6, 1))

	expiring, err := f.ledger.ExpiringLots(ctx, bodegaCentral, 15)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, a.ID, expiring[0].ID)

	// Pasado el vencimiento de A.
	now = now.AddDate(0, 0, 20)
	defer func() { now = now.AddDate(0, 0, -20) }()

	n, err := f.ledger.MarkExpiredLots(ctx, bodegaCentral)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sum, err := f.ledger.LotSummary(ctx, bodegaCentral)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Active)
	assert.Equal(t, 1, sum.Expired)
	assert.True(t, sum.ActiveValue.Equal(d(30000)))

	// El lote vencido ya no es consumible por FIFO.
	_, err = f.ledger.ConsumeFIFO(ctx, inventory.ConsumeInput{WarehouseID: bodegaCentral, ItemID: itemX.ID, Quantity: d(12)})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}
