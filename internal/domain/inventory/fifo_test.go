package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/inventory"
)

var now = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func lot(id string, qty int64, expires *time.Time, received time.Time) *entity.Lot {
	q := decimal.NewFromInt(qty)
	return &entity.Lot{
		ID: id, Code: id, ItemID: "X", WarehouseID: "W1",
		QuantityInitial: q, QuantityRemaining: q,
		ExpiresAt: expires, ReceivedAt: received, Status: entity.LotStatusActive,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden FIFO por vencimiento
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanFIFO_ConsumeLoteQueVencePrimero(t *testing.T) {
	a := lot("A", 5, date(2025, 1, 1), now.AddDate(0, -1, 0))
	b := lot("B", 10, date(2025, 6, 1), now.AddDate(0, -2, 0))

	plan, err := inventory.PlanFIFO([]*entity.Lot{b, a}, decimal.NewFromInt(7), now)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, "A", plan[0].LotID, "el lote A vence primero")
	assert.True(t, plan[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "B", plan[1].LotID)
	assert.True(t, plan[1].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestPlanFIFO_LoteSinVencimientoVaAlFinal(t *testing.T) {
	sinFecha := lot("N", 10, nil, now.AddDate(-1, 0, 0))
	conFecha := lot("E", 3, date(2026, 1, 1), now)

	plan, err := inventory.PlanFIFO([]*entity.Lot{sinFecha, conFecha}, decimal.NewFromInt(3), now)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "E", plan[0].LotID, "no se toma un lote sin vencimiento mientras exista uno con fecha")
}

func TestPlanFIFO_EmpateDeVencimientoUsaFechaDeRecepcion(t *testing.T) {
	exp := date(2025, 3, 1)
	nuevo := lot("NUEVO", 4, exp, now.AddDate(0, 0, -1))
	viejo := lot("VIEJO", 4, exp, now.AddDate(0, 0, -10))

	plan, err := inventory.PlanFIFO([]*entity.Lot{nuevo, viejo}, decimal.NewFromInt(2), now)
	require.NoError(t, err)
	assert.Equal(t, "VIEJO", plan[0].LotID)
}

func TestPlanFIFO_ExcluyeVencidosAgotadosYRetirados(t *testing.T) {
	vencido := lot("V", 10, date(2024, 11, 1), now.AddDate(0, -3, 0))
	agotado := lot("D", 0, date(2025, 1, 1), now)
	agotado.Status = entity.LotStatusDepleted
	retirado := lot("R", 10, date(2025, 1, 1), now)
	retirado.Status = entity.LotStatusWithdrawn
	activo := lot("OK", 2, date(2025, 2, 1), now)

	lots := []*entity.Lot{vencido, agotado, retirado, activo}
	assert.True(t, inventory.AvailableInLots(lots, now).Equal(decimal.NewFromInt(2)))

	_, err := inventory.PlanFIFO(lots, decimal.NewFromInt(3), now)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

// ──────────────────────────────────────────────────────────────────────────────
// Todo o nada
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanFIFO_StockInsuficienteNoModificaLotes(t *testing.T) {
	a := lot("A", 5, date(2025, 1, 1), now)
	b := lot("B", 10, date(2025, 6, 1), now)

	plan, err := inventory.PlanFIFO([]*entity.Lot{a, b}, decimal.NewFromInt(100), now)
	assert.Nil(t, plan)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.True(t, a.QuantityRemaining.Equal(decimal.NewFromInt(5)), "el plan nunca modifica los lotes")
	assert.True(t, b.QuantityRemaining.Equal(decimal.NewFromInt(10)))
}

func TestPlanFIFO_CantidadCeroEsInvalida(t *testing.T) {
	_, err := inventory.PlanFIFO(nil, decimal.Zero, now)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestMostRecentlyDepleted(t *testing.T) {
	a := lot("A", 0, nil, now)
	a.Status, a.UpdatedAt = entity.LotStatusDepleted, now.Add(-time.Hour)
	b := lot("B", 0, nil, now)
	b.Status, b.UpdatedAt = entity.LotStatusDepleted, now
	c := lot("C", 3, nil, now)

	got := inventory.MostRecentlyDepleted([]*entity.Lot{a, b, c})
	require.NotNil(t, got)
	assert.Equal(t, "B", got.ID)
	assert.Nil(t, inventory.MostRecentlyDepleted([]*entity.Lot{c}))
}

func TestNextLotCode(t *testing.T) {
	assert.Equal(t, "LOTE-2024-12-0001", inventory.NextLotCode(now, 0))
	assert.Equal(t, "LOTE-2024-12-0043", inventory.NextLotCode(now, 42))
}
