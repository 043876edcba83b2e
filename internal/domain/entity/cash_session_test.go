package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

var now = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func openSession() *entity.CashSession {
	return entity.NewCashSession("S1", "Turno tarde", "Ana", "CAJA-01",
		entity.Amounts{"EFECTIVO ": d(50000)}, d(1000), now)
}

func TestCashSession_CierreCuadrado(t *testing.T) {
	s := openSession()
	s.Apply(&entity.CashEntry{Kind: entity.CashEntrySale, Method: entity.MethodCash, Amount: d(120000)})
	s.Apply(&entity.CashEntry{Kind: entity.CashEntryExpense, Method: entity.MethodCash, Category: "insumos", Amount: d(20000), PaidFromCash: true})

	require.NoError(t, s.Close(d(150000), "Ana", now))

	assert.Equal(t, entity.CashSessionPendingReview, s.Status)
	assert.True(t, s.ExpectedCash.Equal(d(150000)), "esperado = 50000 + 120000 - 20000")
	assert.True(t, s.Difference.IsZero())
	assert.True(t, s.Balanced)
}

func TestCashSession_GastoNoPagadoDesdeCajaNoAfectaEsperado(t *testing.T) {
	s := openSession()
	s.Apply(&entity.CashEntry{Kind: entity.CashEntryExpense, Method: entity.MethodCash, Category: "servicios", Amount: d(30000), PaidFromCash: false})
	s.Apply(&entity.CashEntry{Kind: entity.CashEntrySale, Method: entity.MethodCard, Amount: d(80000)})
	s.Apply(&entity.CashEntry{Kind: entity.CashEntryIncome, Method: entity.MethodCash, Category: "propinas", Amount: d(5000)})

	assert.True(t, s.ComputeExpectedCash().Equal(d(55000)))
	assert.True(t, s.ExpensesByType.Get("servicios").Equal(d(30000)), "se reporta igual por tipo")
	assert.True(t, s.TotalSales().Equal(d(80000)))
}

func TestCashSession_FueraDeTolerancia(t *testing.T) {
	s := openSession()
	require.NoError(t, s.Close(d(48500), "Ana", now))

	assert.True(t, s.Difference.Equal(d(-1500)))
	assert.False(t, s.Balanced, "|diferencia| > tolerancia")
}

func TestCashSession_TransicionesInvalidas(t *testing.T) {
	s := openSession()
	err := s.Approve("sup", now)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "no se aprueba una sesión abierta")

	require.NoError(t, s.Close(d(50000), "Ana", now))
	err = s.Close(d(1), "Ana", now)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "el cierre ocurre una sola vez")
	assert.True(t, s.DeclaredCash.Equal(d(50000)), "lo congelado en el cierre no cambia")

	require.NoError(t, s.Reject("sup", "faltante", now))
	assert.True(t, errors.Is(s.Approve("sup", now), domain.ErrInvalidStateTransition))
}

func TestNormalizeMethod(t *testing.T) {
	assert.Equal(t, entity.MethodCash, entity.NormalizeMethod(" Efectivo"))
	assert.Equal(t, entity.MethodCard, entity.NormalizeMethod("TARJETA"))
	assert.Equal(t, entity.MethodOther, entity.NormalizeMethod("bono regalo"))
}
