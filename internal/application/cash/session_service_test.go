package cash_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/application/cash"
	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/lock"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/memory"
)

var (
	ctx = context.Background()
	now = time.Date(2024, 12, 1, 18, 0, 0, 0, time.UTC)
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type closedRecorder struct {
	mu       sync.Mutex
	closed   []bool
	byOp     map[string]int
	events   []entity.Event
	reported int
}

func (r *closedRecorder) CashSessionClosed(balanced bool, _ decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, balanced)
}

func (r *closedRecorder) OperationDone(op string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byOp == nil {
		r.byOp = map[string]int{}
	}
	r.byOp[op]++
}

func (r *closedRecorder) Publish(_ context.Context, events ...entity.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *closedRecorder) CashClosingReport(_ context.Context, s *entity.CashSession, entries []*entity.CashEntry) ([]byte, error) {
	r.reported = len(entries)
	return []byte("%PDF-" + s.ID), nil
}

func newService(t *testing.T) (*cash.SessionService, *closedRecorder) {
	t.Helper()
	rec := &closedRecorder{}
	svc := cash.NewSessionService(cash.Deps{
		Tx:               memory.NewStore(),
		Locker:           lock.NewKeyedMutex(),
		Events:           rec,
		Metrics:          rec,
		Reports:          rec,
		Logger:           zerolog.Nop(),
		DefaultTolerance: d(1000),
		Now:              func() time.Time { return now },
	})
	return svc, rec
}

func open(t *testing.T, svc *cash.SessionService, registerID string) *entity.CashSession {
	t.Helper()
	cs, err := svc.Open(ctx, cash.OpenSessionInput{
		Name: "Turno tarde", Responsible: "Laura", RegisterID: registerID,
		OpeningFloatByMethod: map[string]decimal.Decimal{"efectivo": d(50000)},
		OpenedBy:             "laura",
	})
	require.NoError(t, err)
	return cs
}

// ──────────────────────────────────────────────────────────────────────────────
// Cuadre de caja
// ──────────────────────────────────────────────────────────────────────────────

func TestCashSession_CuadreExacto(t *testing.T) {
	svc, rec := newService(t)
	cs := open(t, svc, "caja-1")

	_, err := svc.PostSale(ctx, cash.SaleInput{SessionID: cs.ID, Method: "efectivo", Amount: d(120000), ReferenceID: "factura-1"})
	require.NoError(t, err)
	_, err = svc.PostExpense(ctx, cash.ExpenseInput{SessionID: cs.ID, Category: "proveedores", Method: "efectivo", Amount: d(20000), PaidFromCash: true})
	require.NoError(t, err)

	closed, err := svc.Close(ctx, cash.CloseInput{SessionID: cs.ID, DeclaredCash: d(150000), ClosedBy: "laura"})
	require.NoError(t, err)
	assert.Equal(t, entity.CashSessionPendingReview, closed.Status)
	assert.True(t, closed.ExpectedCash.Equal(d(150000)), "esperado: %s", closed.ExpectedCash)
	assert.True(t, closed.Difference.IsZero())
	assert.True(t, closed.Balanced)
	assert.Equal(t, []bool{true}, rec.closed)
	require.Len(t, rec.events, 1)
	assert.Equal(t, entity.EventCashSessionClosed, rec.events[0].Type)
}

func TestCashSession_GastoNoPagadoDeCajaNoAfectaEfectivo(t *testing.T) {
	svc, _ := newService(t)
	cs := open(t, svc, "caja-1")

	_, err := svc.PostSale(ctx, cash.SaleInput{SessionID: cs.ID, Method: "tarjeta", Amount: d(80000)})
	require.NoError(t, err)
	_, err = svc.PostExpense(ctx, cash.ExpenseInput{SessionID: cs.ID, Category: "servicios", Method: "efectivo", Amount: d(30000)})
	require.NoError(t, err)
	_, err = svc.PostIncome(ctx, cash.IncomeInput{SessionID: cs.ID, Category: "propinas", Method: "efectivo", Amount: d(5000)})
	require.NoError(t, err)

	closed, err := svc.Close(ctx, cash.CloseInput{SessionID: cs.ID, DeclaredCash: d(53000)})
	require.NoError(t, err)
	assert.True(t, closed.ExpectedCash.Equal(d(55000)))
	assert.True(t, closed.Difference.Equal(d(-2000)))
	assert.False(t, closed.Balanced, "2000 excede la tolerancia de 1000")
	assert.True(t, closed.ExpensesByType.Get("servicios").Equal(d(30000)), "el gasto queda para el reporte")
	assert.True(t, closed.TotalSales().Equal(d(80000)))
}

func TestCashSession_ResultadoNoDependeDelOrden(t *testing.T) {
	post := func(svc *cash.SessionService, id string, order []int) *entity.CashSession {
		steps := []func(){
			func() { _, _ = svc.PostSale(ctx, cash.SaleInput{SessionID: id, Method: "efectivo", Amount: d(10000)}) },
			func() {
				_, _ = svc.PostExpense(ctx, cash.ExpenseInput{SessionID: id, Method: "efectivo", Amount: d(3000), PaidFromCash: true})
			},
			func() { _, _ = svc.PostIncome(ctx, cash.IncomeInput{SessionID: id, Method: "efectivo", Amount: d(700)}) },
			func() { _, _ = svc.PostSale(ctx, cash.SaleInput{SessionID: id, Method: "transferencia", Amount: d(9000)}) },
		}
		for _, i := range order {
			steps[i]()
		}
		cs, err := svc.Close(ctx, cash.CloseInput{SessionID: id, DeclaredCash: d(57700)})
		require.NoError(t, err)
		return cs
	}

	svcA, _ := newService(t)
	a := post(svcA, open(t, svcA, "caja-a").ID, []int{0, 1, 2, 3})
	svcB, _ := newService(t)
	b := post(svcB, open(t, svcB, "caja-b").ID, []int{3, 2, 1, 0})

	assert.True(t, a.ExpectedCash.Equal(b.ExpectedCash))
	assert.True(t, a.ExpectedCash.Equal(d(57700)))
	assert.True(t, a.Balanced && b.Balanced)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados
// ──────────────────────────────────────────────────────────────────────────────

func TestCashSession_RegistrosEnSesionCerrada(t *testing.T) {
	svc, _ := newService(t)
	cs := open(t, svc, "caja-1")
	_, err := svc.Close(ctx, cash.CloseInput{SessionID: cs.ID, DeclaredCash: d(50000)})
	require.NoError(t, err)

	_, err = svc.PostSale(ctx, cash.SaleInput{SessionID: cs.ID, Method: "efectivo", Amount: d(1000)})
	assert.True(t, errors.Is(err, domain.ErrSessionNotOpen))
	_, err = svc.PostExpense(ctx, cash.ExpenseInput{SessionID: cs.ID, Method: "efectivo", Amount: d(1000)})
	assert.True(t, errors.Is(err, domain.ErrSessionNotOpen))
	_, err = svc.AddCashier(ctx, cs.ID, "pedro")
	assert.True(t, errors.Is(err, domain.ErrSessionNotOpen))
	_, err = svc.Close(ctx, cash.CloseInput{SessionID: cs.ID, DeclaredCash: d(50000)})
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))

	entries, err := svc.Entries(ctx, cs.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCashSession_RevisionDelSupervisor(t *testing.T) {
	svc, rec := newService(t)
	cs := open(t, svc, "caja-1")

	_, err := svc.Approve(ctx, cs.ID, "supervisor")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "no se aprueba una sesión abierta")

	_, err = svc.Close(ctx, cash.CloseInput{SessionID: cs.ID, DeclaredCash: d(40000)})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, cs.ID, "supervisor", " ")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "el motivo es obligatorio")

	rejected, err := svc.Reject(ctx, cs.ID, "supervisor", "faltante sin justificar")
	require.NoError(t, err)
	assert.Equal(t, entity.CashSessionRejected, rejected.Status)
	assert.Equal(t, "supervisor", rejected.ReviewedBy)

	_, err = svc.Approve(ctx, cs.ID, "supervisor")
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition))
	assert.Equal(t, 1, rec.byOp["cash_reject"], "el rechazo sin motivo se descarta antes de la transacción")
}

func TestCashSession_UnaSesionAbiertaPorCaja(t *testing.T) {
	svc, _ := newService(t)
	first := open(t, svc, "caja-1")

	_, err := svc.Open(ctx, cash.OpenSessionInput{Name: "Turno noche", Responsible: "Pedro", RegisterID: "caja-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSessionAlreadyOpen))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	active, err := svc.ActiveByRegister(ctx, "caja-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	// Otra caja sí puede abrir.
	open(t, svc, "caja-2")

	// Cerrada la primera, la caja queda libre.
	_, err = svc.Close(ctx, cash.CloseInput{SessionID: first.ID, DeclaredCash: d(50000)})
	require.NoError(t, err)
	_, err = svc.ActiveByRegister(ctx, "caja-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	open(t, svc, "caja-1")

	all, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	pending, err := svc.List(ctx, entity.CashSessionPendingReview, 10, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCashSession_Validaciones(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Open(ctx, cash.OpenSessionInput{Responsible: "Laura"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "nombre requerido")

	_, err = svc.Open(ctx, cash.OpenSessionInput{
		Name: "Turno", Responsible: "Laura",
		OpeningFloatByMethod: map[string]decimal.Decimal{"efectivo": d(-1)},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "base negativa")

	cs := open(t, svc, "")
	_, err = svc.PostSale(ctx, cash.SaleInput{SessionID: cs.ID, Method: "efectivo", Amount: d(0)})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "monto cero")

	_, err = svc.PostSale(ctx, cash.SaleInput{SessionID: "no-existe", Method: "efectivo", Amount: d(10)})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCashSession_CajerosYReporte(t *testing.T) {
	svc, rec := newService(t)
	cs := open(t, svc, "caja-1")

	_, err := svc.AddCashier(ctx, cs.ID, "pedro")
	require.NoError(t, err)
	got, err := svc.AddCashier(ctx, cs.ID, "pedro")
	require.NoError(t, err)
	assert.Equal(t, []string{"pedro"}, got.Cashiers)

	_, err = svc.ClosingReport(ctx, cs.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidStateTransition), "sin cierre no hay reporte")

	_, err = svc.PostSale(ctx, cash.SaleInput{SessionID: cs.ID, Method: "cash", Amount: d(1000)})
	require.NoError(t, err)
	_, err = svc.Close(ctx, cash.CloseInput{SessionID: cs.ID, DeclaredCash: d(51000)})
	require.NoError(t, err)

	pdf, err := svc.ClosingReport(ctx, cs.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, 1, rec.reported)
}
