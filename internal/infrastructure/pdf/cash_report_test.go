package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/pdf"
)

func closedSession(t *testing.T) (*entity.CashSession, []*entity.CashEntry) {
	t.Helper()
	opened := time.Date(2024, 12, 1, 13, 0, 0, 0, time.UTC)
	s := entity.NewCashSession("S-1", "Turno mañana", "Ana", "CAJA-1",
		entity.Amounts{"efectivo": decimal.NewFromInt(100000)}, decimal.NewFromInt(1000), opened)
	s.Cashiers = []string{"Ana", "Luis"}
	s.OpenedBy = "u-cajero"

	entries := []*entity.CashEntry{
		{ID: "E1", SessionID: s.ID, Kind: entity.CashEntrySale, Method: "efectivo", Amount: decimal.NewFromInt(50000), CreatedAt: opened.Add(time.Hour)},
		{ID: "E2", SessionID: s.ID, Kind: entity.CashEntrySale, Method: "tarjeta", Amount: decimal.NewFromInt(80000), CreatedAt: opened.Add(2 * time.Hour)},
		{ID: "E3", SessionID: s.ID, Kind: entity.CashEntryExpense, Method: "efectivo", Category: "insumos", Amount: decimal.NewFromInt(20000), PaidFromCash: true, CreatedAt: opened.Add(3 * time.Hour)},
		{ID: "E4", SessionID: s.ID, Kind: entity.CashEntryIncome, Method: "efectivo", Category: "propinas", Amount: decimal.RequireFromString("12345.5"), CreatedAt: opened.Add(4 * time.Hour)},
	}
	for _, e := range entries {
		s.Apply(e)
	}
	require.NoError(t, s.Close(decimal.NewFromInt(140000), "u-cajero", opened.Add(8*time.Hour)))
	return s, entries
}

func TestCashReport_GeneraPDF(t *testing.T) {
	s, entries := closedSession(t)
	bogota := time.FixedZone("COT", -5*3600)
	g := pdf.NewCashReportGenerator("inventario-caja", bogota)

	doc, err := g.CashClosingReport(context.Background(), s, entries)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "el documento empieza con la firma PDF")
	assert.Greater(t, len(doc), 1000)
}

func TestCashReport_SesionSinRegistros(t *testing.T) {
	opened := time.Date(2024, 12, 1, 13, 0, 0, 0, time.UTC)
	s := entity.NewCashSession("S-2", "Turno noche", "Luis", "", nil, decimal.Zero, opened)
	require.NoError(t, s.Close(decimal.Zero, "u-cajero", opened.Add(time.Hour)))

	doc, err := pdf.NewCashReportGenerator("inventario-caja", nil).CashClosingReport(context.Background(), s, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}
