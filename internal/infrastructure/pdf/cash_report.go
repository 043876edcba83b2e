// Package pdf genera el reporte de cuadre de una sesión de caja cerrada.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Nombre de la sesión + caja │ Estado + fechas        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Responsable / cajeros / apertura y cierre                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN POR FORMA DE PAGO: Base | Ventas | Gastos | Ingresos│
//	│  GASTOS E INGRESOS POR CATEGORÍA                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CUADRE: Esperado / Declarado / Diferencia / Tolerancia      │
//	│  DETALLE DE REGISTROS                                        │
//	│  FIRMAS: cierre y revisión                                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorOK      = &props.Color{Red: 20, Green: 120, Blue: 60}
)

var statusLabel = map[entity.CashSessionStatus]string{
	entity.CashSessionOpen:          "ABIERTA",
	entity.CashSessionPendingReview: "PENDIENTE DE REVISIÓN",
	entity.CashSessionApproved:      "APROBADA",
	entity.CashSessionRejected:      "RECHAZADA",
}

var entryLabel = map[entity.CashEntryKind]string{
	entity.CashEntrySale:    "Venta",
	entity.CashEntryExpense: "Gasto",
	entity.CashEntryIncome:  "Ingreso",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// CashReportGenerator implementa cash.ReportGenerator con Maroto v2.
type CashReportGenerator struct {
	appName string
	loc     *time.Location
	printer *message.Printer
}

// NewCashReportGenerator construye el generador; fechas en loc (UTC si es nil) y montos en es-CO.
func NewCashReportGenerator(appName string, loc *time.Location) *CashReportGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &CashReportGenerator{
		appName: appName,
		loc:     loc,
		printer: message.NewPrinter(language.MustParse("es-CO")),
	}
}

// CashClosingReport genera el PDF del cuadre y devuelve sus bytes.
func (g *CashReportGenerator) CashClosingReport(_ context.Context, s *entity.CashSession, entries []*entity.CashEntry) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Cuadre de caja "+s.Name, true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.sessionRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("RESUMEN POR FORMA DE PAGO"))
	m.AddRows(tableHeader([]string{"Forma de pago", "Base", "Ventas", "Gastos", "Ingresos"}, []int{4, 2, 2, 2, 2}))
	m.AddRows(g.methodRows(s)...)

	if len(s.ExpensesByType) > 0 || len(s.ManualIncomeByType) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle("GASTOS E INGRESOS POR CATEGORÍA"))
		m.AddRows(tableHeader([]string{"Categoría", "Gastos", "Ingresos"}, []int{6, 3, 3}))
		m.AddRows(g.categoryRows(s)...)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.reconciliationRow(s))

	if len(entries) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(sectionTitle(fmt.Sprintf("DETALLE DE REGISTROS (%d)", len(entries))))
		m.AddRows(tableHeader([]string{"Hora", "Tipo", "Forma de pago", "Categoría", "Monto"}, []int{2, 2, 3, 3, 2}))
		m.AddRows(g.entryRows(entries)...)
	}

	m.AddRows(line.NewRow(10))
	m.AddRows(g.signatureRow(s))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar cuadre de caja: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *CashReportGenerator) headerRow(s *entity.CashSession) core.Row {
	register := "Caja: " + nonEmpty(s.RegisterID, "—")
	closed := "—"
	if s.ClosedAt != nil {
		closed = g.datetime(*s.ClosedAt)
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(s.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(register, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("CUADRE DE CAJA", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(statusLabel[s.Status], string(s.Status)), props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 6}),
			text.New("Cierre: "+closed, props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

func (g *CashReportGenerator) sessionRow(s *entity.CashSession) core.Row {
	cashiers := "—"
	if len(s.Cashiers) > 0 {
		cashiers = strings.Join(s.Cashiers, ", ")
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("Responsable: "+s.Responsible, props.Text{Style: fontstyle.Bold, Size: 10, Top: 1}),
			text.New(fmt.Sprintf("Cajeros: %s   |   Apertura: %s por %s",
				cashiers, g.datetime(s.OpenedAt), nonEmpty(s.OpenedBy, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func (g *CashReportGenerator) methodRows(s *entity.CashSession) []core.Row {
	methods := keys(s.OpeningFloatByMethod, s.SalesByMethod, s.ExpensesByMethod, s.ManualIncomeByMethod)
	rows := make([]core.Row, 0, len(methods)+1)
	for _, method := range methods {
		rows = append(rows, g.amountRow([]int{4, 2, 2, 2, 2}, method,
			s.OpeningFloatByMethod.Get(method), s.SalesByMethod.Get(method),
			s.ExpensesByMethod.Get(method), s.ManualIncomeByMethod.Get(method)))
	}
	rows = append(rows, g.amountRow([]int{4, 2, 2, 2, 2}, "TOTAL",
		s.OpeningFloatByMethod.Total(), s.TotalSales(), s.TotalExpenses(), s.TotalIncome()))
	return rows
}

func (g *CashReportGenerator) categoryRows(s *entity.CashSession) []core.Row {
	cats := keys(s.ExpensesByType, s.ManualIncomeByType)
	rows := make([]core.Row, 0, len(cats))
	for _, cat := range cats {
		rows = append(rows, g.amountRow([]int{6, 3, 3}, cat, s.ExpensesByType.Get(cat), s.ManualIncomeByType.Get(cat)))
	}
	return rows
}

// reconciliationRow bloque de cuadre alineado a la derecha.
func (g *CashReportGenerator) reconciliationRow(s *entity.CashSession) core.Row {
	label := func(v string) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	declared := "—"
	if s.DeclaredCash != nil {
		declared = g.money(*s.DeclaredCash)
	}
	verdict, color := "CUADRADA", colorOK
	if !s.Balanced {
		verdict, color = "DESCUADRADA", colorDanger
	}
	return row.New(30).Add(
		col.New(3).Add(text.New(verdict, props.Text{Style: fontstyle.Bold, Size: 12, Color: color, Top: 10})),
		col.New(4).Add(
			label("Efectivo esperado:"),
			label("Efectivo declarado:"),
			label("Diferencia:"),
			label("Tolerancia:"),
		),
		col.New(3).Add(
			value(g.money(s.ExpectedCash)),
			value(declared),
			text.New(g.money(s.Difference), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 1, Color: color}),
			value(g.money(s.Tolerance)),
		),
		col.New(2),
	)
}

func (g *CashReportGenerator) entryRows(entries []*entity.CashEntry) []core.Row {
	rows := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		method := e.Method
		if e.Kind == entity.CashEntryExpense && e.PaidFromCash {
			method += " (caja)"
		}
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(e.CreatedAt.In(g.loc).Format("15:04"), props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(nonEmpty(entryLabel[e.Kind], string(e.Kind)), props.Text{Size: 8, Top: 1})),
			col.New(3).Add(text.New(method, props.Text{Size: 8, Top: 1})),
			col.New(3).Add(text.New(nonEmpty(e.Category, "—"), props.Text{Size: 8, Top: 1})),
			col.New(2).Add(text.New(g.money(e.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func (g *CashReportGenerator) signatureRow(s *entity.CashSession) core.Row {
	sig := func(title, who string) core.Col {
		return col.New(6).Add(
			text.New("______________________________", props.Text{Align: align.Center, Top: 4}),
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 10}),
			text.New(nonEmpty(who, " "), props.Text{Size: 8, Align: align.Center, Top: 14, Color: colorGray}),
		)
	}
	reviewed := s.ReviewedBy
	if s.ReviewedAt != nil {
		reviewed += " · " + g.datetime(*s.ReviewedAt)
	}
	return row.New(22).Add(sig("Cerró", s.ClosedBy), sig("Revisó", reviewed))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func sectionTitle(label string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

func tableHeader(labels []string, sizes []int) core.Row {
	cols := make([]core.Col, 0, len(labels))
	for i, l := range labels {
		a := align.Right
		if i == 0 {
			a = align.Left
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(l, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		})))
	}
	return row.New(8).Add(cols...).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func (g *CashReportGenerator) amountRow(sizes []int, label string, amounts ...decimal.Decimal) core.Row {
	style := props.Text{Size: 8, Top: 1, Left: 1}
	if label == "TOTAL" {
		style.Style = fontstyle.Bold
	}
	cols := []core.Col{col.New(sizes[0]).Add(text.New(label, style))}
	for i, a := range amounts {
		vs := style
		vs.Align = align.Right
		vs.Left, vs.Right = 0, 1
		cols = append(cols, col.New(sizes[i+1]).Add(text.New(g.money(a), vs)))
	}
	return row.New(6).Add(cols...)
}

// money formatea con separador de miles colombiano, sin decimales si el monto es entero.
func (g *CashReportGenerator) money(d decimal.Decimal) string {
	scale := 0
	if !d.Equal(d.Truncate(0)) {
		scale = 2
	}
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + "$" + g.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(scale)))
}

func (g *CashReportGenerator) datetime(t time.Time) string {
	return t.In(g.loc).Format("02/01/2006 15:04")
}

// keys une y ordena las claves de varios acumulados.
func keys(maps ...entity.Amounts) []string {
	seen := map[string]struct{}{}
	for _, m := range maps {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
