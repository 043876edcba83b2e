package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashSessionStatus estado de una sesión (cuadre) de caja.
type CashSessionStatus string

const (
	CashSessionOpen          CashSessionStatus = "OPEN"
	CashSessionPendingReview CashSessionStatus = "PENDING_REVIEW"
	CashSessionApproved      CashSessionStatus = "APPROVED"
	CashSessionRejected      CashSessionStatus = "REJECTED"
)

// IsTerminal indica si el estado ya no admite transiciones.
func (s CashSessionStatus) IsTerminal() bool {
	return s == CashSessionApproved || s == CashSessionRejected
}

// CashEntryKind tipo de registro contable de la sesión.
type CashEntryKind string

const (
	CashEntrySale    CashEntryKind = "SALE"
	CashEntryExpense CashEntryKind = "EXPENSE"
	CashEntryIncome  CashEntryKind = "INCOME"
)

// CashEntry registro inmutable de un flujo de caja; los acumulados de la sesión son su suma.
type CashEntry struct {
	ID           string
	SessionID    string
	Kind         CashEntryKind
	Method       string
	Category     string
	Amount       decimal.Decimal
	PaidFromCash bool
	ReferenceID  string
	Actor        string
	CreatedAt    time.Time
}

// Amounts acumulado por clave (forma de pago o categoría).
type Amounts map[string]decimal.Decimal

// Get devuelve el acumulado o cero.
func (a Amounts) Get(key string) decimal.Decimal {
	if v, ok := a[key]; ok {
		return v
	}
	return decimal.Zero
}

func (a Amounts) add(key string, amount decimal.Decimal) {
	a[key] = a.Get(key).Add(amount)
}

// Total suma todas las claves.
func (a Amounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a {
		total = total.Add(v)
	}
	return total
}

func (a Amounts) clone() Amounts {
	c := make(Amounts, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// CashSession ventana acotada de actividad de una caja registradora.
type CashSession struct {
	ID          string
	Name        string
	Responsible string
	RegisterID  string // identificación de la máquina; a lo sumo una sesión OPEN por caja
	Cashiers    []string
	Status      CashSessionStatus

	OpeningFloatByMethod     Amounts
	SalesByMethod            Amounts
	ExpensesByType           Amounts
	ExpensesByMethod         Amounts
	CashPaidExpensesByMethod Amounts // solo gastos pagados desde la caja
	ManualIncomeByType       Amounts
	ManualIncomeByMethod     Amounts

	Tolerance    decimal.Decimal
	DeclaredCash *decimal.Decimal
	ExpectedCash decimal.Decimal
	Difference   decimal.Decimal
	Balanced     bool

	Notes           string
	OpenedBy        string
	ClosedBy        string
	ReviewedBy      string
	RejectionReason string
	OpenedAt        time.Time
	ClosedAt        *time.Time
	ReviewedAt      *time.Time
	Version         int
}

// NewCashSession crea una sesión OPEN con acumulados en cero.
func NewCashSession(id, name, responsible, registerID string, openingFloat Amounts, tolerance decimal.Decimal, now time.Time) *CashSession {
	floats := Amounts{}
	for method, amount := range openingFloat {
		floats.add(NormalizeMethod(method), amount)
	}
	return &CashSession{
		ID:                       id,
		Name:                     name,
		Responsible:              responsible,
		RegisterID:               registerID,
		Status:                   CashSessionOpen,
		OpeningFloatByMethod:     floats,
		SalesByMethod:            Amounts{},
		ExpensesByType:           Amounts{},
		ExpensesByMethod:         Amounts{},
		CashPaidExpensesByMethod: Amounts{},
		ManualIncomeByType:       Amounts{},
		ManualIncomeByMethod:     Amounts{},
		Tolerance:                tolerance,
		OpenedAt:                 now,
	}
}

// IsOpen indica si la sesión acepta registros.
func (s *CashSession) IsOpen() bool { return s.Status == CashSessionOpen }

// Apply suma un registro a los acumulados. El llamador valida que la sesión esté OPEN.
func (s *CashSession) Apply(e *CashEntry) {
	switch e.Kind {
	case CashEntrySale:
		s.SalesByMethod.add(e.Method, e.Amount)
	case CashEntryExpense:
		s.ExpensesByType.add(e.Category, e.Amount)
		s.ExpensesByMethod.add(e.Method, e.Amount)
		if e.PaidFromCash {
			s.CashPaidExpensesByMethod.add(e.Method, e.Amount)
		}
	case CashEntryIncome:
		s.ManualIncomeByType.add(e.Category, e.Amount)
		s.ManualIncomeByMethod.add(e.Method, e.Amount)
	}
}

// ComputeExpectedCash efectivo esperado en la caja a partir de los acumulados.
func (s *CashSession) ComputeExpectedCash() decimal.Decimal {
	return s.OpeningFloatByMethod.Get(MethodCash).
		Add(s.SalesByMethod.Get(MethodCash)).
		Add(s.ManualIncomeByMethod.Get(MethodCash)).
		Sub(s.CashPaidExpensesByMethod.Get(MethodCash))
}

// Close transición OPEN -> PENDING_REVIEW; es el único punto donde se recalculan y congelan
// esperado, diferencia y cuadre.
func (s *CashSession) Close(declared decimal.Decimal, closedBy string, now time.Time) error {
	if s.Status != CashSessionOpen {
		return invalidTransition("sesión de caja", string(s.Status), "cerrar")
	}
	s.DeclaredCash = &declared
	s.ExpectedCash = s.ComputeExpectedCash()
	s.Difference = declared.Sub(s.ExpectedCash)
	s.Balanced = s.Difference.Abs().LessThanOrEqual(s.Tolerance)
	s.Status = CashSessionPendingReview
	s.ClosedBy = closedBy
	s.ClosedAt = &now
	return nil
}

// Approve transición PENDING_REVIEW -> APPROVED.
func (s *CashSession) Approve(supervisor string, now time.Time) error {
	if s.Status != CashSessionPendingReview {
		return invalidTransition("sesión de caja", string(s.Status), "aprobar")
	}
	s.Status = CashSessionApproved
	s.ReviewedBy = supervisor
	s.ReviewedAt = &now
	return nil
}

// Reject transición PENDING_REVIEW -> REJECTED. No reabre la sesión.
func (s *CashSession) Reject(supervisor, reason string, now time.Time) error {
	if s.Status != CashSessionPendingReview {
		return invalidTransition("sesión de caja", string(s.Status), "rechazar")
	}
	s.Status = CashSessionRejected
	s.ReviewedBy = supervisor
	s.RejectionReason = reason
	s.ReviewedAt = &now
	return nil
}

// HasCashier indica si el cajero ya está asignado.
func (s *CashSession) HasCashier(name string) bool {
	for _, c := range s.Cashiers {
		if c == name {
			return true
		}
	}
	return false
}

// TotalSales ventas de todas las formas de pago.
func (s *CashSession) TotalSales() decimal.Decimal { return s.SalesByMethod.Total() }

// TotalExpenses gastos de todas las formas de pago.
func (s *CashSession) TotalExpenses() decimal.Decimal { return s.ExpensesByMethod.Total() }

// TotalIncome ingresos manuales de todas las formas de pago.
func (s *CashSession) TotalIncome() decimal.Decimal { return s.ManualIncomeByMethod.Total() }

// Clone copia profunda.
func (s *CashSession) Clone() *CashSession {
	c := *s
	c.Cashiers = append([]string(nil), s.Cashiers...)
	c.OpeningFloatByMethod = s.OpeningFloatByMethod.clone()
	c.SalesByMethod = s.SalesByMethod.clone()
	c.ExpensesByType = s.ExpensesByType.clone()
	c.ExpensesByMethod = s.ExpensesByMethod.clone()
	c.CashPaidExpensesByMethod = s.CashPaidExpensesByMethod.clone()
	c.ManualIncomeByType = s.ManualIncomeByType.clone()
	c.ManualIncomeByMethod = s.ManualIncomeByMethod.clone()
	if s.DeclaredCash != nil {
		d := *s.DeclaredCash
		c.DeclaredCash = &d
	}
	c.ClosedAt = cloneTime(s.ClosedAt)
	c.ReviewedAt = cloneTime(s.ReviewedAt)
	return &c
}
