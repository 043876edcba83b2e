package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenCashSessionRequest body para POST /api/cash-sessions.
type OpenCashSessionRequest struct {
	Name                 string                     `json:"name" validate:"required,max=200"`
	Responsible          string                     `json:"responsible" validate:"required,max=200"`
	RegisterID           string                     `json:"register_id,omitempty" validate:"max=100"`
	Cashiers             []string                   `json:"cashiers,omitempty" validate:"dive,required"`
	OpeningFloatByMethod map[string]decimal.Decimal `json:"opening_float_by_method"`
	Tolerance            *decimal.Decimal           `json:"tolerance,omitempty"`
}

// AddCashierRequest body para POST /api/cash-sessions/:id/cashiers.
type AddCashierRequest struct {
	Cashier string `json:"cashier" validate:"required,max=200"`
}

// CashSaleRequest body para POST /api/cash-sessions/:id/sales.
type CashSaleRequest struct {
	Method      string          `json:"method" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
}

// CashExpenseRequest body para POST /api/cash-sessions/:id/expenses.
type CashExpenseRequest struct {
	Category     string          `json:"category" validate:"required,max=100"`
	Method       string          `json:"method" validate:"required"`
	Amount       decimal.Decimal `json:"amount"`
	PaidFromCash bool            `json:"paid_from_cash"`
	ReferenceID  string          `json:"reference_id,omitempty"`
}

// CashIncomeRequest body para POST /api/cash-sessions/:id/incomes.
type CashIncomeRequest struct {
	Category    string          `json:"category" validate:"required,max=100"`
	Method      string          `json:"method" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id,omitempty"`
}

// CloseCashSessionRequest body para POST /api/cash-sessions/:id/close.
type CloseCashSessionRequest struct {
	DeclaredCash decimal.Decimal `json:"declared_cash"`
	Notes        string          `json:"notes,omitempty" validate:"max=1000"`
}

// CashSessionResponse salida de una sesión de caja.
type CashSessionResponse struct {
	ID                       string                     `json:"id"`
	Name                     string                     `json:"name"`
	Responsible              string                     `json:"responsible"`
	RegisterID               string                     `json:"register_id,omitempty"`
	Cashiers                 []string                   `json:"cashiers"`
	Status                   string                     `json:"status"`
	OpeningFloatByMethod     map[string]decimal.Decimal `json:"opening_float_by_method"`
	SalesByMethod            map[string]decimal.Decimal `json:"sales_by_method"`
	ExpensesByType           map[string]decimal.Decimal `json:"expenses_by_type"`
	ExpensesByMethod         map[string]decimal.Decimal `json:"expenses_by_method"`
	CashPaidExpensesByMethod map[string]decimal.Decimal `json:"cash_paid_expenses_by_method"`
	ManualIncomeByType       map[string]decimal.Decimal `json:"manual_income_by_type"`
	ManualIncomeByMethod     map[string]decimal.Decimal `json:"manual_income_by_method"`
	TotalSales               decimal.Decimal            `json:"total_sales"`
	TotalExpenses            decimal.Decimal            `json:"total_expenses"`
	TotalIncome              decimal.Decimal            `json:"total_income"`
	Tolerance                decimal.Decimal            `json:"tolerance"`
	DeclaredCash             *decimal.Decimal           `json:"declared_cash,omitempty"`
	ExpectedCash             decimal.Decimal            `json:"expected_cash"`
	Difference               decimal.Decimal            `json:"difference"`
	Balanced                 bool                       `json:"balanced"`
	Notes                    string                     `json:"notes,omitempty"`
	OpenedBy                 string                     `json:"opened_by"`
	ClosedBy                 string                     `json:"closed_by,omitempty"`
	ReviewedBy               string                     `json:"reviewed_by,omitempty"`
	RejectionReason          string                     `json:"rejection_reason,omitempty"`
	OpenedAt                 time.Time                  `json:"opened_at"`
	ClosedAt                 *time.Time                 `json:"closed_at,omitempty"`
	ReviewedAt               *time.Time                 `json:"reviewed_at,omitempty"`
	Version                  int                        `json:"version"`
}

// CashSessionListResponse lista paginada de sesiones.
type CashSessionListResponse struct {
	Items []CashSessionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// CashEntryResponse registro de un flujo de caja.
type CashEntryResponse struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Method       string          `json:"method"`
	Category     string          `json:"category,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	PaidFromCash bool            `json:"paid_from_cash"`
	ReferenceID  string          `json:"reference_id,omitempty"`
	Actor        string          `json:"actor,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
