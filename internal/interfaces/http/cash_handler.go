package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-caja/internal/application/cash"
	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// CashHandler sesiones de caja: apertura, registros, cierre y revisión.
type CashHandler struct {
	svc *cash.SessionService
}

// NewCashHandler construye el handler.
func NewCashHandler(svc *cash.SessionService) *CashHandler {
	return &CashHandler{svc: svc}
}

// Open godoc
// @Summary      Abrir una sesión de caja
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenCashSessionRequest  true  "nombre, responsable, caja y base por forma de pago"
// @Success      201   {object}  dto.CashSessionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "ya hay una sesión abierta en la caja"
// @Router       /api/cash-sessions [post]
func (h *CashHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenCashSessionRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.Open(c.UserContext(), cash.OpenSessionInput{
		Name:                 in.Name,
		Responsible:          in.Responsible,
		RegisterID:           in.RegisterID,
		Cashiers:             in.Cashiers,
		OpeningFloatByMethod: in.OpeningFloatByMethod,
		Tolerance:            in.Tolerance,
		OpenedBy:             GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCashSessionResponse(cs))
}

// Get godoc
// @Summary      Obtener una sesión de caja
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sesión"
// @Success      200  {object}  dto.CashSessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{id} [get]
func (h *CashHandler) Get(c *fiber.Ctx) error {
	cs, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashSessionResponse(cs))
}

// Active godoc
// @Summary      Sesión abierta de una caja registradora
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        registerId  path  string  true  "Caja"
// @Success      200  {object}  dto.CashSessionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/active/{registerId} [get]
func (h *CashHandler) Active(c *fiber.Ctx) error {
	cs, err := h.svc.ActiveByRegister(c.UserContext(), c.Params("registerId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashSessionResponse(cs))
}

// List godoc
// @Summary      Listar sesiones de caja
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "OPEN | PENDING_REVIEW | APPROVED | REJECTED"
// @Param        limit   query  int     false  "Límite (máx 100)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.CashSessionListResponse
// @Router       /api/cash-sessions [get]
func (h *CashHandler) List(c *fiber.Ctx) error {
	p, e := page(c)
	if e != nil {
		return badRequest(c, e)
	}
	list, err := h.svc.List(c.UserContext(), entity.CashSessionStatus(c.Query("status")), p.Limit, p.Offset)
	if err != nil {
		return fail(c, err)
	}
	items := make([]dto.CashSessionResponse, 0, len(list))
	for _, cs := range list {
		items = append(items, toCashSessionResponse(cs))
	}
	return c.JSON(dto.CashSessionListResponse{Items: items, Page: dto.PageResponse{Limit: p.Limit, Offset: p.Offset}})
}

// Entries godoc
// @Summary      Registros de una sesión de caja
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sesión"
// @Success      200  {array}  dto.CashEntryResponse
// @Router       /api/cash-sessions/{id}/entries [get]
func (h *CashHandler) Entries(c *fiber.Ctx) error {
	list, err := h.svc.Entries(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashEntries(list))
}

// AddCashier godoc
// @Summary      Agregar un cajero a la sesión
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "Sesión"
// @Param        body  body  dto.AddCashierRequest  true  "cashier"
// @Success      200  {object}  dto.CashSessionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{id}/cashiers [post]
func (h *CashHandler) AddCashier(c *fiber.Ctx) error {
	var in dto.AddCashierRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.AddCashier(c.UserContext(), c.Params("id"), in.Cashier)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashSessionResponse(cs))
}

// Sale godoc
// @Summary      Registrar una venta
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Sesión"
// @Param        body  body  dto.CashSaleRequest  true  "method, amount"
// @Success      201  {object}  dto.CashSessionResponse
// @Failure      422  {object}  dto.ErrorResponse  "sesión no abierta"
// @Router       /api/cash-sessions/{id}/sales [post]
func (h *CashHandler) Sale(c *fiber.Ctx) error {
	var in dto.CashSaleRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.PostSale(c.UserContext(), cash.SaleInput{
		SessionID: c.Params("id"), Method: in.Method, Amount: in.Amount,
		ReferenceID: in.ReferenceID, Actor: GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCashSessionResponse(cs))
}

// Expense godoc
// @Summary      Registrar un gasto
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Sesión"
// @Param        body  body  dto.CashExpenseRequest  true  "category, method, amount, paid_from_cash"
// @Success      201  {object}  dto.CashSessionResponse
// @Failure      422  {object}  dto.ErrorResponse  "sesión no abierta"
// @Router       /api/cash-sessions/{id}/expenses [post]
func (h *CashHandler) Expense(c *fiber.Ctx) error {
	var in dto.CashExpenseRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.PostExpense(c.UserContext(), cash.ExpenseInput{
		SessionID: c.Params("id"), Category: in.Category, Method: in.Method, Amount: in.Amount,
		PaidFromCash: in.PaidFromCash, ReferenceID: in.ReferenceID, Actor: GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCashSessionResponse(cs))
}

// Income godoc
// @Summary      Registrar un ingreso manual
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "Sesión"
// @Param        body  body  dto.CashIncomeRequest  true  "category, method, amount"
// @Success      201  {object}  dto.CashSessionResponse
// @Failure      422  {object}  dto.ErrorResponse  "sesión no abierta"
// @Router       /api/cash-sessions/{id}/incomes [post]
func (h *CashHandler) Income(c *fiber.Ctx) error {
	var in dto.CashIncomeRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.PostIncome(c.UserContext(), cash.IncomeInput{
		SessionID: c.Params("id"), Category: in.Category, Method: in.Method, Amount: in.Amount,
		ReferenceID: in.ReferenceID, Actor: GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCashSessionResponse(cs))
}

// Close godoc
// @Summary      Cerrar la sesión con el efectivo contado
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Sesión"
// @Param        body  body  dto.CloseCashSessionRequest  true  "declared_cash"
// @Success      200  {object}  dto.CashSessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{id}/close [post]
func (h *CashHandler) Close(c *fiber.Ctx) error {
	var in dto.CloseCashSessionRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.Close(c.UserContext(), cash.CloseInput{
		SessionID: c.Params("id"), DeclaredCash: in.DeclaredCash, ClosedBy: GetUserID(c), Notes: in.Notes,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashSessionResponse(cs))
}

// Approve godoc
// @Summary      Aprobar el cuadre de una sesión cerrada
// @Tags         cash
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Sesión"
// @Success      200  {object}  dto.CashSessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{id}/approve [post]
func (h *CashHandler) Approve(c *fiber.Ctx) error {
	cs, err := h.svc.Approve(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashSessionResponse(cs))
}

// Reject godoc
// @Summary      Rechazar el cuadre de una sesión cerrada
// @Tags         cash
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Sesión"
// @Param        body  body  dto.RejectRequest  true  "reason"
// @Success      200  {object}  dto.CashSessionResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/cash-sessions/{id}/reject [post]
func (h *CashHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	cs, err := h.svc.Reject(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toCashSessionResponse(cs))
}

// Report godoc
// @Summary      PDF del cuadre de caja
// @Tags         cash
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "Sesión"
// @Success      200  {file}    binary
// @Failure      409  {object}  dto.ErrorResponse  "la sesión sigue abierta"
// @Router       /api/cash-sessions/{id}/report.pdf [get]
func (h *CashHandler) Report(c *fiber.Ctx) error {
	pdf, err := h.svc.ClosingReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="cuadre-`+c.Params("id")+`.pdf"`)
	return c.Send(pdf)
}
