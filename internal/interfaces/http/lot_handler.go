package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
)

// LotHandler recepción, consulta y retiro de lotes con vencimiento.
type LotHandler struct {
	ledger *inventory.LedgerService
	now    func() time.Time
}

// NewLotHandler construye el handler. now nil usa el reloj del sistema.
func NewLotHandler(ledger *inventory.LedgerService, now func() time.Time) *LotHandler {
	if now == nil {
		now = time.Now
	}
	return &LotHandler{ledger: ledger, now: now}
}

// Receive godoc
// @Summary      Recibir mercancía en un lote nuevo
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveLotRequest  true  "warehouse_id, item_id, quantity, unit_cost, expires_at"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveLotRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	lot, err := h.ledger.ReceiveLot(c.UserContext(), inventory.ReceiveLotInput{
		WarehouseID:    in.WarehouseID,
		ItemID:         in.ItemID,
		Code:           in.Code,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		ManufacturedAt: in.ManufacturedAt,
		ExpiresAt:      in.ExpiresAt,
		Supplier:       in.Supplier,
		InvoiceRef:     in.InvoiceRef,
		Notes:          in.Notes,
		Actor:          GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLotResponse(lot, h.now()))
}

// Get godoc
// @Summary      Obtener un lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [get]
func (h *LotHandler) Get(c *fiber.Ctx) error {
	lot, err := h.ledger.GetLot(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toLotResponse(lot, h.now()))
}

// Expiring godoc
// @Summary      Lotes próximos a vencer
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        days          query  int     false  "Ventana en días (por defecto la configurada)"
// @Success      200  {array}  dto.LotResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/lots/expiring [get]
func (h *LotHandler) Expiring(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return badRequest(c, &dto.ErrorResponse{Code: "VALIDATION", Message: "warehouse_id es obligatorio"})
	}
	lots, err := h.ledger.ExpiringLots(c.UserContext(), warehouseID, c.QueryInt("days", 0))
	if err != nil {
		return fail(c, err)
	}
	now := h.now()
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, toLotResponse(l, now))
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Conteo de lotes por estado
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "Bodega"
// @Success      200  {object}  dto.LotSummaryResponse
// @Router       /api/lots/summary/{warehouseId} [get]
func (h *LotHandler) Summary(c *fiber.Ctx) error {
	sum, err := h.ledger.LotSummary(c.UserContext(), c.Params("warehouseId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toLotSummary(sum))
}

// Withdraw godoc
// @Summary      Retirar un lote (p. ej. vencido o contaminado)
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "Lote"
// @Param        body  body  dto.WithdrawLotRequest  true  "reason"
// @Success      200  {object}  dto.LotResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/withdraw [post]
func (h *LotHandler) Withdraw(c *fiber.Ctx) error {
	var in dto.WithdrawLotRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	lot, err := h.ledger.WithdrawLot(c.UserContext(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toLotResponse(lot, h.now()))
}

// MarkExpired godoc
// @Summary      Marcar como vencidos los lotes activos ya vencidos
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ExpireLotsRequest  true  "warehouse_id"
// @Success      200  {object}  map[string]int
// @Router       /api/lots/expire [post]
func (h *LotHandler) MarkExpired(c *fiber.Ctx) error {
	var in dto.ExpireLotsRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	n, err := h.ledger.MarkExpiredLots(c.UserContext(), in.WarehouseID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"expired": n})
}
