package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// AdjustmentHandler ajustes de inventario con aprobación dual.
type AdjustmentHandler struct {
	svc *inventory.AdjustmentService
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(svc *inventory.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{svc: svc}
}

// Create godoc
// @Summary      Proponer un ajuste
// @Description  El ajuste queda PENDING hasta que otro usuario lo apruebe. Con requires_approval=false
//
//	se aplica de inmediato.
//
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "bodega, tipo, motivo e ítems"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	items := make([]inventory.AdjustmentItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.AdjustmentItemInput{
			ItemID: it.ItemID, QuantityDelta: it.QuantityDelta, LotID: it.LotID,
			UnitCost: it.UnitCost, Notes: it.Notes,
		})
	}
	requiresApproval := in.RequiresApproval == nil || *in.RequiresApproval
	a, err := h.svc.Propose(c.UserContext(), inventory.ProposeAdjustmentInput{
		WarehouseID:      in.WarehouseID,
		Kind:             entity.AdjustmentKind(in.Kind),
		Reason:           in.Reason,
		Justification:    in.Justification,
		Items:            items,
		RequestedBy:      GetUserID(c),
		RequiresApproval: requiresApproval,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAdjustmentResponse(a))
}

// Get godoc
// @Summary      Obtener un ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id} [get]
func (h *AdjustmentHandler) Get(c *fiber.Ctx) error {
	a, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toAdjustmentResponse(a))
}

// List godoc
// @Summary      Ajustes de una bodega
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        status        query  string  false  "PENDING | APPROVED | REJECTED"
// @Success      200  {array}  dto.AdjustmentResponse
// @Router       /api/adjustments [get]
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return badRequest(c, &dto.ErrorResponse{Code: "VALIDATION", Message: "warehouse_id es obligatorio"})
	}
	list, err := h.svc.ListByWarehouse(c.UserContext(), warehouseID, entity.AdjustmentStatus(c.Query("status")))
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.AdjustmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAdjustmentResponse(a))
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar y aplicar un ajuste
// @Tags         adjustments
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Ajuste"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/approve [post]
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	a, err := h.svc.Approve(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toAdjustmentResponse(a))
}

// Reject godoc
// @Summary      Rechazar un ajuste
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Ajuste"
// @Param        body  body  dto.RejectRequest  true  "reason"
// @Success      200  {object}  dto.AdjustmentResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/adjustments/{id}/reject [post]
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	a, err := h.svc.Reject(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toAdjustmentResponse(a))
}
