package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// TransferHandler traslados entre bodegas.
type TransferHandler struct {
	svc *inventory.TransferService
}

// NewTransferHandler construye el handler.
func NewTransferHandler(svc *inventory.TransferService) *TransferHandler {
	return &TransferHandler{svc: svc}
}

// Create godoc
// @Summary      Solicitar un traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "bodegas origen/destino e ítems"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	items := make([]inventory.TransferItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.TransferItemInput{ItemID: it.ItemID, Quantity: it.Quantity, Notes: it.Notes})
	}
	t, err := h.svc.Request(c.UserContext(), inventory.RequestTransferInput{
		SourceWarehouseID: in.SourceWarehouseID,
		DestWarehouseID:   in.DestWarehouseID,
		Items:             items,
		Notes:             in.Notes,
		RequestedBy:       GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(t))
}

// Get godoc
// @Summary      Obtener un traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	t, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// List godoc
// @Summary      Traslados de una bodega (origen o destino)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  true   "Bodega"
// @Param        status        query  string  false  "PENDING | IN_TRANSIT | COMPLETED | REJECTED"
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id")
	if warehouseID == "" {
		return badRequest(c, &dto.ErrorResponse{Code: "VALIDATION", Message: "warehouse_id es obligatorio"})
	}
	list, err := h.svc.ListByWarehouse(c.UserContext(), warehouseID, entity.TransferStatus(c.Query("status")))
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransferResponse(t))
	}
	return c.JSON(out)
}

// Approve godoc
// @Summary      Aprobar y despachar un traslado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "Traslado"
// @Param        body  body  dto.ApproveTransferRequest  false  "cantidades despachadas por ítem"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	var in dto.ApproveTransferRequest
	if e := bind(c, &in, true); e != nil {
		return badRequest(c, e)
	}
	t, err := h.svc.Approve(c.UserContext(), inventory.ApproveTransferInput{
		TransferID: c.Params("id"),
		Approver:   GetUserID(c),
		Shipped:    in.Shipped,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Receive godoc
// @Summary      Recibir un traslado en destino
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "Traslado"
// @Param        body  body  dto.ReceiveTransferRequest  false  "cantidades recibidas por ítem"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if e := bind(c, &in, true); e != nil {
		return badRequest(c, e)
	}
	t, err := h.svc.Receive(c.UserContext(), inventory.ReceiveTransferInput{
		TransferID: c.Params("id"),
		Receiver:   GetUserID(c),
		Received:   in.Received,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Reject godoc
// @Summary      Rechazar un traslado pendiente
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Traslado"
// @Param        body  body  dto.RejectRequest  true  "reason"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	t, err := h.svc.Reject(c.UserContext(), c.Params("id"), GetUserID(c), in.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(t))
}
