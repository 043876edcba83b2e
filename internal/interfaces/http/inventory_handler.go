package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-caja/internal/application/dto"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
	"github.com/jhoicas/inventario-caja/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del ledger de inventario (protegido).
type InventoryHandler struct {
	ledger *inventory.LedgerService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.LedgerService) *InventoryHandler {
	return &InventoryHandler{ledger: ledger}
}

// ApplyMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovementRequest  true  "warehouse_id, item_id, kind, quantity_delta con signo, lot_id para ítems con lotes"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) ApplyMovement(c *fiber.Ctx) error {
	var in dto.MovementRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	mov, err := h.ledger.ApplyMovement(c.UserContext(), inventory.MovementInput{
		WarehouseID:   in.WarehouseID,
		ItemID:        in.ItemID,
		Kind:          entity.MovementKind(in.Kind),
		QuantityDelta: in.QuantityDelta,
		Reason:        in.Reason,
		ReferenceID:   in.ReferenceID,
		Actor:         GetUserID(c),
		UnitCost:      in.UnitCost,
		LotID:         in.LotID,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Consume godoc
// @Summary      Consumir stock por FIFO de vencimiento
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "warehouse_id, item_id, quantity"
// @Success      200   {object}  dto.ConsumeResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/consume [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	plan, err := h.ledger.ConsumeFIFO(c.UserContext(), inventory.ConsumeInput{
		WarehouseID: in.WarehouseID,
		ItemID:      in.ItemID,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		ReferenceID: in.ReferenceID,
		Actor:       GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ConsumeResponse{Consumed: in.Quantity, Depletions: toDepletions(plan)})
}

// Return godoc
// @Summary      Devolver al stock un consumo revertido
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnRequest  true  "warehouse_id, item_id, quantity, lot_id opcional"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/returns [post]
func (h *InventoryHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	movs, err := h.ledger.ReturnToStock(c.UserContext(), inventory.ReturnInput{
		WarehouseID: in.WarehouseID,
		ItemID:      in.ItemID,
		Quantity:    in.Quantity,
		LotID:       in.LotID,
		ReferenceID: in.ReferenceID,
		Actor:       GetUserID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementList(movs))
}

// ListStock godoc
// @Summary      Saldos de una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "Bodega"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/inventory/stock/{warehouseId} [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	list, err := h.ledger.ListStock(c.UserContext(), c.Params("warehouseId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toStockList(list))
}

// GetStock godoc
// @Summary      Saldo de un ítem en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "Bodega"
// @Param        itemId       path  string  true  "Ítem"
// @Success      200  {object}  dto.StockResponse
// @Router       /api/inventory/stock/{warehouseId}/{itemId} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	st, err := h.ledger.GetStock(c.UserContext(), entity.StockKey{WarehouseID: c.Params("warehouseId"), ItemID: c.Params("itemId")})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toStockResponse(st))
}

// SetThresholds godoc
// @Summary      Configurar mínimo, máximo y ubicación de un saldo
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        warehouseId  path  string                 true  "Bodega"
// @Param        itemId       path  string                 true  "Ítem"
// @Param        body         body  dto.ThresholdsRequest  true  "min_threshold, max_threshold, physical_location"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{warehouseId}/{itemId}/thresholds [put]
func (h *InventoryHandler) SetThresholds(c *fiber.Ctx) error {
	var in dto.ThresholdsRequest
	if e := bind(c, &in, false); e != nil {
		return badRequest(c, e)
	}
	st, err := h.ledger.SetThresholds(c.UserContext(), inventory.ThresholdsInput{
		WarehouseID:      c.Params("warehouseId"),
		ItemID:           c.Params("itemId"),
		MinThreshold:     in.MinThreshold,
		MaxThreshold:     in.MaxThreshold,
		PhysicalLocation: in.PhysicalLocation,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toStockResponse(st))
}

// LowStock godoc
// @Summary      Lista de reposición
// @Description  Saldos en o bajo el mínimo con la cantidad sugerida de pedido, el más urgente primero.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "Bodega"
// @Success      200  {array}  dto.ReplenishmentSuggestionDTO
// @Router       /api/inventory/stock/{warehouseId}/low [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.ledger.LowStock(c.UserContext(), c.Params("warehouseId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": toSuggestions(list),
	})
}

// ItemStock godoc
// @Summary      Saldo de un ítem en todas las bodegas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        itemId  path  string  true  "Ítem"
// @Success      200  {object}  dto.ItemStockResponse
// @Router       /api/inventory/items/{itemId}/stock [get]
func (h *InventoryHandler) ItemStock(c *fiber.Ctx) error {
	itemID := c.Params("itemId")
	list, total, err := h.ledger.StockAcrossWarehouses(c.UserContext(), itemID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ItemStockResponse{ItemID: itemID, Total: total, Warehouses: toStockList(list)})
}

// Movements godoc
// @Summary      Log de movimientos de un saldo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path   string  true   "Bodega"
// @Param        itemId       path   string  true   "Ítem"
// @Param        from         query  string  false  "RFC3339"
// @Param        to           query  string  false  "RFC3339"
// @Param        limit        query  int     false  "Límite (máx 100)"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{warehouseId}/{itemId} [get]
func (h *InventoryHandler) Movements(c *fiber.Ctx) error {
	p, e := page(c)
	if e != nil {
		return badRequest(c, e)
	}
	f := repository.MovementFilter{Limit: p.Limit, Offset: p.Offset}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, &dto.ErrorResponse{Code: "VALIDATION", Message: name + " debe estar en formato RFC3339"})
		}
		*dst = &t
	}
	key := entity.StockKey{WarehouseID: c.Params("warehouseId"), ItemID: c.Params("itemId")}
	list, err := h.ledger.Movements(c.UserContext(), key, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: toMovementList(list),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	})
}

// Reconcile godoc
// @Summary      Reconciliar un saldo contra su log de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouseId  path  string  true  "Bodega"
// @Param        itemId       path  string  true  "Ítem"
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/inventory/reconcile/{warehouseId}/{itemId} [get]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	rep, err := h.ledger.Reconcile(c.UserContext(), entity.StockKey{WarehouseID: c.Params("warehouseId"), ItemID: c.Params("itemId")})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toReconcileResponse(rep))
}
