package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventario-caja/internal/application/cash"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.LedgerService
	Transfers   *inventory.TransferService
	Adjustments *inventory.AdjustmentService
	Cash        *cash.SessionService
	JWTSecret   string
	AppName     string
	Metrics     http.Handler                // opcional: exposición Prometheus en /metrics
	Health      func(context.Context) error // opcional: ping a la base de datos / Redis
	Now         func() time.Time            // opcional
}

// Roles por grupo de operaciones.
var (
	reviewers  = []string{jwt.RoleAdmin, jwt.RoleSupervisor}
	warehouse  = []string{jwt.RoleAdmin, jwt.RoleSupervisor, jwt.RoleBodeguero}
	cashierOps = []string{jwt.RoleAdmin, jwt.RoleSupervisor, jwt.RoleCajero}
)

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": deps.AppName, "error": err.Error()})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ledger de inventario
	inv := protected.Group("/inventory")
	invHandler := NewInventoryHandler(deps.Ledger)
	inv.Post("/movements", RequireRole(warehouse...), invHandler.ApplyMovement)
	inv.Post("/consume", RequireRole(warehouse...), invHandler.Consume)
	inv.Post("/returns", RequireRole(warehouse...), invHandler.Return)
	inv.Get("/stock/:warehouseId", invHandler.ListStock)
	inv.Get("/stock/:warehouseId/low", invHandler.LowStock)
	inv.Get("/stock/:warehouseId/:itemId", invHandler.GetStock)
	inv.Put("/stock/:warehouseId/:itemId/thresholds", RequireRole(reviewers...), invHandler.SetThresholds)
	inv.Get("/items/:itemId/stock", invHandler.ItemStock)
	inv.Get("/movements/:warehouseId/:itemId", invHandler.Movements)
	inv.Get("/reconcile/:warehouseId/:itemId", RequireRole(reviewers...), invHandler.Reconcile)

	// Lotes
	lots := protected.Group("/lots")
	lotHandler := NewLotHandler(deps.Ledger, deps.Now)
	lots.Post("/", RequireRole(warehouse...), lotHandler.Receive)
	lots.Get("/expiring", lotHandler.Expiring)
	lots.Get("/summary/:warehouseId", lotHandler.Summary)
	lots.Post("/expire", RequireRole(warehouse...), lotHandler.MarkExpired)
	lots.Get("/:id", lotHandler.Get)
	lots.Post("/:id/withdraw", RequireRole(reviewers...), lotHandler.Withdraw)

	// Traslados
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers.Post("/", RequireRole(warehouse...), transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.Get)
	transfers.Post("/:id/approve", RequireRole(reviewers...), transferHandler.Approve)
	transfers.Post("/:id/receive", RequireRole(warehouse...), transferHandler.Receive)
	transfers.Post("/:id/reject", RequireRole(reviewers...), transferHandler.Reject)

	// Ajustes
	adjustments := protected.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.Adjustments)
	adjustments.Post("/", RequireRole(warehouse...), adjustmentHandler.Create)
	adjustments.Get("/", adjustmentHandler.List)
	adjustments.Get("/:id", adjustmentHandler.Get)
	adjustments.Post("/:id/approve", RequireRole(reviewers...), adjustmentHandler.Approve)
	adjustments.Post("/:id/reject", RequireRole(reviewers...), adjustmentHandler.Reject)

	// Sesiones de caja
	sessions := protected.Group("/cash-sessions")
	cashHandler := NewCashHandler(deps.Cash)
	sessions.Post("/", RequireRole(cashierOps...), cashHandler.Open)
	sessions.Get("/", cashHandler.List)
	sessions.Get("/active/:registerId", cashHandler.Active)
	sessions.Get("/:id", cashHandler.Get)
	sessions.Get("/:id/entries", cashHandler.Entries)
	sessions.Get("/:id/report.pdf", RequireRole(reviewers...), cashHandler.Report)
	sessions.Post("/:id/cashiers", RequireRole(cashierOps...), cashHandler.AddCashier)
	sessions.Post("/:id/sales", RequireRole(cashierOps...), cashHandler.Sale)
	sessions.Post("/:id/expenses", RequireRole(cashierOps...), cashHandler.Expense)
	sessions.Post("/:id/incomes", RequireRole(cashierOps...), cashHandler.Income)
	sessions.Post("/:id/close", RequireRole(cashierOps...), cashHandler.Close)
	sessions.Post("/:id/approve", RequireRole(reviewers...), cashHandler.Approve)
	sessions.Post("/:id/reject", RequireRole(reviewers...), cashHandler.Reject)
}
