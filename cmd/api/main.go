package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-caja/internal/application/cash"
	"github.com/jhoicas/inventario-caja/internal/application/inventory"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/catalog"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/events"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/lock"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/inventario-caja/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-caja/internal/interfaces/http"
	"github.com/jhoicas/inventario-caja/pkg/config"
	"github.com/jhoicas/inventario-caja/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	var healthChecks []func(context.Context) error

	// ── Persistencia ──────────────────────────────────────────────────────────
	var (
		tx     interface {
			inventory.TxRunner
			cash.TxRunner
		}
		source catalog.Source
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		items := memory.NewCatalog()
		if cfg.Catalog.SeedFile != "" {
			loadCatalogSeed(cfg.Catalog.SeedFile, items, log)
		}
		tx, source = memory.NewStore(), items
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("aplicar esquema")
			}
		}
		tx, source = postgres.NewTxRunner(pool), postgres.NewCatalogRepository(pool)
		healthChecks = append(healthChecks, postgres.Ping(pool))
	}

	// ── Redis: bloqueos entre réplicas y caché del catálogo ───────────────────
	var locker inventory.Locker = lock.NewKeyedMutex()
	itemCatalog := inventory.Catalog(source)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		locker = lock.NewRedisLocker(rdb, lock.RedisLockerConfig{
			Prefix: cfg.App.Name + ":lock:",
			TTL:    cfg.Redis.LockTTL,
		}, log.Component("lock"))
		itemCatalog = catalog.New(source, catalog.NewRedisStore(rdb), catalog.Config{
			TTL:    cfg.Catalog.CacheTTL,
			Prefix: cfg.App.Name + ":catalog:item:",
		}, log.Component("catalog"))
		healthChecks = append(healthChecks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// ── Eventos ───────────────────────────────────────────────────────────────
	var publisher inventory.EventPublisher = events.Logging{Log: log.Component("events")}
	if cfg.Kafka.Enabled() {
		kcfg := events.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic, Source: cfg.App.Name}
		kafkaPub := events.NewKafkaPublisher(events.NewKafkaWriter(kcfg), kcfg, log.Component("events"))
		defer func() {
			if err := kafkaPub.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor Kafka")
			}
		}()
		publisher = kafkaPub
	}

	// ── Métricas y reportes ───────────────────────────────────────────────────
	mtr := metrics.New(metrics.DefaultConfig(cfg.App.Name))
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("tz", cfg.App.Timezone).Msg("zona horaria inválida, se usa UTC")
		loc = time.UTC
	}
	reports := infrapdf.NewCashReportGenerator(cfg.App.Name, loc)

	// ── Casos de uso ──────────────────────────────────────────────────────────
	policy := inventory.Policy{
		AllowNegativeAdjustments: cfg.Ledger.AllowNegativeAdjustments,
		TransferStockCheck:       inventory.ParseStockCheckMode(cfg.Ledger.TransferStockCheck),
		ExpiryWarningDays:        cfg.Ledger.ExpiryWarningDays,
	}
	invDeps := func(component string) inventory.Deps {
		return inventory.Deps{
			Tx:      tx,
			Catalog: itemCatalog,
			Locker:  locker,
			Events:  publisher,
			Metrics: mtr,
			Logger:  log.Component(component),
			Policy:  policy,
		}
	}
	ledgerSvc := inventory.NewLedgerService(invDeps("ledger"))
	transferSvc := inventory.NewTransferService(invDeps("transfers"))
	adjustmentSvc := inventory.NewAdjustmentService(invDeps("adjustments"))
	cashSvc := cash.NewSessionService(cash.Deps{
		Tx:               tx,
		Locker:           locker,
		Events:           publisher,
		Metrics:          mtr,
		Reports:          reports,
		Logger:           log.Component("cash"),
		DefaultTolerance: cfg.Cash.DefaultTolerance,
	})

	// ── HTTP ──────────────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30, // el PDF de cuadre puede tardar
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(mtr.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.HTTP.SwaggerFile != "" {
		if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.HTTP.SwaggerFile,
				Path:     "docs",
				Title:    "Inventario y Caja API",
			}))
		} else {
			log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger no disponible")
		}
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledgerSvc,
		Transfers:   transferSvc,
		Adjustments: adjustmentSvc,
		Cash:        cashSvc,
		JWTSecret:   cfg.JWT.Secret,
		AppName:     cfg.App.Name,
		Metrics:     mtr.Handler(),
		Health: func(ctx context.Context) error {
			for _, check := range healthChecks {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// loadCatalogSeed carga el CSV de catálogo en el catálogo en memoria.
func loadCatalogSeed(path string, into *memory.Catalog, log *logger.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("abrir catálogo")
	}
	defer f.Close()
	items, err := catalog.ReadCSV(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("leer catálogo")
	}
	for _, it := range items {
		into.Put(it)
	}
	log.Info().Int("items", len(items)).Str("file", path).Msg("catálogo cargado")
}
