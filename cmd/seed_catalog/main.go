// seed_catalog carga el catálogo de productos e ingredientes en PostgreSQL a partir de un CSV
// (columnas: id, tipo, nombre, unidad, costo_unitario, maneja_lotes). Acepta UTF-8 o ISO-8859-1.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual. Usa la misma configuración que la API;
// con REDIS_ADDR definido descarta las entradas cacheadas de los ítems cargados.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-caja/internal/infrastructure/catalog"
	"github.com/jhoicas/inventario-caja/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-caja/pkg/config"
)

func main() {
	path := "catalogo.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	items, err := catalog.ReadCSV(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Migrar: %v\n", err)
		os.Exit(1)
	}

	repo := postgres.NewCatalogRepository(pool)
	var cache *catalog.Cache
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		cache = catalog.New(repo, catalog.NewRedisStore(rdb), catalog.Config{
			TTL:    cfg.Catalog.CacheTTL,
			Prefix: cfg.App.Name + ":catalog:item:",
		}, zerolog.Nop())
	}

	lots, err := catalog.Import(ctx, items, repo, cache)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar catálogo: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cargados %d ítems desde %s (%d con lotes)\n", len(items), path, lots)
}
