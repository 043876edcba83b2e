package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// CatalogRepo lectura del catálogo de productos e ingredientes (tabla catalog_items).
// El catálogo lo administra otro sistema; aquí solo se consulta y se siembra.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// GetItem ítem por id o domain.ErrNotFound.
func (r *CatalogRepo) GetItem(ctx context.Context, itemID string) (*entity.CatalogItem, error) {
	var it entity.CatalogItem
	var kind string
	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, name, unit, unit_cost, tracks_lots FROM catalog_items WHERE id = $1`, itemID,
	).Scan(&it.ID, &kind, &it.Name, &it.Unit, &it.UnitCost, &it.TracksLots)
	if err != nil {
		return nil, notFound(err, "ítem", itemID, "get ítem de catálogo")
	}
	it.Kind = entity.ItemKind(kind)
	return &it, nil
}

// Upsert inserta o reemplaza un ítem (sembrado y sincronización).
func (r *CatalogRepo) Upsert(ctx context.Context, it entity.CatalogItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO catalog_items (id, kind, name, unit, unit_cost, tracks_lots, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind, name = EXCLUDED.name, unit = EXCLUDED.unit,
			unit_cost = EXCLUDED.unit_cost, tracks_lots = EXCLUDED.tracks_lots, updated_at = EXCLUDED.updated_at`,
		it.ID, string(it.Kind), it.Name, it.Unit, it.UnitCost, it.TracksLots, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert ítem de catálogo: %w", err)
	}
	return nil
}
