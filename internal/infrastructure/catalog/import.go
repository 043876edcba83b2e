package catalog

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// Writer persiste ítems del catálogo (postgres.CatalogRepo).
type Writer interface {
	Upsert(ctx context.Context, it entity.CatalogItem) error
}

// Import guarda los ítems y descarta su entrada en la caché para que la API no sirva
// costos o manejo de lotes viejos. cache puede ser nil. Devuelve cuántos ítems manejan lotes.
func Import(ctx context.Context, items []entity.CatalogItem, w Writer, cache *Cache) (int, error) {
	lots := 0
	for _, it := range items {
		if err := w.Upsert(ctx, it); err != nil {
			return lots, fmt.Errorf("ítem %s: %w", it.ID, err)
		}
		if cache != nil {
			if err := cache.Invalidate(ctx, it.ID); err != nil {
				return lots, err
			}
		}
		if it.TracksLots {
			lots++
		}
	}
	return lots, nil
}
