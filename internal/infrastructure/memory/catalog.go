package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/inventario-caja/internal/domain"
	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// Catalog catálogo estático de productos e ingredientes.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]entity.CatalogItem
}

// NewCatalog construye el catálogo con los ítems dados.
func NewCatalog(items ...entity.CatalogItem) *Catalog {
	c := &Catalog{items: make(map[string]entity.CatalogItem, len(items))}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

// Put agrega o reemplaza un ítem.
func (c *Catalog) Put(it entity.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[it.ID] = it
}

// GetItem devuelve una copia del ítem o domain.ErrNotFound.
func (c *Catalog) GetItem(_ context.Context, itemID string) (*entity.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[itemID]
	if !ok {
		return nil, domain.NotFound("ítem", itemID)
	}
	return &it, nil
}
