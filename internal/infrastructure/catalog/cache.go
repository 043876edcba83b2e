// Package catalog caché de lectura del catálogo de productos e ingredientes.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/inventario-caja/internal/domain/entity"
)

// Source origen autoritativo del catálogo (Postgres o estático).
type Source interface {
	GetItem(ctx context.Context, itemID string) (*entity.CatalogItem, error)
}

// Store almacenamiento de bytes con expiración.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisStore Store sobre go-redis.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore envuelve un cliente (o cluster) de Redis.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Get devuelve (nil, false, nil) si la llave no existe.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set guarda con TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Del invalida una llave.
func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// cachedItem forma serializada de entity.CatalogItem.
type cachedItem struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	TracksLots bool            `json:"tracks_lots"`
}

// Cache lectura a través de la caché: hit en Redis o consulta al origen, con las consultas
// concurrentes del mismo ítem colapsadas en una sola. Los errores de Redis degradan al origen.
type Cache struct {
	source Source
	store  Store
	ttl    time.Duration
	prefix string
	group  singleflight.Group
	log    zerolog.Logger
}

// Config TTL y prefijo de llaves.
type Config struct {
	TTL    time.Duration
	Prefix string
}

// New construye la caché.
func New(source Source, store Store, cfg Config, log zerolog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "catalog:item:"
	}
	return &Cache{
		source: source, store: store, ttl: cfg.TTL, prefix: cfg.Prefix,
		log: log.With().Str("component", "catalog_cache").Logger(),
	}
}

// GetItem implementa el puerto Catalog del ledger.
func (c *Cache) GetItem(ctx context.Context, itemID string) (*entity.CatalogItem, error) {
	key := c.prefix + itemID
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Str("item_id", itemID).Msg("caché no disponible, se consulta el origen")
	} else if ok {
		item, err := decode(raw)
		if err == nil {
			return item, nil
		}
		c.log.Warn().Err(err).Str("item_id", itemID).Msg("entrada de caché corrupta")
	}

	v, err, _ := c.group.Do(itemID, func() (any, error) {
		item, err := c.source.GetItem(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if raw, err := encode(item); err == nil {
			if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
				c.log.Warn().Err(err).Str("item_id", itemID).Msg("no se pudo poblar la caché")
			}
		}
		return item, nil
	})
	if err != nil {
		return nil, err
	}
	// Copia: quienes compartieron la consulta no deben compartir el puntero.
	item := *v.(*entity.CatalogItem)
	return &item, nil
}

// Invalidate descarta la entrada de un ítem (cambio de costo o de manejo de lotes).
func (c *Cache) Invalidate(ctx context.Context, itemID string) error {
	if err := c.store.Del(ctx, c.prefix+itemID); err != nil {
		return fmt.Errorf("invalidar caché de %s: %w", itemID, err)
	}
	return nil
}

func encode(it *entity.CatalogItem) ([]byte, error) {
	return json.Marshal(cachedItem{
		ID: it.ID, Kind: string(it.Kind), Name: it.Name, Unit: it.Unit,
		UnitCost: it.UnitCost, TracksLots: it.TracksLots,
	})
}

func decode(raw []byte) (*entity.CatalogItem, error) {
	var ci cachedItem
	if err := json.Unmarshal(raw, &ci); err != nil {
		return nil, err
	}
	return &entity.CatalogItem{
		ID: ci.ID, Kind: entity.ItemKind(ci.Kind), Name: ci.Name, Unit: ci.Unit,
		UnitCost: ci.UnitCost, TracksLots: ci.TracksLots,
	}, nil
}
