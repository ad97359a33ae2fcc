// Package cache provides a Redis read-through cache for catalog lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartsupply/internal/core/id"
	"smartsupply/internal/domain/catalog"
	"smartsupply/pkg/logger"
)

const (
	keyPrefix  = "smartsupply:catalog:"
	DefaultTTL = 10 * time.Minute
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache miss")

// Store is the key/value backend of the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps client. The caller keeps ownership of the client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return data, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

var _ catalog.Lookup = (*CatalogCache)(nil)

// CatalogCache decorates a catalog.Lookup. Products and warehouses are never
// updated in place, so entries only expire by TTL. Lookups that fail (including
// NotFound) are not cached. A failing store degrades to the backing lookup.
type CatalogCache struct {
	next  catalog.Lookup
	store Store
	ttl   time.Duration
}

// NewCatalogCache creates the decorator. ttl <= 0 selects DefaultTTL.
func NewCatalogCache(next catalog.Lookup, store Store, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{next: next, store: store, ttl: ttl}
}

func productIDKey(productID id.ID) string { return keyPrefix + "product:id:" + productID.String() }
func productSKUKey(sku string) string     { return keyPrefix + "product:sku:" + sku }
func warehouseIDKey(warehouseID id.ID) string {
	return keyPrefix + "warehouse:id:" + warehouseID.String()
}
func warehouseNameKey(name string) string { return keyPrefix + "warehouse:name:" + name }

func (c *CatalogCache) ProductByID(ctx context.Context, productID id.ID) (*catalog.Product, error) {
	return readThrough(ctx, c, productIDKey(productID), func() (*catalog.Product, error) {
		return c.next.ProductByID(ctx, productID)
	}, func(p *catalog.Product) []string { return []string{productSKUKey(p.SKU)} })
}

func (c *CatalogCache) ProductBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return readThrough(ctx, c, productSKUKey(sku), func() (*catalog.Product, error) {
		return c.next.ProductBySKU(ctx, sku)
	}, func(p *catalog.Product) []string { return []string{productIDKey(p.ID)} })
}

func (c *CatalogCache) WarehouseByID(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	return readThrough(ctx, c, warehouseIDKey(warehouseID), func() (*catalog.Warehouse, error) {
		return c.next.WarehouseByID(ctx, warehouseID)
	}, func(w *catalog.Warehouse) []string { return []string{warehouseNameKey(w.Name)} })
}

func (c *CatalogCache) WarehouseByName(ctx context.Context, name string) (*catalog.Warehouse, error) {
	return readThrough(ctx, c, warehouseNameKey(name), func() (*catalog.Warehouse, error) {
		return c.next.WarehouseByName(ctx, name)
	}, func(w *catalog.Warehouse) []string { return []string{warehouseIDKey(w.ID)} })
}

// readThrough serves key from the store, else loads and stores the value under
// key and every alias.
func readThrough[T any](ctx context.Context, c *CatalogCache, key string, load func() (*T, error), aliases func(*T) []string) (*T, error) {
	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if uerr := json.Unmarshal(data, &v); uerr == nil {
			return &v, nil
		}
		logger.Warn(ctx, "catalog cache entry corrupted", "key", key)
	case !errors.Is(err, ErrMiss):
		logger.Warn(ctx, "catalog cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(v)
	if err != nil {
		return v, nil
	}
	for _, k := range append([]string{key}, aliases(v)...) {
		if err := c.store.Set(ctx, k, data, c.ttl); err != nil {
			logger.Warn(ctx, "catalog cache write failed", "key", k, "error", err)
			break
		}
	}
	return v, nil
}

// NewRedisClient connects and pings.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}
