package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
)

var _ inventory.StockCache = (*StockCache)(nil)

// Las claves de datos y su versión comparten hash tag para que WATCH funcione también en cluster.
const (
	warehouseKeyPrefix = "stock:wh:"
	sizeKeyPrefix      = "stock:size:"
	versionKeyPrefix   = "stock:ver:"
)

// Connect abre el cliente a partir de REDIS_URL y verifica con Ping.
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.MaxRetries = 3
	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// StockCache caché de saldos sobre Redis; los valores se guardan como JSON con TTL.
type StockCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewStockCache construye la caché. ttl <= 0 deja las claves sin expiración.
func NewStockCache(client goredis.UniversalClient, ttl time.Duration) *StockCache {
	return &StockCache{client: client, ttl: ttl}
}

func warehouseKey(code string) string { return warehouseKeyPrefix + "{" + code + "}" }

func warehouseVersionKey(code string) string { return versionKeyPrefix + "wh:{" + code + "}" }

func sizeKey(productID, warehouseID string) string {
	return sizeKeyPrefix + "{" + productID + "}:" + warehouseID
}

func sizeVersionKey(productID string) string { return versionKeyPrefix + "size:{" + productID + "}" }

// GetWarehouseStock saldos por bodega del código; ok=false si no está en caché.
// version es la versión vigente del código, para pasarla a SetWarehouseStock.
func (c *StockCache) GetWarehouseStock(ctx context.Context, itemCode string) ([]repository.WarehouseBalance, int64, bool, error) {
	var out []repository.WarehouseBalance
	version, ok, err := c.get(ctx, warehouseKey(itemCode), warehouseVersionKey(itemCode), &out)
	return out, version, ok, err
}

// SetWarehouseStock guarda los saldos por bodega si nadie invalidó el código desde la lectura.
func (c *StockCache) SetWarehouseStock(ctx context.Context, itemCode string, version int64, balances []repository.WarehouseBalance) error {
	return c.set(ctx, warehouseKey(itemCode), warehouseVersionKey(itemCode), version, balances)
}

// GetSizeStock disponible por talla; ok=false si no está en caché.
func (c *StockCache) GetSizeStock(ctx context.Context, productID, warehouseID string) ([]repository.SizeStock, int64, bool, error) {
	var out []repository.SizeStock
	version, ok, err := c.get(ctx, sizeKey(productID, warehouseID), sizeVersionKey(productID), &out)
	return out, version, ok, err
}

// SetSizeStock guarda el disponible por talla si nadie invalidó el producto desde la lectura.
func (c *StockCache) SetSizeStock(ctx context.Context, productID, warehouseID string, version int64, stock []repository.SizeStock) error {
	return c.set(ctx, sizeKey(productID, warehouseID), sizeVersionKey(productID), version, stock)
}

// Invalidate sube la versión y borra las claves de los códigos y de todas las bodegas de los productos.
func (c *StockCache) Invalidate(ctx context.Context, itemCodes, productIDs []string) error {
	var versions, keys []string
	for _, code := range itemCodes {
		versions = append(versions, warehouseVersionKey(code))
		keys = append(keys, warehouseKey(code))
	}
	for _, p := range productIDs {
		versions = append(versions, sizeVersionKey(p))
		iter := c.client.Scan(ctx, 0, sizeKeyPrefix+"{"+p+"}:*", 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan size keys: %w", err)
		}
	}
	if len(versions) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, v := range versions {
			p.Incr(ctx, v)
		}
		for _, k := range keys {
			p.Del(ctx, k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate stock keys: %w", err)
	}
	return nil
}

var errStaleVersion = errors.New("versión de caché desactualizada")

func (c *StockCache) get(ctx context.Context, key, versionKey string, dst any) (int64, bool, error) {
	vals, err := c.client.MGet(ctx, key, versionKey).Result()
	if err != nil {
		return 0, false, fmt.Errorf("get %s: %w", key, err)
	}
	version, err := parseVersion(vals[1])
	if err != nil {
		return 0, false, fmt.Errorf("version %s: %w", versionKey, err)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return version, false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return version, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return version, true, nil
}

// set escribe bajo WATCH de la clave de versión: si una invalidación la movió, no guarda nada.
func (c *StockCache) set(ctx context.Context, key, versionKey string, version int64, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, raw, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, errStaleVersion) || errors.Is(err, goredis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func parseVersion(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
