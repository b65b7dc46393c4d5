package cache

import (
	"context"
	"time"

	"ortus/internal/config"
	"ortus/internal/domain/model"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productListPrefix = "catalog:products:"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ProductCache は公開商品一覧をカテゴリごとにキャッシュする
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCache(cfg config.RedisConfig) *ProductCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &ProductCache{client: client, ttl: cfg.TTL}
}

func listKey(category string) string {
	if category == "" {
		return productListPrefix + "_all"
	}
	return productListPrefix + category
}

// Get はヒットしなければ ok=false。redisの障害もミス扱い。
func (c *ProductCache) Get(ctx context.Context, category string) ([]model.Product, bool) {
	b, err := c.client.Get(ctx, listKey(category)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("product cache get failed", zap.String("category", category), zap.Error(err))
		}
		return nil, false
	}

	var products []model.Product
	if err := json.Unmarshal(b, &products); err != nil {
		zap.L().Warn("product cache decode failed", zap.String("category", category), zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *ProductCache) Set(ctx context.Context, category string, products []model.Product) {
	b, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listKey(category), b, c.ttl).Err(); err != nil {
		zap.L().Warn("product cache set failed", zap.String("category", category), zap.Error(err))
	}
}

// Invalidate は一覧のキャッシュを全カテゴリ分消す
func (c *ProductCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, productListPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			zap.L().Warn("product cache delete failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		zap.L().Warn("product cache scan failed", zap.Error(err))
	}
}

func (c *ProductCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ProductCache) Close() error {
	return c.client.Close()
}

// Noop はREDIS_ADDRが無いとき用
type Noop struct{}

func (Noop) Get(context.Context, string) ([]model.Product, bool) { return nil, false }
func (Noop) Set(context.Context, string, []model.Product)        {}
func (Noop) Invalidate(context.Context)                          {}
