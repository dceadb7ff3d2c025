package datasource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/access-audit-reports/internal"
	"github.com/frahmantamala/access-audit-reports/internal/report"
)

const cacheKeyPrefix = "report"

// NewRedisClient connects to redis. In "memory" mode an embedded miniredis
// server is started and stopped by the returned close function.
func NewRedisClient(cfg internal.CacheConfig) (*redis.Client, func() error, error) {
	if cfg.Mode == "memory" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start in-memory redis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		closeFn := func() error {
			err := client.Close()
			mr.Close()
			return err
		}
		return client, closeFn, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, client.Close, nil
}

// CachedProvider serves repeated report fetches from redis. Bulk fetches are
// never cached. Cache errors are logged and the call falls through.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ Invalidator = (*CachedProvider)(nil)

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{next: next, client: client, ttl: ttl, logger: logger}
}

func (p *CachedProvider) FetchReport(ctx context.Context, category string, filters []string, paging Paging) (*report.RawPayload, error) {
	key := CacheKey(category, filters, paging)

	cached, err := p.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var payload report.RawPayload
		if err := json.Unmarshal(cached, &payload); err == nil {
			p.logger.Debug("report cache hit", "category", category, "key", key)
			return &payload, nil
		}
		p.logger.Warn("report cache entry unreadable", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		p.logger.Warn("report cache read failed", "key", key, "error", err)
	}

	payload, err := p.next.FetchReport(ctx, category, filters, paging)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(payload); err == nil {
		if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
			p.logger.Warn("report cache write failed", "key", key, "error", err)
		}
	}
	return payload, nil
}

func (p *CachedProvider) FetchBulk(ctx context.Context, category string, filters []string, auxFilterValues []string) (*report.RawPayload, error) {
	return p.next.FetchBulk(ctx, category, filters, auxFilterValues)
}

// Invalidate drops every cached page of a category.
func (p *CachedProvider) Invalidate(ctx context.Context, category string) error {
	iter := p.client.Scan(ctx, 0, fmt.Sprintf("%s:%s:*", cacheKeyPrefix, category), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return p.client.Del(ctx, keys...).Err()
}

// CacheKey is stable for the same category, filter list and page.
func CacheKey(category string, filters []string, paging Paging) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(filters, "\x1f")))
	fmt.Fprintf(h, "|%d|%d", paging.Page, paging.PageSize)
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, category, hex.EncodeToString(h.Sum(nil))[:32])
}
