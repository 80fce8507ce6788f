package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"childminder/internal/dbs/models"
	"childminder/internal/dbs/tracer"
	"childminder/pkg/domain"
)

const redisLookupKeyPrefix = "dbs:lookup:"

// redisPayload is the stored form. Found=false encodes "not on file".
type redisPayload struct {
	Found           bool        `json:"found"`
	DateOfBirth     domain.Date `json:"date_of_birth"`
	IssuedAt        time.Time   `json:"issued_at"`
	CertificateInfo string      `json:"certificate_info,omitempty"`
}

// RedisCache shares registry answers between instances. Keys carry a digest
// of the certificate number, never the number itself.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// Get performs a Redis GET.
//
// Errors: ErrCacheMiss when the key is absent; wraps Redis or decode errors.
func (c *RedisCache) Get(ctx context.Context, number domain.CertificateNumber) (CacheEntry, error) {
	data, err := c.client.Get(ctx, lookupKey(number)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return CacheEntry{}, ErrCacheMiss
		}
		return CacheEntry{}, fmt.Errorf("read registry cache: %w", err)
	}

	var payload redisPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return CacheEntry{}, fmt.Errorf("decode registry cache: %w", err)
	}
	if !payload.Found {
		return CacheEntry{}, nil
	}
	return CacheEntry{Record: &models.RegistryRecord{
		CertificateNumber: number,
		DateOfBirth:       payload.DateOfBirth,
		IssuedAt:          payload.IssuedAt,
		CertificateInfo:   payload.CertificateInfo,
	}}, nil
}

// Put performs a Redis SET with TTL, overwriting any existing entry.
func (c *RedisCache) Put(ctx context.Context, number domain.CertificateNumber, entry CacheEntry, ttl time.Duration) error {
	payload := redisPayload{}
	if entry.Record != nil {
		payload = redisPayload{
			Found:           true,
			DateOfBirth:     entry.Record.DateOfBirth,
			IssuedAt:        entry.Record.IssuedAt,
			CertificateInfo: entry.Record.CertificateInfo,
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode registry cache: %w", err)
	}
	if err := c.client.Set(ctx, lookupKey(number), data, ttl).Err(); err != nil {
		return fmt.Errorf("write registry cache: %w", err)
	}
	return nil
}

func lookupKey(number domain.CertificateNumber) string {
	return redisLookupKeyPrefix + tracer.HashCertificate(number.String())
}

var (
	_ LookupCache = (*MemoryCache)(nil)
	_ LookupCache = (*RedisCache)(nil)
)
