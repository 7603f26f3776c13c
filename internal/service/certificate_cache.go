package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ceu-go-api/internal/dto"
)

const verificationCachePrefix = "certificate:verify:"

// verificationCache stores public verification payloads. A nil client disables it.
type verificationCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func newVerificationCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *verificationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &verificationCache{client: client, ttl: ttl, logger: logger}
}

func (c *verificationCache) get(ctx context.Context, number string) (dto.CertificateVerification, bool) {
	if c == nil || c.client == nil {
		return dto.CertificateVerification{}, false
	}
	payload, err := c.client.Get(ctx, verificationCachePrefix+number).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("verification cache read failed")
		}
		return dto.CertificateVerification{}, false
	}
	var result dto.CertificateVerification
	if err := json.Unmarshal(payload, &result); err != nil {
		return dto.CertificateVerification{}, false
	}
	return result, true
}

func (c *verificationCache) set(ctx context.Context, number string, result dto.CertificateVerification) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, verificationCachePrefix+number, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("verification cache write failed")
	}
}

func (c *verificationCache) invalidate(ctx context.Context, numbers ...string) {
	if c == nil || c.client == nil || len(numbers) == 0 {
		return
	}
	keys := make([]string, 0, len(numbers))
	for _, number := range numbers {
		if number != "" {
			keys = append(keys, verificationCachePrefix+number)
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("verification cache invalidation failed")
	}
}
