package location

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ecomart/pkg/logger"
)

const cacheKeyPrefix = "geocode:"

// CachedGeocoder caches non-empty geocoding results in Redis and collapses
// concurrent lookups of the same query into one upstream call. Redis
// failures fall through to the wrapped geocoder.
type CachedGeocoder struct {
	client *redis.Client
	next   Geocoder
	ttl    time.Duration
	group  singleflight.Group
	log    *logger.Logger
}

// NewCachedGeocoder wraps next with a Redis cache
func NewCachedGeocoder(client *redis.Client, next Geocoder, ttl time.Duration, log *logger.Logger) *CachedGeocoder {
	return &CachedGeocoder{
		client: client,
		next:   next,
		ttl:    ttl,
		log:    log,
	}
}

// Geocode implements Geocoder
func (c *CachedGeocoder) Geocode(ctx context.Context, query string) ([]Candidate, error) {
	key := cacheKey(query)

	if cached, ok := c.get(ctx, key); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.get(ctx, key); ok {
			return cached, nil
		}

		candidates, err := c.next.Geocode(ctx, query)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			c.set(ctx, key, candidates)
		}
		return candidates, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]Candidate), nil
}

func (c *CachedGeocoder) get(ctx context.Context, key string) ([]Candidate, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithContext(ctx).Debug("geocode cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var candidates []Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, false
	}
	return candidates, true
}

func (c *CachedGeocoder) set(ctx context.Context, key string, candidates []Candidate) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithContext(ctx).Debug("geocode cache write failed", zap.Error(err))
	}
}

func cacheKey(query string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
