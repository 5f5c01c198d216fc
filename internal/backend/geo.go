package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aureliajewels/storefront/pkg/redis"
)

// GeoCache caches country lookups per client IP. Implemented by pkg/redis.
type GeoCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type geoResponse struct {
	CountryCode string `json:"country_code"`
}

// GeoResolver binds the geo endpoint to a cache and TTL.
type GeoResolver struct {
	client *Client
	cache  GeoCache
	ttl    time.Duration
}

// NewGeoResolver builds a resolver; cache may be nil to disable caching.
func NewGeoResolver(client *Client, cache GeoCache, ttl time.Duration) *GeoResolver {
	return &GeoResolver{client: client, cache: cache, ttl: ttl}
}

// DetectCountry resolves a best-effort destination country for the client IP.
func (r *GeoResolver) DetectCountry(ctx context.Context, clientIP string) (string, error) {
	return r.client.DetectCountry(ctx, r.cache, r.ttl, clientIP)
}

// DetectCountry resolves a best-effort destination country for the client IP.
// The result is advisory: callers fall back to a configured country on error.
// Cache failures degrade to a direct lookup, never to a hard error.
func (c *Client) DetectCountry(ctx context.Context, cache GeoCache, cacheTTL time.Duration, clientIP string) (string, error) {
	key := redis.GeoKey(clientIP)
	if cache != nil {
		cached, err := cache.Get(ctx, key)
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && !errors.Is(err, redis.ErrCacheMiss) {
			c.logg.Warn(c.logg.WithField(ctx, "client_ip", clientIP), "geo cache read failed")
		}
	}

	var detected geoResponse
	if err := c.doWithRetry(ctx, callParams{
		method: http.MethodGet,
		path:   "/geo/detect",
		out:    &detected,
	}); err != nil {
		return "", err
	}

	country := strings.ToUpper(strings.TrimSpace(detected.CountryCode))
	if country == "" {
		return "", errors.New("geo detection returned empty country")
	}

	if cache != nil {
		if err := cache.Set(ctx, key, country, cacheTTL); err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "client_ip", clientIP), "geo cache write failed")
		}
	}
	return country, nil
}
