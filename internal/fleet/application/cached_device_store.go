package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"fleetwatch/internal/cache"
	fleet "fleetwatch/internal/fleet/domain"
	fleetrepo "fleetwatch/internal/fleet/infrastructure/postgres"
	"fleetwatch/internal/observability/metrics"
)

const defaultDeviceCacheTTL = 30 * time.Second

// CachedDeviceStore fronts device by-id lookups with a read-through Redis
// cache. Writes go straight to the embedded repository; entries simply age
// out, so reads may lag a write by up to the TTL.
type CachedDeviceStore struct {
	*fleetrepo.DeviceRepository
	cache  *cache.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedDeviceStore wraps a device repository with a cache. A nil cache
// client disables caching and every lookup falls through.
func NewCachedDeviceStore(repo *fleetrepo.DeviceRepository, cacheClient *cache.Client, ttl time.Duration, logger *log.Logger) *CachedDeviceStore {
	if ttl <= 0 {
		ttl = defaultDeviceCacheTTL
	}
	return &CachedDeviceStore{DeviceRepository: repo, cache: cacheClient, ttl: ttl, logger: logger}
}

// Get returns the cached device snapshot when present, otherwise falls
// through to Postgres and stores the result. Cache failures are logged and
// never fail the lookup.
func (s *CachedDeviceStore) Get(ctx context.Context, id int64) (*fleet.Device, error) {
	key := deviceCacheKey(id)
	if s.cache != nil {
		var device fleet.Device
		found, err := s.cache.Get(ctx, key, &device)
		if err != nil && s.logger != nil {
			s.logger.Printf("device cache read failed for %s: %v", key, err)
		}
		if found {
			metrics.IncCacheHit()
			return &device, nil
		}
		metrics.IncCacheMiss()
	}

	device, err := s.DeviceRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, device, s.ttl); err != nil && s.logger != nil {
			s.logger.Printf("device cache write failed for %s: %v", key, err)
		}
	}
	return device, nil
}

func deviceCacheKey(id int64) string {
	return fmt.Sprintf("device:%d", id)
}
