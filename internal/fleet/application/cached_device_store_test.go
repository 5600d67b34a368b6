package application

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"fleetwatch/internal/cache"
	fleet "fleetwatch/internal/fleet/domain"
	fleetrepo "fleetwatch/internal/fleet/infrastructure/postgres"
)

func newTestCache(t *testing.T) *cache.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := cache.New(mr.Addr(), "", 0, nil)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCachedDeviceStore_HitSkipsRepository(t *testing.T) {
	cacheClient := newTestCache(t)
	ctx := context.Background()

	cached := fleet.Device{
		ID:         7,
		DeviceType: fleet.DeviceTypeCamera,
		Name:       "cam-lobby",
		Source:     "rtsp://lobby",
		CreatedAt:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := cacheClient.Set(ctx, "device:7", cached, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	// The nil-db repository errors on any lookup, so a successful Get can
	// only have come from the cache.
	store := NewCachedDeviceStore(fleetrepo.NewDeviceRepository(nil), cacheClient, time.Minute, nil)
	device, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if device.Name != cached.Name || device.DeviceType != cached.DeviceType {
		t.Fatalf("unexpected device %+v", device)
	}
}

func TestCachedDeviceStore_MissFallsThrough(t *testing.T) {
	cacheClient := newTestCache(t)

	store := NewCachedDeviceStore(fleetrepo.NewDeviceRepository(nil), cacheClient, time.Minute, nil)
	if _, err := store.Get(context.Background(), 8); err == nil {
		t.Fatal("expected fall-through to fail on nil db")
	}
}

func TestCachedDeviceStore_NilCacheDisablesCaching(t *testing.T) {
	store := NewCachedDeviceStore(fleetrepo.NewDeviceRepository(nil), nil, 0, nil)
	if _, err := store.Get(context.Background(), 1); err == nil {
		t.Fatal("expected repository error")
	}
}
