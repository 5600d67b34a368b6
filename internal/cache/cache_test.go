package cache

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := New(mr.Addr(), "", 0, log.New(os.Stdout, "", 0))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_SetGet(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	type snapshot struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}
	stored := snapshot{Name: "cam-lobby", Value: 42}

	if err := client.Set(ctx, "device:1", stored, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var loaded snapshot
	found, err := client.Get(ctx, "device:1", &loaded)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if loaded != stored {
		t.Fatalf("expected %+v, got %+v", stored, loaded)
	}
}

func TestCache_GetMissing(t *testing.T) {
	client := newTestClient(t)

	var dest map[string]any
	found, err := client.Get(context.Background(), "device:999", &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("expected miss")
	}
}

func TestCache_Delete(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "device:2", map[string]int{"id": 2}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := client.Delete(ctx, "device:2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var dest map[string]int
	found, err := client.Get(ctx, "device:2", &dest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Fatal("expected key to be gone")
	}
}
