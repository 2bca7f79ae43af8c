package cache

import (
	"context"
	"testing"

	"crm_messaging_backend/platform/config"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClientConnects(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisURL: "redis://" + mr.Addr() + "/0"}

	client, err := NewRedisClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := mr.Get("k"); got != "v" {
		t.Fatalf("expected value in miniredis, got %q", got)
	}
}

func TestNewRedisClientRequiresURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), &config.Config{}); err == nil {
		t.Fatalf("expected error for missing url")
	}
}
