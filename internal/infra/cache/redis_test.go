package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/opsledger/backend/config"
)

func TestNewRedisConnection(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedisConnection(&config.RedisConfig{URL: "redis://" + mr.Addr() + "/0"})
	if err != nil {
		t.Fatalf("NewRedisConnection() error = %v", err)
	}
	if !r.HealthCheck() {
		t.Error("HealthCheck() = false, want true")
	}

	mr.Close()
	if r.HealthCheck() {
		t.Error("HealthCheck() after server stop = true, want false")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewRedisConnection_InvalidURL(t *testing.T) {
	if _, err := NewRedisConnection(&config.RedisConfig{URL: "not-a-url"}); err == nil {
		t.Error("NewRedisConnection() error = nil, want error")
	}
}
