package authcore

import (
	"context"
	"testing"
)

func TestHealthInMemoryStore(t *testing.T) {
	f := newTestFixture(t, nil)

	status := f.engine.Health(context.Background())
	if !status.StoreAvailable {
		t.Fatal("expected in-memory store reported available")
	}
}

func TestLoginAttemptsTracksGuards(t *testing.T) {
	f := newTestFixture(t, nil)

	for i := 0; i < 3; i++ {
		f.engine.Login(context.Background(), LoginRequest{
			Email:    "ghost@example.com",
			Password: "wrongwrongwrong",
			IP:       "10.0.0.1",
		})
	}

	ipCount, emailCount := f.engine.LoginAttempts("10.0.0.1", "ghost@example.com")
	if ipCount != 3 || emailCount != 3 {
		t.Fatalf("expected 3/3 attempts, got %d/%d", ipCount, emailCount)
	}

	// Expired windows read as zero.
	f.clock.Advance(f.engine.config.RateLimit.Window)
	ipCount, emailCount = f.engine.LoginAttempts("10.0.0.1", "ghost@example.com")
	if ipCount != 0 || emailCount != 0 {
		t.Fatalf("expected expired counters, got %d/%d", ipCount, emailCount)
	}
}

func TestLoginAttemptsDisabledLimiter(t *testing.T) {
	f := newTestFixture(t, func(cfg *Config) {
		cfg.RateLimit.Enabled = false
	})

	ipCount, emailCount := f.engine.LoginAttempts("10.0.0.1", "ghost@example.com")
	if ipCount != 0 || emailCount != 0 {
		t.Fatalf("expected zeroes with limiter disabled, got %d/%d", ipCount, emailCount)
	}
}
