package authcore

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/modboard/authcore/store"
)

func validEd25519Config(t *testing.T) Config {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Token.PrivateKey = priv
	cfg.Token.PublicKey = pub
	return cfg
}

func TestDefaultConfigValidatesWithKeys(t *testing.T) {
	cfg := validEd25519Config(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero base interval", func(c *Config) { c.Token.BaseInterval = 0 }},
		{"negative jitter", func(c *Config) { c.Token.JitterMax = -time.Second }},
		{"zero session ttl", func(c *Config) { c.Token.SessionTTL = 0 }},
		{"oversized leeway", func(c *Config) { c.Token.Leeway = 3 * time.Minute }},
		{"unknown signing method", func(c *Config) { c.Token.SigningMethod = "rs512" }},
		{"truncated ed25519 key", func(c *Config) { c.Token.PrivateKey = c.Token.PrivateKey[:16] }},
		{"short hs256 key", func(c *Config) {
			c.Token.SigningMethod = "hs256"
			c.Token.PrivateKey = []byte("short")
		}},
		{"zero ip limit", func(c *Config) { c.RateLimit.IPLimit = 0 }},
		{"zero email limit", func(c *Config) { c.RateLimit.EmailLimit = 0 }},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"zero sweep interval", func(c *Config) { c.RateLimit.SweepInterval = 0 }},
		{"weak argon memory", func(c *Config) { c.Password.Memory = 1024 }},
		{"zero argon time", func(c *Config) { c.Password.Time = 0 }},
		{"zero parallelism", func(c *Config) { c.Password.Parallelism = 0 }},
		{"short salt", func(c *Config) { c.Password.SaltLength = 8 }},
		{"short key", func(c *Config) { c.Password.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validEd25519Config(t)
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation failure")
			}
		})
	}
}

func TestConfigLimiterChecksSkippedWhenDisabled(t *testing.T) {
	cfg := validEd25519Config(t)
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.IPLimit = 0
	cfg.RateLimit.Window = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected disabled limiter to skip checks, got %v", err)
	}
}

func TestBuildClonesKeyMaterial(t *testing.T) {
	cfg := testConfig()
	key := cfg.Token.PrivateKey

	engine, err := New().
		WithConfig(cfg).
		WithIdentityStore(store.NewMemoryIdentity()).
		WithPostStore(store.NewMemoryPosts()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	// Mutating the caller's slice must not reach the engine.
	for i := range key {
		key[i] = 0
	}
	if engine.config.Token.PrivateKey[0] == 0 {
		t.Fatal("expected cloned key material")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().
		WithConfig(testConfig()).
		WithIdentityStore(store.NewMemoryIdentity()).
		WithPostStore(store.NewMemoryPosts())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRequiresStores(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).WithPostStore(store.NewMemoryPosts()).Build(); err == nil {
		t.Fatal("expected missing identity store rejection")
	}
	if _, err := New().WithConfig(testConfig()).WithIdentityStore(store.NewMemoryIdentity()).Build(); err == nil {
		t.Fatal("expected missing post store rejection")
	}
}
