// Command authcore-loadtest hammers the engine's session verification
// paths against a Redis-backed identity store and prints latency
// percentiles per phase.
//
// The verify phase exercises the lazy path: inside the re-verification
// interval almost every call is a pure signature check with no store
// read. The refresh phase forces an authoritative read per call.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/modboard/authcore"
	"github.com/modboard/authcore/password"
	"github.com/modboard/authcore/store"
)

func main() {
	var (
		identities  = flag.Int("identities", 2000, "number of identities to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (verify + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt", "store key prefix")
	)
	flag.Parse()

	if *identities <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "identities, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, identityStore, err := buildEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d identities...\n", *identities)
	startSeed := time.Now()
	tokens, err := seedTokens(ctx, engine, identityStore, *identities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runPhase(ctx, *ops, *concurrency, tokens, func(ctx context.Context, token string) error {
		_, _, err := engine.VerifySession(ctx, token)
		return err
	})
	refreshStats := runPhase(ctx, *ops, *concurrency, tokens, func(ctx context.Context, token string) error {
		_, _, err := engine.RefreshSession(ctx, token, authcore.Session{})
		return err
	})

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("refresh", refreshStats)

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("verified=%d deferred=%d revoked=%d\n",
		snapshot.Counters[authcore.MetricTokenVerified],
		snapshot.Counters[authcore.MetricTokenDeferred],
		snapshot.Counters[authcore.MetricTokenRevoked],
	)
}

func buildEngine(client redis.UniversalClient, prefix string) (*authcore.Engine, *store.RedisIdentity, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, nil, err
	}

	cfg := authcore.DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = key
	// Argon2 tuned down: seeding logins dominate setup time otherwise.
	cfg.Password = authcore.PasswordConfig{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	}
	cfg.RateLimit.Enabled = false

	identities := store.NewRedisIdentity(client, prefix)
	engine, err := authcore.New().
		WithConfig(cfg).
		WithIdentityStore(identities).
		WithPostStore(store.NewRedisPosts(client, prefix)).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return engine, identities, nil
}

// seedTokens creates n active identities and logs each one in once,
// collecting the signed session tokens the phases will replay.
func seedTokens(ctx context.Context, engine *authcore.Engine, identities *store.RedisIdentity, n int) ([]string, error) {
	hasher, err := password.NewHasher(password.Config{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	})
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash("loadtest-password")
	if err != nil {
		return nil, err
	}

	tokens := make([]string, n)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		err := identities.Create(ctx, authcore.Identity{
			ID:           fmt.Sprintf("u-%d", i),
			Email:        email,
			Name:         fmt.Sprintf("User %d", i),
			Role:         authcore.RoleUser,
			IsActive:     true,
			AuthProvider: authcore.ProviderManual,
			PasswordHash: hash,
		})
		if err != nil {
			return nil, err
		}

		signed, _, err := engine.Login(ctx, authcore.LoginRequest{
			Email:    email,
			Password: "loadtest-password",
			IP:       "127.0.0.1",
		})
		if err != nil {
			return nil, err
		}
		tokens[i] = signed
	}
	return tokens, nil
}

func runPhase(ctx context.Context, ops, concurrency int, tokens []string, op func(context.Context, string) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				token := tokens[mrand.IntN(len(tokens))]
				t0 := time.Now()
				err := op(ctx, token)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
