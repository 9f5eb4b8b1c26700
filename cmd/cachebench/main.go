package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/database"
)

type pair struct {
	actor  uint
	target uint
}

func main() {
	ctx := context.Background()

	// 使用真实 PostgreSQL + Redis
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=postgres port=5434 sslmode=disable"
	}
	db := must(database.Open(config.DatabaseConfig{Driver: "postgres", DSN: dsn, MaxOpenConns: 20, MaxIdleConns: 10, LogLevel: "silent"}))

	mustDo(db.Exec("DROP TABLE IF EXISTS followers CASCADE").Error)
	mustDo(db.Exec("DROP TABLE IF EXISTS posts CASCADE").Error)
	mustDo(db.Exec("DROP TABLE IF EXISTS users CASCADE").Error)
	mustDo(database.Migrate(db))

	const (
		userCount  = 20000
		hubCount   = 3
		ttlMinutes = 10
		requests   = 9000
	)

	fmt.Println("Setting up test data...")

	users := make([]model.User, userCount)
	for i := range users {
		id := uuid.NewString()[:12]
		users[i] = model.User{Nickname: "u" + id, Email: id + "@example.com"}
	}
	mustDo(db.CreateInBatches(&users, 1000).Error)

	// 前 hubCount 个用户作为被关注的大 V，其余用户每隔一个关注一个大 V
	edges := make([]model.Follow, 0, userCount)
	for i := hubCount; i < userCount; i += 2 {
		edges = append(edges, model.Follow{FollowerID: users[i].ID, FollowedID: users[i%hubCount].ID})
	}
	mustDo(db.CreateInBatches(&edges, 1000).Error)
	fmt.Printf("  users=%d edges=%d\n", len(users), len(edges))

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	followCache := cache.NewFollowCache(client, ttlMinutes*time.Minute)
	noCache := service.NewRelationshipService(db, userRepo, followRepo, nil, true)
	cached := service.NewRelationshipService(db, userRepo, followRepo, followCache, true)

	reqs := makeRequests(users, hubCount, requests)

	direct := runScenario(ctx, client, followCache, reqs, false, noCache)
	warm := runScenario(ctx, client, followCache, reqs, true, cached)

	fmt.Printf("\nIsFollowing latency (%d req, %d users, PostgreSQL + Redis)\n", requests, userCount)
	fmt.Printf("%-14s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d mem=%s\n",
		"No cache", avg(direct.durations), pct(direct.durations, 0.95), pct(direct.durations, 0.99),
		direct.counters.Hits, direct.counters.Misses, direct.cacheKeys, formatBytes(direct.memoryBytes),
	)
	fmt.Printf("%-14s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d mem=%s\n",
		"Pair cache", avg(warm.durations), pct(warm.durations, 0.95), pct(warm.durations, 0.99),
		warm.counters.Hits, warm.counters.Misses, warm.cacheKeys, formatBytes(warm.memoryBytes),
	)
}

type scenarioResult struct {
	durations   []time.Duration
	counters    cache.Counters
	cacheKeys   int
	memoryBytes int64
}

func runScenario(ctx context.Context, client *redis.Client, fc *cache.FollowCache, reqs []pair, warm bool, svc service.RelationshipService) scenarioResult {
	client.FlushAll(ctx)
	fc.ResetCounters()

	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			_ = must(svc.IsFollowing(ctx, r.actor, r.target))
		}
		fmt.Println(" done")
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		_ = must(svc.IsFollowing(ctx, r.actor, r.target))
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	keys, _ := client.Keys(ctx, "follow:*").Result()

	var memBytes int64
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		memBytes = parseRedisMemory(info)
	}

	return scenarioResult{
		durations:   out,
		counters:    fc.Counters(),
		cacheKeys:   len(keys),
		memoryBytes: memBytes,
	}
}

// parseRedisMemory 从 INFO memory 中取 used_memory
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:")
		if !ok {
			continue
		}
		var n int64
		fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// makeRequests 大部分请求集中在热点用户对上
func makeRequests(users []model.User, hubCount, n int) []pair {
	out := make([]pair, n)
	rnd := rand.New(rand.NewSource(42))
	hot := 500
	if hot > len(users)-hubCount {
		hot = len(users) - hubCount
	}
	for i := 0; i < n; i++ {
		idx := hubCount + rnd.Intn(hot)
		if rnd.Float64() > 0.8 {
			idx = hubCount + rnd.Intn(len(users)-hubCount)
		}
		out[i] = pair{actor: users[idx].ID, target: users[rnd.Intn(hubCount)].ID}
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
