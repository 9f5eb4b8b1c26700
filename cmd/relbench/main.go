package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

// 关注写入/判断基准：N 个用户并发关注同一个 celeb，每人关注两次（第二次应为 no-op）
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	relSvc := service.NewRelationshipService(db, userRepo, followRepo, nil, true)
	ctx := context.Background()

	N := envInt("N", 5000)
	CONC := envInt("CONC", 8)

	// seed users: celeb + N fans
	run := uuid.NewString()[:8]
	celeb := &model.User{Nickname: "celeb_" + run, Email: "celeb_" + run + "@example.com"}
	if err := userRepo.Create(ctx, celeb); err != nil {
		panic(err)
	}
	users := make([]model.User, N)
	for i := 0; i < N; i++ {
		id := uuid.NewString()[:12]
		users[i] = model.User{Nickname: "u" + id, Email: id + "@example.com"}
	}
	if err := db.CreateInBatches(&users, 1000).Error; err != nil {
		panic(err)
	}

	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	var mu sync.Mutex
	firstRecs := make([]time.Duration, 0, N)
	repeatRecs := make([]time.Duration, 0, N)
	created, noops := 0, 0

	t0 := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				c1, err := relSvc.Follow(ctx, users[i].ID, celeb.ID)
				d1 := time.Since(st)
				st = time.Now()
				c2, err2 := relSvc.Follow(ctx, users[i].ID, celeb.ID)
				d2 := time.Since(st)
				mu.Lock()
				if err == nil && c1 {
					created++
				}
				if err2 == nil && !c2 {
					noops++
				}
				firstRecs = append(firstRecs, d1)
				repeatRecs = append(repeatRecs, d2)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)

	checks := make([]time.Duration, 0, N)
	for i := 0; i < N; i++ {
		st := time.Now()
		_, _ = relSvc.IsFollowing(ctx, users[i].ID, celeb.ID)
		checks = append(checks, time.Since(st))
	}

	q0 := time.Now()
	fans, _ := relSvc.ListFollowers(ctx, celeb.ID, 1, 50)
	fansDur := time.Since(q0)

	fmt.Printf("N=%d CONC=%d total=%v\n", N, CONC, total)
	fmt.Printf("Follow (new edge): created=%d p50=%v p95=%v p99=%v\n", created, pct(firstRecs, 0.50), pct(firstRecs, 0.95), pct(firstRecs, 0.99))
	fmt.Printf("Follow (no-op):    noops=%d p50=%v p95=%v p99=%v\n", noops, pct(repeatRecs, 0.50), pct(repeatRecs, 0.95), pct(repeatRecs, 0.99))
	fmt.Printf("IsFollowing: p50=%v p95=%v p99=%v\n", pct(checks, 0.50), pct(checks, 0.95), pct(checks, 0.99))
	fmt.Printf("ListFollowers(50): %v rows=%d\n", fansDur, len(fans))
}
