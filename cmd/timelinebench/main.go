package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
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

// 读扩散 feed 基准：reader 关注 AUTHORS 个作者，每人 POSTS 条帖子
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	publisher := service.NewPublisher(db, userRepo, repository.NewPostRepository(db))
	relSvc := service.NewRelationshipService(db, userRepo, followRepo, nil, true)
	ctx := context.Background()

	AUTHORS := envInt("AUTHORS", 500)
	POSTS := envInt("POSTS", 20)
	PAGE := envInt("PAGE", 50)
	REPEAT := envInt("REPEAT", 200)

	run := uuid.NewString()[:8]
	reader := &model.User{Nickname: "reader_" + run, Email: "reader_" + run + "@example.com"}
	if err := userRepo.Create(ctx, reader); err != nil {
		panic(err)
	}

	authors := make([]model.User, AUTHORS)
	for i := range authors {
		id := uuid.NewString()[:12]
		authors[i] = model.User{Nickname: "a" + id, Email: id + "@example.com"}
	}
	if err := db.CreateInBatches(&authors, 1000).Error; err != nil {
		panic(err)
	}

	pubDurations := make([]time.Duration, 0, AUTHORS*POSTS)
	for i := range authors {
		if _, err := relSvc.Follow(ctx, reader.ID, authors[i].ID); err != nil {
			panic(err)
		}
		for j := 0; j < POSTS; j++ {
			st := time.Now()
			if _, err := publisher.Publish(ctx, authors[i].ID, fmt.Sprintf("hello %d", j)); err != nil {
				panic(err)
			}
			pubDurations = append(pubDurations, time.Since(st))
		}
	}

	// 首页与翻页，游标为首页最后一条的 (timestamp, id)
	first := make([]time.Duration, 0, REPEAT)
	deep := make([]time.Duration, 0, REPEAT)
	var next *service.FeedOptions
	for i := 0; i < REPEAT; i++ {
		st := time.Now()
		page, err := relSvc.Feed(ctx, reader.ID, service.FeedOptions{Limit: PAGE})
		if err != nil {
			panic(err)
		}
		first = append(first, time.Since(st))
		if next == nil {
			if len(page) == 0 {
				continue
			}
			last := page[len(page)-1]
			next = &service.FeedOptions{Limit: PAGE, Before: &last.Timestamp, BeforeID: last.ID}
		}
		st = time.Now()
		_, _ = relSvc.Feed(ctx, reader.ID, *next)
		deep = append(deep, time.Since(st))
	}

	total, _ := followRepo.FollowedPosts(ctx, reader).Count()

	fmt.Printf("AUTHORS=%d POSTS=%d PAGE=%d REPEAT=%d feed_size=%d\n", AUTHORS, POSTS, PAGE, REPEAT, total)
	fmt.Printf("Publish tx latency: p50=%v p95=%v p99=%v\n", pct(pubDurations, 0.50), pct(pubDurations, 0.95), pct(pubDurations, 0.99))
	fmt.Printf("Feed first page:  p50=%v p95=%v p99=%v\n", pct(first, 0.50), pct(first, 0.95), pct(first, 0.99))
	fmt.Printf("Feed second page: p50=%v p95=%v p99=%v\n", pct(deep, 0.50), pct(deep, 0.95), pct(deep, 0.99))
}
