package repository

import (
	"math/rand"
	"testing"
	"time"

	"github.com/d60-Lab/microblog/internal/model"
)

func BenchmarkFollowWrite(b *testing.B) {
	db := openTestDB(b)
	repo := NewFollowRepository(db)

	// 预创建部分用户
	users := make([]model.User, 1000)
	for i := range users {
		users[i] = model.User{Nickname: nickname(i), Email: nickname(i) + "@example.com"}
	}
	if err := db.CreateInBatches(&users, 500).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := &users[rnd.Intn(len(users))]
		to := &users[rnd.Intn(len(users))]
		_, _ = repo.Follow(bg, from, to)
	}
}

func BenchmarkIsFollowingAndFeed(b *testing.B) {
	db := openTestDB(b)
	repo := NewFollowRepository(db)

	// 构造：u0 关注 N 个用户，每人 3 条帖子
	const N = 2000
	users := make([]model.User, N+1)
	for i := range users {
		users[i] = model.User{Nickname: nickname(i), Email: nickname(i) + "@example.com"}
	}
	if err := db.CreateInBatches(&users, 500).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}
	u0 := &users[0]
	base := time.Now().Add(-time.Hour)
	posts := make([]model.Post, 0, N*3)
	for i := 1; i <= N; i++ {
		_, _ = repo.Follow(bg, u0, &users[i])
		for j := 0; j < 3; j++ {
			posts = append(posts, model.Post{Body: "p", UserID: users[i].ID, Timestamp: base.Add(time.Duration(i*3+j) * time.Millisecond)})
		}
	}
	if err := db.CreateInBatches(&posts, 500).Error; err != nil {
		b.Fatalf("seed posts: %v", err)
	}

	b.ResetTimer()
	b.Run("IsFollowing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.IsFollowing(bg, u0, &users[1+i%N])
		}
	})

	b.Run("FollowedPostsFirstPage", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.FollowedPosts(bg, u0).Limit(50).Find()
		}
	})
}
