package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/database"
)

type fixture struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	cache      *cache.FollowCache
	mr         *miniredis.Miniredis
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:?_foreign_keys=on",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	f := &fixture{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		followRepo: repository.NewFollowRepository(db),
		postRepo:   repository.NewPostRepository(db),
	}
	if withCache {
		f.mr = miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: f.mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		f.cache = cache.NewFollowCache(client, time.Minute)
	}
	return f
}

func (f *fixture) relations(allowSelf bool) RelationshipService {
	return NewRelationshipService(f.db, f.userRepo, f.followRepo, f.cache, allowSelf)
}

func (f *fixture) user(t *testing.T, nickname string) *model.User {
	t.Helper()
	u := &model.User{Nickname: nickname, Email: nickname + "@example.com"}
	if err := f.db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}
