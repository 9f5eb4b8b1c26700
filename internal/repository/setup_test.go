package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/pkg/database"
)

// openTestDB 单连接内存库：:memory: 每个连接都是独立数据库
func openTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file::memory:?_foreign_keys=on",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUsers(tb testing.TB, db *gorm.DB, names ...string) []*model.User {
	tb.Helper()
	users := make([]*model.User, len(names))
	for i, n := range names {
		users[i] = &model.User{Nickname: n, Email: n + "@example.com"}
		if err := db.Create(users[i]).Error; err != nil {
			tb.Fatalf("seed user %s: %v", n, err)
		}
	}
	return users
}

func seedPost(tb testing.TB, db *gorm.DB, author *model.User, body string, at time.Time) *model.Post {
	tb.Helper()
	p := &model.Post{Body: body, Timestamp: at, UserID: author.ID}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}

func countEdges(tb testing.TB, db *gorm.DB) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(&model.Follow{}).Count(&n).Error; err != nil {
		tb.Fatalf("count edges: %v", err)
	}
	return n
}

func nickname(i int) string { return fmt.Sprintf("u%04d", i) }

var bg = context.Background()
