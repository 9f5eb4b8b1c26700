package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

// Publisher 负责在事务内写 posts
type Publisher struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	now      func() time.Time
}

func NewPublisher(db *gorm.DB, userRepo repository.UserRepository, postRepo repository.PostRepository) *Publisher {
	return &Publisher{db: db, userRepo: userRepo, postRepo: postRepo, now: time.Now}
}

// Publish 校验正文并落地帖子
func (p *Publisher) Publish(ctx context.Context, authorID uint, body string) (post *model.Post, err error) {
	ctx, span := tracer.Start(ctx, "Publisher.Publish")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > model.MaxBodyLen {
		return nil, ErrBodyTooLong
	}

	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := p.userRepo.WithTx(tx).GetByID(ctx, authorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		post = &model.Post{Body: body, Timestamp: p.now().UTC(), UserID: author.ID}
		return p.postRepo.WithTx(tx).Create(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}
