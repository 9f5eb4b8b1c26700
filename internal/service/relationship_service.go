package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/pkg/logger"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// FeedOptions 调用方对 feed 查询追加的条件
// Before/BeforeID 组成翻页游标 (timestamp, id)，与 feed 的排序一致；BeforeID 为 0 时只按时间过滤
type FeedOptions struct {
	Limit    int
	Before   *time.Time
	BeforeID uint
}

// RelationshipService 关系链服务：每个操作一个事务，提交后失效缓存
type RelationshipService interface {
	// Follow/Unfollow 返回 true 表示本次调用改变了关系，false 表示 no-op
	Follow(ctx context.Context, actorID, targetID uint) (bool, error)
	Unfollow(ctx context.Context, actorID, targetID uint) (bool, error)
	IsFollowing(ctx context.Context, actorID, targetID uint) (bool, error)
	ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]model.User, error)
	ListFollowers(ctx context.Context, userID uint, page, pageSize int) ([]model.User, error)
	Feed(ctx context.Context, userID uint, opts FeedOptions) ([]model.Post, error)
}

type relationshipService struct {
	db              *gorm.DB
	userRepo        repository.UserRepository
	followRepo      repository.FollowRepository
	cache           *cache.FollowCache
	allowSelfFollow bool
}

// NewRelationshipService followCache 可为 nil（不启用缓存）
func NewRelationshipService(db *gorm.DB, userRepo repository.UserRepository, followRepo repository.FollowRepository, followCache *cache.FollowCache, allowSelfFollow bool) RelationshipService {
	return &relationshipService{db: db, userRepo: userRepo, followRepo: followRepo, cache: followCache, allowSelfFollow: allowSelfFollow}
}

func (s *relationshipService) Follow(ctx context.Context, actorID, targetID uint) (changed bool, err error) {
	ctx, span := tracer.Start(ctx, "RelationshipService.Follow")
	defer func() { endSpan(span, err) }()

	if actorID == targetID && !s.allowSelfFollow {
		return false, ErrFollowSelf
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, target, err := s.loadPair(ctx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		res, err := s.followRepo.WithTx(tx).Follow(ctx, actor, target)
		if err != nil {
			return err
		}
		changed = res != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	span.SetAttributes(attribute.Bool("changed", changed))
	if changed {
		s.invalidate(ctx, actorID, targetID)
	}
	return changed, nil
}

func (s *relationshipService) Unfollow(ctx context.Context, actorID, targetID uint) (changed bool, err error) {
	ctx, span := tracer.Start(ctx, "RelationshipService.Unfollow")
	defer func() { endSpan(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		actor, target, err := s.loadPair(ctx, tx, actorID, targetID)
		if err != nil {
			return err
		}
		res, err := s.followRepo.WithTx(tx).Unfollow(ctx, actor, target)
		if err != nil {
			return err
		}
		changed = res != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	span.SetAttributes(attribute.Bool("changed", changed))
	if changed {
		s.invalidate(ctx, actorID, targetID)
	}
	return changed, nil
}

func (s *relationshipService) IsFollowing(ctx context.Context, actorID, targetID uint) (ok bool, err error) {
	ctx, span := tracer.Start(ctx, "RelationshipService.IsFollowing")
	defer func() { endSpan(span, err) }()

	load := func(ctx context.Context) (bool, error) {
		return s.followRepo.IsFollowing(ctx, &model.User{ID: actorID}, &model.User{ID: targetID})
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.IsFollowing(ctx, actorID, targetID, load)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]model.User, error) {
	user, err := s.getUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	return s.followRepo.Following(ctx, user).Offset(offset).Limit(limit).Find()
}

func (s *relationshipService) ListFollowers(ctx context.Context, userID uint, page, pageSize int) ([]model.User, error) {
	user, err := s.getUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	offset, limit := pageBounds(page, pageSize)
	return s.followRepo.Followers(ctx, user).Offset(offset).Limit(limit).Find()
}

func (s *relationshipService) Feed(ctx context.Context, userID uint, opts FeedOptions) (posts []model.Post, err error) {
	ctx, span := tracer.Start(ctx, "RelationshipService.Feed")
	defer func() { endSpan(span, err) }()

	user, err := s.getUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	q := s.followRepo.FollowedPosts(ctx, user)
	switch {
	case opts.Before != nil && opts.BeforeID > 0:
		q = q.Where("(posts.timestamp < ? OR (posts.timestamp = ? AND posts.id < ?))", *opts.Before, *opts.Before, opts.BeforeID)
	case opts.Before != nil:
		q = q.Where("posts.timestamp < ?", *opts.Before)
	}
	return q.Limit(limit).Find()
}

func (s *relationshipService) loadPair(ctx context.Context, tx *gorm.DB, actorID, targetID uint) (*model.User, *model.User, error) {
	actor, err := s.getUser(ctx, tx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if targetID == actorID {
		return actor, actor, nil
	}
	target, err := s.getUser(ctx, tx, targetID)
	if err != nil {
		return nil, nil, err
	}
	return actor, target, nil
}

func (s *relationshipService) getUser(ctx context.Context, tx *gorm.DB, id uint) (*model.User, error) {
	u, err := s.userRepo.WithTx(tx).GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *relationshipService) invalidate(ctx context.Context, actorID, targetID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, actorID, targetID); err != nil {
		logger.Warn("invalidate follow cache", zap.Uint("actor", actorID), zap.Uint("target", targetID), zap.Error(err))
	}
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxFeedLimit {
		pageSize = maxFeedLimit
	}
	return (page - 1) * pageSize, pageSize
}
