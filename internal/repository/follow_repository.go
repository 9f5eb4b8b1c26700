package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/microblog/internal/model"
)

var ErrNilUser = errors.New("user is nil")

// FollowRepository 关系链存储。
// 所有写操作只在调用方给定的事务（WithTx）里暂存，从不自行提交。
type FollowRepository interface {
	WithTx(tx *gorm.DB) FollowRepository

	// Follow 建立 actor->target；本次调用新建了边时返回 actor，边已存在时返回 nil, nil
	Follow(ctx context.Context, actor, target *model.User) (*model.User, error)
	// Unfollow 删除 actor->target；删除了边时返回 actor，边不存在时返回 nil, nil
	Unfollow(ctx context.Context, actor, target *model.User) (*model.User, error)
	IsFollowing(ctx context.Context, actor, target *model.User) (bool, error)

	// FollowedPosts actor 关注的人发的帖子，按时间倒序
	FollowedPosts(ctx context.Context, actor *model.User) *Query[model.Post]
	Following(ctx context.Context, user *model.User) *Query[model.User]
	Followers(ctx context.Context, user *model.User) *Query[model.User]
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) WithTx(tx *gorm.DB) FollowRepository { return &followRepository{db: tx} }

func (r *followRepository) Follow(ctx context.Context, actor, target *model.User) (*model.User, error) {
	if actor == nil || target == nil {
		return nil, ErrNilUser
	}
	edge := &model.Follow{FollowerID: actor.ID, FollowedID: target.ID}
	// 复合主键冲突即已关注：DO NOTHING，靠影响行数区分是否由本次调用建立
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
	if res.Error != nil {
		return nil, fmt.Errorf("follow %d->%d: %w", actor.ID, target.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return actor, nil
}

func (r *followRepository) Unfollow(ctx context.Context, actor, target *model.User) (*model.User, error) {
	if actor == nil || target == nil {
		return nil, ErrNilUser
	}
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", actor.ID, target.ID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return nil, fmt.Errorf("unfollow %d->%d: %w", actor.ID, target.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return actor, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, actor, target *model.User) (bool, error) {
	if actor == nil || target == nil {
		return false, ErrNilUser
	}
	var cnt int64
	// 命中主键，最多一行
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND followed_id = ?", actor.ID, target.ID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *followRepository) FollowedPosts(ctx context.Context, actor *model.User) *Query[model.Post] {
	return newQuery[model.Post](r.db.WithContext(ctx).
		Model(&model.Post{}).
		Joins("JOIN followers ON followers.followed_id = posts.user_id").
		Where("followers.follower_id = ?", actor.ID).
		Order("posts.timestamp DESC").
		Order("posts.id DESC"))
}

func (r *followRepository) Following(ctx context.Context, user *model.User) *Query[model.User] {
	return newQuery[model.User](r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN followers ON followers.followed_id = users.id").
		Where("followers.follower_id = ?", user.ID).
		Order("users.id"))
}

func (r *followRepository) Followers(ctx context.Context, user *model.User) *Query[model.User] {
	return newQuery[model.User](r.db.WithContext(ctx).
		Model(&model.User{}).
		Joins("JOIN followers ON followers.follower_id = users.id").
		Where("followers.followed_id = ?", user.ID).
		Order("users.id"))
}
