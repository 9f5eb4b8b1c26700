package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
)

// UserRepository 用户仓储
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository

	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByNickname(ctx context.Context, nickname string) (*model.User, error)
	NicknameExists(ctx context.Context, nickname string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// MakeUniqueNickname 候选昵称未被占用时原样返回，否则依次尝试 name2, name3 ...
	MakeUniqueNickname(ctx context.Context, candidate string) (string, error)

	TouchLastSeen(ctx context.Context, id uint, at time.Time) error

	// Posts 用户自己的帖子，按时间倒序
	Posts(ctx context.Context, user *model.User) *Query[model.Post]
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository { return &userRepository{db: tx} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user %q: %w", user.Nickname, err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByNickname(ctx context.Context, nickname string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) NicknameExists(ctx context.Context, nickname string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("nickname = ?", nickname).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) MakeUniqueNickname(ctx context.Context, candidate string) (string, error) {
	taken, err := r.NicknameExists(ctx, candidate)
	if err != nil {
		return "", err
	}
	if !taken {
		return candidate, nil
	}
	for version := 2; ; version++ {
		name := withSuffix(candidate, strconv.Itoa(version))
		taken, err := r.NicknameExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
}

// withSuffix 追加数字后缀，超出列宽时先截断 base
func withSuffix(base, suffix string) string {
	rs := []rune(base)
	if keep := model.MaxNicknameLen - len(suffix); len(rs) > keep {
		rs = rs[:keep]
	}
	return string(rs) + suffix
}

func (r *userRepository) TouchLastSeen(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_seen", at).Error
}

func (r *userRepository) Posts(ctx context.Context, user *model.User) *Query[model.Post] {
	return newQuery[model.Post](r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("posts.user_id = ?", user.ID).
		Order("posts.timestamp DESC").
		Order("posts.id DESC"))
}
