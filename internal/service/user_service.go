package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

// Profile 用户主页信息
type Profile struct {
	User      *model.User `json:"user"`
	Avatar    string      `json:"avatar"`
	Following int64       `json:"following"`
	Followers int64       `json:"followers"`
}

type UserService interface {
	// Register 昵称冲突时自动追加数字后缀
	Register(ctx context.Context, nickname, email, aboutMe string) (*model.User, error)
	Get(ctx context.Context, id uint) (*model.User, error)
	Profile(ctx context.Context, id uint) (*Profile, error)
}

type userService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	avatarSize int
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, followRepo repository.FollowRepository, avatarSize int) UserService {
	return &userService{db: db, userRepo: userRepo, followRepo: followRepo, avatarSize: avatarSize}
}

func (s *userService) Register(ctx context.Context, nickname, email, aboutMe string) (user *model.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer func() { endSpan(span, err) }()

	nickname = strings.TrimSpace(nickname)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		taken, err := users.EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		name, err := users.MakeUniqueNickname(ctx, nickname)
		if err != nil {
			return err
		}
		user = &model.User{Nickname: name, Email: email, AboutMe: aboutMe}
		return users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *userService) Profile(ctx context.Context, id uint) (*Profile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	following, err := s.followRepo.Following(ctx, u).Count()
	if err != nil {
		return nil, err
	}
	followers, err := s.followRepo.Followers(ctx, u).Count()
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Avatar: u.Avatar(s.avatarSize), Following: following, Followers: followers}, nil
}
