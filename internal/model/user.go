package model

import (
	"strconv"
	"time"

	"github.com/d60-Lab/microblog/pkg/avatar"
)

// MaxNicknameLen 与 nickname 列宽一致
const MaxNicknameLen = 64

// User 用户
type User struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Nickname  string     `json:"nickname" gorm:"size:64;uniqueIndex;not null"`
	Email     string     `json:"email" gorm:"size:120;uniqueIndex;not null"`
	AboutMe   string     `json:"about_me" gorm:"size:140"`
	LastSeen  *time.Time `json:"last_seen"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// GetID 会话层使用的字符串 ID
func (u *User) GetID() string { return strconv.FormatUint(uint64(u.ID), 10) }

// 已加载的用户总是已认证、可用、非匿名
func (u *User) IsAuthenticated() bool { return true }
func (u *User) IsActive() bool        { return true }
func (u *User) IsAnonymous() bool     { return false }

// Avatar 按邮箱生成头像地址
func (u *User) Avatar(size int) string { return avatar.URL(u.Email, size) }

func (u *User) String() string { return "<User " + strconv.Quote(u.Nickname) + ">" }
