package model

import "time"

// MaxBodyLen 帖子正文最大字符数
const MaxBodyLen = 140

// Post 帖子，创建后不再修改
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Body      string    `json:"body" gorm:"size:140;not null"`
	Timestamp time.Time `json:"timestamp" gorm:"index:idx_post_timestamp;not null"`
	UserID    uint      `json:"user_id" gorm:"index:idx_post_author;not null"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string { return "posts" }
