package model

// Follow 关注关系（Follower 关注 Followed）
// 复合主键 (follower_id, followed_id)，同一有序对最多一条边
type Follow struct {
	FollowerID uint  `gorm:"primaryKey;autoIncrement:false"`
	FollowedID uint  `gorm:"primaryKey;autoIncrement:false;index:idx_followers_followed"`
	Follower   *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followed   *User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
}

func (Follow) TableName() string { return "followers" }
