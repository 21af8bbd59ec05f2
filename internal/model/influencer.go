package model

import (
	"time"
)

// Influencer 用户的 AI 人设，每个用户至多一个（user_id 唯一索引）。
// 创建时先插入未锁定的壳记录，工作流回调 finalize 时写入
// base_prompt/seed 并锁定，此后生成参数不可变。
type Influencer struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Name            string     `gorm:"size:100;not null" json:"name"`
	Bio             string     `gorm:"type:text" json:"bio"`
	Vibe            string     `gorm:"size:200" json:"vibe"`
	IsLocked        bool       `gorm:"default:false" json:"is_locked"`
	LockedAt        *time.Time `json:"locked_at,omitempty"`
	BasePrompt      string     `gorm:"type:text" json:"-"`
	Seed            int64      `json:"-"`
	InitialImageURL string     `gorm:"size:500" json:"initial_image_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Influencer) TableName() string {
	return "influencers"
}
