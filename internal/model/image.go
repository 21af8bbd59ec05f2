package model

import (
	"time"
)

// Image 一条生成产物记录。IsInitial 标记建号图（不计费），
// 其余为计费生成，额度统计只看 is_initial=false。
type Image struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:36;not null;index" json:"user_id"`
	InfluencerID string    `gorm:"size:36;not null;index" json:"influencer_id"`
	URL          string    `gorm:"size:500;not null" json:"url"`
	Prompt       string    `gorm:"type:text" json:"prompt,omitempty"`
	IsInitial    bool      `gorm:"default:false" json:"is_initial"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Image) TableName() string {
	return "images"
}
