package model

import (
	"time"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat 每个 (user, influencer) 对唯一一条，首次访问时按需创建。
type Chat struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:36;not null;uniqueIndex:idx_chat_pair" json:"user_id"`
	InfluencerID string    `gorm:"size:36;not null;uniqueIndex:idx_chat_pair" json:"influencer_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Chat) TableName() string {
	return "chats"
}

type Message struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	ChatID    int64     `gorm:"not null;index" json:"chat_id"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
