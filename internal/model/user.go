package model

import (
	"time"
)

// 订阅计划
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// 订阅状态（由支付回调写入）
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// User 账户台账。ID 是外部身份服务签发的 UUID，首次请求时惰性建行。
type User struct {
	ID                 string     `gorm:"primaryKey;size:36" json:"id"`
	Email              *string    `gorm:"size:100" json:"email,omitempty"`
	Plan               string     `gorm:"size:20;default:free" json:"plan"`
	StripeCustomerID   *string    `gorm:"size:100;uniqueIndex" json:"-"`
	SubscriptionStatus string     `gorm:"size:20" json:"subscription_status,omitempty"`
	PeriodStart        *time.Time `json:"period_start,omitempty"`
	PeriodEnd          *time.Time `json:"period_end,omitempty"`
	FreeGrantRemaining int        `json:"free_grant_remaining"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
