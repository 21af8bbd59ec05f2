package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	user := &model.User{
		ID:                 uuid.NewString(),
		Email:              &email,
		Plan:               model.PlanFree,
		FreeGrantRemaining: 3,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithPlan 设置计划
func WithPlan(plan string) func(*model.User) {
	return func(u *model.User) {
		u.Plan = plan
	}
}

// WithFreeGrant 设置剩余免费额度
func WithFreeGrant(remaining int) func(*model.User) {
	return func(u *model.User) {
		u.FreeGrantRemaining = remaining
	}
}

// WithPeriod 设置账期边界
func WithPeriod(start, end time.Time) func(*model.User) {
	return func(u *model.User) {
		u.PeriodStart = &start
		u.PeriodEnd = &end
		u.SubscriptionStatus = model.SubscriptionActive
	}
}

// WithStripeCustomer 绑定支付方客户号
func WithStripeCustomer(customerID string) func(*model.User) {
	return func(u *model.User) {
		u.StripeCustomerID = &customerID
	}
}

// TestInfluencer 创建测试人设（默认已锁定）
func TestInfluencer(t *testing.T, db *gorm.DB, userID string, opts ...func(*model.Influencer)) *model.Influencer {
	t.Helper()

	lockedAt := time.Now().Add(-time.Minute)
	influencer := &model.Influencer{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            "Luna",
		Bio:             "Dreamy artist from the coast",
		Vibe:            "soft sunset",
		IsLocked:        true,
		LockedAt:        &lockedAt,
		BasePrompt:      "portrait of luna, soft light",
		Seed:            42,
		InitialImageURL: "/media/" + userID + "/initial.png",
	}

	for _, opt := range opts {
		opt(influencer)
	}

	if err := db.Create(influencer).Error; err != nil {
		t.Fatalf("Failed to create test influencer: %v", err)
	}

	return influencer
}

// Unlocked 未锁定的壳记录
func Unlocked() func(*model.Influencer) {
	return func(i *model.Influencer) {
		i.IsLocked = false
		i.LockedAt = nil
		i.BasePrompt = ""
		i.Seed = 0
		i.InitialImageURL = ""
	}
}

// WithLockedAt 设置锁定时间
func WithLockedAt(at time.Time) func(*model.Influencer) {
	return func(i *model.Influencer) {
		i.IsLocked = true
		i.LockedAt = &at
	}
}

// TestImage 创建测试图片
func TestImage(t *testing.T, db *gorm.DB, userID, influencerID string, opts ...func(*model.Image)) *model.Image {
	t.Helper()

	image := &model.Image{
		UserID:       userID,
		InfluencerID: influencerID,
		URL:          fmt.Sprintf("/media/%s/%d.png", userID, time.Now().UnixNano()),
		IsInitial:    false,
	}

	for _, opt := range opts {
		opt(image)
	}

	if err := db.Create(image).Error; err != nil {
		t.Fatalf("Failed to create test image: %v", err)
	}

	return image
}

// Initial 建号图（不计费）
func Initial() func(*model.Image) {
	return func(i *model.Image) {
		i.IsInitial = true
	}
}

// WithImageCreatedAt 设置创建时间
func WithImageCreatedAt(at time.Time) func(*model.Image) {
	return func(i *model.Image) {
		i.CreatedAt = at
	}
}

// TestChat 创建测试会话
func TestChat(t *testing.T, db *gorm.DB, userID, influencerID string) *model.Chat {
	t.Helper()

	chat := &model.Chat{
		UserID:       userID,
		InfluencerID: influencerID,
	}

	if err := db.Create(chat).Error; err != nil {
		t.Fatalf("Failed to create test chat: %v", err)
	}

	return chat
}

// TestMessage 创建测试消息
func TestMessage(t *testing.T, db *gorm.DB, chatID int64, role, content string, opts ...func(*model.Message)) *model.Message {
	t.Helper()

	message := &model.Message{
		ChatID:  chatID,
		Role:    role,
		Content: content,
	}

	for _, opt := range opts {
		opt(message)
	}

	if err := db.Create(message).Error; err != nil {
		t.Fatalf("Failed to create test message: %v", err)
	}

	return message
}

// WithMessageCreatedAt 设置消息时间
func WithMessageCreatedAt(at time.Time) func(*model.Message) {
	return func(m *model.Message) {
		m.CreatedAt = at
	}
}
