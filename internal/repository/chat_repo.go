package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/persona_go_server/internal/model"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Ensure 按 (user, influencer) 幂等取或建。唯一索引兜底并发创建，
// 冲突时回查已有行。
func (r *ChatRepository) Ensure(userID, influencerID string) (*model.Chat, error) {
	chat := &model.Chat{
		UserID:       userID,
		InfluencerID: influencerID,
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(chat).Error
	if err != nil {
		return nil, err
	}
	if chat.ID != 0 {
		return chat, nil
	}
	return r.GetByPair(userID, influencerID)
}

func (r *ChatRepository) GetByPair(userID, influencerID string) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.Where("user_id = ? AND influencer_id = ?", userID, influencerID).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) GetByID(id int64) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.Where("id = ?", id).First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) CreateMessage(message *model.Message) error {
	return r.db.Create(message).Error
}

func (r *ChatRepository) DeleteMessage(id int64) error {
	return r.db.Where("id = ?", id).Delete(&model.Message{}).Error
}

// ListMessages 全量消息，最旧在前
func (r *ChatRepository) ListMessages(chatID int64) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// ListRecentMessages 最近 limit 条，最旧在前（作为生成上下文）
func (r *ChatRepository) ListRecentMessages(chatID int64, limit int) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 倒回时间正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *ChatRepository) CountMessages(chatID int64) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).Where("chat_id = ?", chatID).Count(&count).Error
	return count, err
}

// CountUserMessagesSince 统计 since 之后用户角色的消息数（日上限用）
func (r *ChatRepository) CountUserMessagesSince(chatID int64, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Message{}).
		Where("chat_id = ? AND role = ? AND created_at >= ?", chatID, model.RoleUser, since).
		Count(&count).Error
	return count, err
}
