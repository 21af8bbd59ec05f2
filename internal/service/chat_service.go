package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/model/dto"
	"github.com/qs3c/persona_go_server/internal/pkg/pubsub"
	"github.com/qs3c/persona_go_server/internal/pkg/workflow"
	"github.com/qs3c/persona_go_server/internal/repository"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrEmptyContent = errors.New("content is required")
)

// 开场白延迟：人设锁定后等这么久才“醒来”打招呼
const openerDelay = 10 * time.Second

// 派发聊天任务时附带的上下文条数
const chatContextSize = 20

type ChatService struct {
	chatRepo       *repository.ChatRepository
	influencerRepo *repository.InfluencerRepository
	quota          *QuotaService
	workflowClient *workflow.Client
	publisher      *pubsub.Publisher
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	influencerRepo *repository.InfluencerRepository,
	quota *QuotaService,
	workflowClient *workflow.Client,
	publisher *pubsub.Publisher,
) *ChatService {
	return &ChatService{
		chatRepo:       chatRepo,
		influencerRepo: influencerRepo,
		quota:          quota,
		workflowClient: workflowClient,
		publisher:      publisher,
	}
}

// Get 会话状态。人设未锁定时没有会话；首次读取且锁定已满延迟窗口时
// 播种一条开场白，窗口内重复读取不会重复播种。
func (s *ChatService) Get(userID string) (*dto.ChatStateResponse, error) {
	influencer, err := s.influencerRepo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &dto.ChatStateResponse{Messages: []*model.Message{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if !influencer.IsLocked {
		return &dto.ChatStateResponse{Messages: []*model.Message{}}, nil
	}

	chat, err := s.chatRepo.Ensure(userID, influencer.ID)
	if err != nil {
		return nil, err
	}

	count, err := s.chatRepo.CountMessages(chat.ID)
	if err != nil {
		return nil, err
	}
	if count == 0 && influencer.LockedAt != nil && time.Since(*influencer.LockedAt) >= openerDelay {
		opener := &model.Message{
			ChatID:  chat.ID,
			Role:    model.RoleAssistant,
			Content: openerText(influencer.Name),
		}
		if err := s.chatRepo.CreateMessage(opener); err != nil {
			return nil, err
		}
	}

	messages, err := s.chatRepo.ListMessages(chat.ID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.quota.ChatRemaining(chat.ID)
	if err != nil {
		return nil, err
	}

	return &dto.ChatStateResponse{
		Chat:     chat,
		Messages: messages,
		CanSend:  remaining > 0,
	}, nil
}

// Send 存用户消息并派发回复任务。派发失败时删掉刚存的消息，
// 保证失败的发送不占当日额度。
func (s *ChatService) Send(ctx context.Context, userID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}

	influencer, err := s.influencerRepo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInfluencerNotReady
	}
	if err != nil {
		return err
	}
	if !influencer.IsLocked {
		return ErrInfluencerNotReady
	}

	chat, err := s.chatRepo.Ensure(userID, influencer.ID)
	if err != nil {
		return err
	}

	if err := s.quota.CheckChatLimit(chat.ID); err != nil {
		return err
	}

	message := &model.Message{
		ChatID:  chat.ID,
		Role:    model.RoleUser,
		Content: content,
	}
	if err := s.chatRepo.CreateMessage(message); err != nil {
		return err
	}

	recent, err := s.chatRepo.ListRecentMessages(chat.ID, chatContextSize)
	if err != nil {
		return err
	}
	chatContext := make([]workflow.ContextMessage, 0, len(recent))
	for _, m := range recent {
		chatContext = append(chatContext, workflow.ContextMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	job := &workflow.ChatJob{
		ChatID:         chat.ID,
		UserID:         userID,
		InfluencerID:   influencer.ID,
		Name:           influencer.Name,
		Bio:            influencer.Bio,
		Vibe:           influencer.Vibe,
		Context:        chatContext,
		CallbackURL:    s.workflowClient.CallbackURL("/api/chat/finalize"),
		CallbackSecret: s.workflowClient.Secret(),
	}
	if err := s.workflowClient.TriggerChat(ctx, job); err != nil {
		if delErr := s.chatRepo.DeleteMessage(message.ID); delErr != nil {
			log.Printf("failed to roll back chat message %d: %v", message.ID, delErr)
		}
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return nil
}

// FinalizeReply 工作流回调：追加助手回复
func (s *ChatService) FinalizeReply(ctx context.Context, req *dto.FinalizeChatRequest) error {
	chat, err := s.chatRepo.GetByID(req.ChatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	if err != nil {
		return err
	}

	message := &model.Message{
		ChatID:  chat.ID,
		Role:    model.RoleAssistant,
		Content: req.Reply,
	}
	if err := s.chatRepo.CreateMessage(message); err != nil {
		return err
	}

	if s.publisher != nil {
		event := &pubsub.Event{
			Type:   pubsub.EventChatReply,
			UserID: chat.UserID,
			ChatID: chat.ID,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("failed to publish chat_reply event: %v", err)
		}
	}

	return nil
}

func openerText(name string) string {
	return fmt.Sprintf("hey, it's %s 💕 i just got here... tell me something about you?", name)
}
