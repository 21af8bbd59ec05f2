package service

import (
	"errors"
	"time"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/repository"
)

var (
	ErrNoCredits  = errors.New("no credits remaining")
	ErrDailyLimit = errors.New("daily limit reached")
)

type QuotaService struct {
	userRepo  *repository.UserRepository
	imageRepo *repository.ImageRepository
	chatRepo  *repository.ChatRepository
	cfg       *config.Config
}

func NewQuotaService(userRepo *repository.UserRepository, imageRepo *repository.ImageRepository,
	chatRepo *repository.ChatRepository, cfg *config.Config) *QuotaService {
	return &QuotaService{
		userRepo:  userRepo,
		imageRepo: imageRepo,
		chatRepo:  chatRepo,
		cfg:       cfg,
	}
}

// ImageCredits 计算剩余生图额度。
// free：剩余免费额度（计数器）；pro：月度上限减去账期内的计费生成数（推导值，
// 不单独维护计数器，webhook 对账换期后自然归位）。
func (s *QuotaService) ImageCredits(user *model.User) (int, error) {
	if user.Plan == model.PlanPro {
		since := time.Time{}
		if user.PeriodStart != nil {
			since = *user.PeriodStart
		}
		used, err := s.imageRepo.CountBillableSince(user.ID, since)
		if err != nil {
			return 0, err
		}
		credits := s.cfg.Quota.ProMonthlyImages - int(used)
		if credits < 0 {
			credits = 0
		}
		return credits, nil
	}

	credits := user.FreeGrantRemaining
	if credits < 0 {
		credits = 0
	}
	return credits, nil
}

// CheckImageCredits 派发前检查，额度为零返回 ErrNoCredits
func (s *QuotaService) CheckImageCredits(user *model.User) error {
	credits, err := s.ImageCredits(user)
	if err != nil {
		return err
	}
	if credits <= 0 {
		return ErrNoCredits
	}
	return nil
}

// ChargeImage 成功落库后扣费。pro 用户的用量由计费图片行数推导，
// 无需显式扣减；free 用户扣一次免费额度。
func (s *QuotaService) ChargeImage(user *model.User) error {
	if user.Plan == model.PlanPro {
		return nil
	}
	return s.userRepo.ConsumeFreeGrant(user.ID)
}

// ChatRemaining 当日（UTC 自然日）剩余可发送的用户消息数
func (s *QuotaService) ChatRemaining(chatID int64) (int, error) {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	sent, err := s.chatRepo.CountUserMessagesSince(chatID, dayStart)
	if err != nil {
		return 0, err
	}
	remaining := s.cfg.Quota.ChatDailyLimit - int(sent)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CheckChatLimit 发送前检查，当日额度用尽返回 ErrDailyLimit
func (s *QuotaService) CheckChatLimit(chatID int64) error {
	remaining, err := s.ChatRemaining(chatID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return ErrDailyLimit
	}
	return nil
}
