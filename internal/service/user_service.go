package service

import (
	"github.com/google/uuid"
	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/model/dto"
	"github.com/qs3c/persona_go_server/internal/repository"
)

type UserService struct {
	userRepo *repository.UserRepository
	quota    *QuotaService
	cfg      *config.Config
}

func NewUserService(userRepo *repository.UserRepository, quota *QuotaService, cfg *config.Config) *UserService {
	return &UserService{
		userRepo: userRepo,
		quota:    quota,
		cfg:      cfg,
	}
}

// Ensure 按身份服务签发的 user_id 惰性建行。token 的 subject 必须是
// 合法 UUID，防止把任意字符串当主键写进库。
func (s *UserService) Ensure(userID string, email *string) (*model.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:                 userID,
		Email:              email,
		Plan:               model.PlanFree,
		FreeGrantRemaining: s.cfg.Quota.FreeImageGrant,
	}
	if err := s.userRepo.Ensure(user); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(userID)
}

func (s *UserService) GetByID(userID string) (*model.User, error) {
	return s.userRepo.GetByID(userID)
}

// Me 返回当前计划与剩余生图额度
func (s *UserService) Me(userID string) (*dto.MeResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	credits, err := s.quota.ImageCredits(user)
	if err != nil {
		return nil, err
	}

	return &dto.MeResponse{
		Plan:    user.Plan,
		Credits: credits,
	}, nil
}
