package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/model/dto"
	"github.com/qs3c/persona_go_server/internal/pkg/pubsub"
	"github.com/qs3c/persona_go_server/internal/pkg/storage"
	"github.com/qs3c/persona_go_server/internal/pkg/workflow"
	"github.com/qs3c/persona_go_server/internal/repository"
)

var (
	ErrInfluencerExists   = errors.New("influencer already exists")
	ErrInfluencerNotFound = errors.New("influencer not found")
	ErrDispatchFailed     = errors.New("generation dispatch failed")
)

type InfluencerService struct {
	influencerRepo *repository.InfluencerRepository
	imageRepo      *repository.ImageRepository
	chatRepo       *repository.ChatRepository
	workflowClient *workflow.Client
	store          storage.Storage
	publisher      *pubsub.Publisher
	httpClient     *http.Client
}

func NewInfluencerService(
	influencerRepo *repository.InfluencerRepository,
	imageRepo *repository.ImageRepository,
	chatRepo *repository.ChatRepository,
	workflowClient *workflow.Client,
	store storage.Storage,
	publisher *pubsub.Publisher,
	httpClient *http.Client,
) *InfluencerService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &InfluencerService{
		influencerRepo: influencerRepo,
		imageRepo:      imageRepo,
		chatRepo:       chatRepo,
		workflowClient: workflowClient,
		store:          store,
		publisher:      publisher,
		httpClient:     httpClient,
	}
}

// Get 当前用户的人设，没有则返回 nil
func (s *InfluencerService) Get(userID string) (*model.Influencer, error) {
	influencer, err := s.influencerRepo.GetByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return influencer, nil
}

// Create 建号。每个用户只允许一个人设：先插入未锁定的壳记录，再派发
// 建号任务；派发失败则删掉壳，避免留下永远无法锁定的孤儿行。
func (s *InfluencerService) Create(ctx context.Context, userID string, req *dto.CreateInfluencerRequest) (*model.Influencer, error) {
	exists, err := s.influencerRepo.ExistsByUserID(userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrInfluencerExists
	}

	influencer := &model.Influencer{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   req.Name,
		Bio:    req.Bio,
		Vibe:   req.Vibe,
	}
	if err := s.influencerRepo.Create(influencer); err != nil {
		// 唯一索引兜住并发建号
		return nil, ErrInfluencerExists
	}

	job := &workflow.InfluencerJob{
		InfluencerID:   influencer.ID,
		UserID:         userID,
		Name:           req.Name,
		Bio:            req.Bio,
		Vibe:           req.Vibe,
		CallbackURL:    s.workflowClient.CallbackURL("/api/influencer/finalize"),
		CallbackSecret: s.workflowClient.Secret(),
	}
	if err := s.workflowClient.TriggerInfluencerSetup(ctx, job); err != nil {
		if delErr := s.influencerRepo.Delete(influencer.ID); delErr != nil {
			log.Printf("failed to roll back influencer shell %s: %v", influencer.ID, delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return influencer, nil
}

// Finalize 工作流回调：转存初始形象图、固化生成参数并锁定。
// created_at 重置为锁定时刻，作为人设的“出生时间”，聊天开场白的
// 延迟窗口以此为基准。
func (s *InfluencerService) Finalize(ctx context.Context, req *dto.FinalizeInfluencerRequest) error {
	influencer, err := s.influencerRepo.GetByID(req.InfluencerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInfluencerNotFound
	}
	if err != nil {
		return err
	}
	if influencer.IsLocked {
		// 重复回调按已完成处理
		return nil
	}

	data, contentType, err := downloadImage(ctx, s.httpClient, req.ImageURL)
	if err != nil {
		return err
	}

	name := "initial" + storage.ExtensionForContentType(contentType)
	url, err := s.store.SaveImage(influencer.UserID, name, data, contentType)
	if err != nil {
		return err
	}

	now := time.Now()
	influencer.BasePrompt = req.BasePrompt
	influencer.Seed = req.Seed
	influencer.InitialImageURL = url
	influencer.IsLocked = true
	influencer.LockedAt = &now
	influencer.CreatedAt = now
	if err := s.influencerRepo.Update(influencer); err != nil {
		return err
	}

	image := &model.Image{
		UserID:       influencer.UserID,
		InfluencerID: influencer.ID,
		URL:          url,
		IsInitial:    true,
	}
	if err := s.imageRepo.Create(image); err != nil {
		return err
	}

	// 会话提前建好是锦上添花，失败不影响锁定结果
	if _, err := s.chatRepo.Ensure(influencer.UserID, influencer.ID); err != nil {
		log.Printf("failed to pre-create chat for influencer %s: %v", influencer.ID, err)
	}

	if s.publisher != nil {
		event := &pubsub.Event{
			Type:         pubsub.EventInfluencerReady,
			UserID:       influencer.UserID,
			InfluencerID: influencer.ID,
			URL:          url,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("failed to publish influencer_ready event: %v", err)
		}
	}

	return nil
}
