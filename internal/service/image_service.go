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

var ErrInfluencerNotReady = errors.New("influencer not ready")

type ImageService struct {
	imageRepo      *repository.ImageRepository
	influencerRepo *repository.InfluencerRepository
	userRepo       *repository.UserRepository
	quota          *QuotaService
	workflowClient *workflow.Client
	store          storage.Storage
	publisher      *pubsub.Publisher
	httpClient     *http.Client
}

func NewImageService(
	imageRepo *repository.ImageRepository,
	influencerRepo *repository.InfluencerRepository,
	userRepo *repository.UserRepository,
	quota *QuotaService,
	workflowClient *workflow.Client,
	store storage.Storage,
	publisher *pubsub.Publisher,
	httpClient *http.Client,
) *ImageService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ImageService{
		imageRepo:      imageRepo,
		influencerRepo: influencerRepo,
		userRepo:       userRepo,
		quota:          quota,
		workflowClient: workflowClient,
		store:          store,
		publisher:      publisher,
		httpClient:     httpClient,
	}
}

// List 相册，不含建号图，新图在前
func (s *ImageService) List(userID string) ([]*model.Image, error) {
	return s.imageRepo.ListGallery(userID)
}

// Create 派发生图任务。额度在这里检查、在 Finalize 落库时扣，
// 两步之间没有事务衔接，并发下可能轻微超发。
func (s *ImageService) Create(ctx context.Context, userID, prompt string) error {
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

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if err := s.quota.CheckImageCredits(user); err != nil {
		return err
	}

	job := &workflow.ImageJob{
		InfluencerID:   influencer.ID,
		UserID:         userID,
		BasePrompt:     influencer.BasePrompt,
		Seed:           influencer.Seed,
		Bio:            influencer.Bio,
		Vibe:           influencer.Vibe,
		Prompt:         prompt,
		CallbackURL:    s.workflowClient.CallbackURL("/api/images/finalize"),
		CallbackSecret: s.workflowClient.Secret(),
	}
	if err := s.workflowClient.TriggerImage(ctx, job); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	return nil
}

// Finalize 工作流回调：转存图片、记一条计费生成并扣费
func (s *ImageService) Finalize(ctx context.Context, req *dto.FinalizeImageRequest) error {
	influencer, err := s.influencerRepo.GetByID(req.InfluencerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInfluencerNotFound
	}
	if err != nil {
		return err
	}

	data, contentType, err := downloadImage(ctx, s.httpClient, req.ImageURL)
	if err != nil {
		return err
	}

	name := uuid.NewString() + storage.ExtensionForContentType(contentType)
	url, err := s.store.SaveImage(influencer.UserID, name, data, contentType)
	if err != nil {
		return err
	}

	image := &model.Image{
		UserID:       influencer.UserID,
		InfluencerID: influencer.ID,
		URL:          url,
		Prompt:       req.Prompt,
		IsInitial:    false,
	}
	if err := s.imageRepo.Create(image); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(influencer.UserID)
	if err != nil {
		return err
	}
	if err := s.quota.ChargeImage(user); err != nil {
		log.Printf("failed to charge image quota for user %s: %v", user.ID, err)
	}

	if s.publisher != nil {
		event := &pubsub.Event{
			Type:         pubsub.EventImageReady,
			UserID:       influencer.UserID,
			InfluencerID: influencer.ID,
			URL:          url,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("failed to publish image_ready event: %v", err)
		}
	}

	return nil
}
