package handler

import (
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/persona_go_server/internal/api/middleware"
	"github.com/qs3c/persona_go_server/internal/model/dto"
	"github.com/qs3c/persona_go_server/internal/pkg/response"
	"github.com/qs3c/persona_go_server/internal/service"
)

type ImageHandler struct {
	imageService *service.ImageService
}

func NewImageHandler(imageService *service.ImageService) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
	}
}

// List 相册（不含建号图，新图在前）
// GET /api/images
func (h *ImageHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	images, err := h.imageService.List(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.OK(c, dto.ImageListResponse{Images: images})
}

// Create 派发生图任务
// POST /api/images/create
func (h *ImageHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req dto.CreateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.ParamError(c, "prompt is required")
		return
	}

	err := h.imageService.Create(c.Request.Context(), userID, req.Prompt)
	switch {
	case errors.Is(err, service.ErrInfluencerNotReady):
		response.Conflict(c, "influencer not ready")
	case errors.Is(err, service.ErrNoCredits):
		response.PaymentRequired(c, "")
	case errors.Is(err, service.ErrDispatchFailed):
		response.UpstreamError(c, "")
	case err != nil:
		response.ServerError(c, "")
	default:
		response.Accepted(c, dto.QueuedResponse{Status: "queued"})
	}
}

// Finalize 工作流引擎生图完成回调
// POST /api/images/finalize
func (h *ImageHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}
	if req.InfluencerID == "" || req.ImageURL == "" {
		response.ParamError(c, "influencer_id and image_url are required")
		return
	}

	err := h.imageService.Finalize(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInfluencerNotFound):
		response.NotFound(c, "influencer not found")
	case err != nil:
		log.Printf("image finalize failed: %v", err)
		response.UpstreamError(c, "failed to store image")
	default:
		response.OK(c, gin.H{"status": "ok"})
	}
}
