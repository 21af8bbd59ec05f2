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

type InfluencerHandler struct {
	influencerService *service.InfluencerService
}

func NewInfluencerHandler(influencerService *service.InfluencerService) *InfluencerHandler {
	return &InfluencerHandler{
		influencerService: influencerService,
	}
}

// Get 当前用户的人设，没有则 influencer 为 null
// GET /api/influencer
func (h *InfluencerHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	influencer, err := h.influencerService.Get(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.OK(c, dto.InfluencerEnvelope{Influencer: influencer})
}

// Create 建号：插壳 + 派发建号任务
// POST /api/influencer
func (h *InfluencerHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req dto.CreateInfluencerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Bio = strings.TrimSpace(req.Bio)
	req.Vibe = strings.TrimSpace(req.Vibe)
	if req.Name == "" || req.Bio == "" || req.Vibe == "" {
		response.ParamError(c, "name, bio and vibe are required")
		return
	}

	influencer, err := h.influencerService.Create(c.Request.Context(), userID, &req)
	switch {
	case errors.Is(err, service.ErrInfluencerExists):
		response.Conflict(c, "influencer already exists")
	case errors.Is(err, service.ErrDispatchFailed):
		response.UpstreamError(c, "")
	case err != nil:
		response.ServerError(c, "")
	default:
		response.Accepted(c, dto.QueuedResponse{Status: "queued", InfluencerID: influencer.ID})
	}
}

// Finalize 工作流引擎建号完成回调（CallbackAuth 中间件把关）
// POST /api/influencer/finalize
func (h *InfluencerHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeInfluencerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}
	if req.InfluencerID == "" || req.BasePrompt == "" || req.ImageURL == "" {
		response.ParamError(c, "influencer_id, base_prompt and image_url are required")
		return
	}

	err := h.influencerService.Finalize(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInfluencerNotFound):
		response.NotFound(c, "influencer not found")
	case err != nil:
		log.Printf("influencer finalize failed: %v", err)
		response.UpstreamError(c, "failed to store image")
	default:
		response.OK(c, gin.H{"status": "ok"})
	}
}
