package handler

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/persona_go_server/internal/api/middleware"
	"github.com/qs3c/persona_go_server/internal/model/dto"
	"github.com/qs3c/persona_go_server/internal/pkg/response"
	"github.com/qs3c/persona_go_server/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Get 会话状态（消息最旧在前），顺带播种开场白
// GET /api/chat
func (h *ChatHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	state, err := h.chatService.Get(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.OK(c, state)
}

// Send 发消息并派发回复任务
// POST /api/chat/message
func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}

	err := h.chatService.Send(c.Request.Context(), userID, req.Content)
	switch {
	case errors.Is(err, service.ErrEmptyContent):
		response.ParamError(c, "content is required")
	case errors.Is(err, service.ErrInfluencerNotReady):
		response.Conflict(c, "influencer not ready")
	case errors.Is(err, service.ErrDailyLimit):
		response.DailyLimit(c, "")
	case errors.Is(err, service.ErrDispatchFailed):
		response.UpstreamError(c, "")
	case err != nil:
		response.ServerError(c, "")
	default:
		response.Accepted(c, dto.QueuedResponse{Status: "queued"})
	}
}

// Finalize 工作流引擎聊天回复回调
// POST /api/chat/finalize
func (h *ChatHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "")
		return
	}
	if req.ChatID == 0 || req.Reply == "" {
		response.ParamError(c, "chat_id and reply are required")
		return
	}

	err := h.chatService.FinalizeReply(c.Request.Context(), &req)
	switch {
	case errors.Is(err, service.ErrChatNotFound):
		response.NotFound(c, "chat not found")
	case err != nil:
		log.Printf("chat finalize failed: %v", err)
		response.ServerError(c, "")
	default:
		response.OK(c, gin.H{"status": "ok"})
	}
}
