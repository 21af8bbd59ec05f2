package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/persona_go_server/internal/api/middleware"
	"github.com/qs3c/persona_go_server/internal/pkg/response"
	"github.com/qs3c/persona_go_server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Me 当前计划与剩余生图额度
// GET /api/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	me, err := h.userService.Me(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.OK(c, me)
}
