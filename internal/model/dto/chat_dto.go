package dto

import (
	"github.com/qs3c/persona_go_server/internal/model"
)

// ChatStateResponse GET /api/chat 返回体。人设未锁定时 Chat 为 nil。
type ChatStateResponse struct {
	Chat     *model.Chat      `json:"chat"`
	Messages []*model.Message `json:"messages"`
	CanSend  bool             `json:"can_send"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

type FinalizeChatRequest struct {
	CallbackSecret string `json:"callback_secret,omitempty"`
	ChatID         int64  `json:"chat_id"`
	Reply          string `json:"reply"`
}
