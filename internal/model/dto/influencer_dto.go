package dto

import (
	"github.com/qs3c/persona_go_server/internal/model"
)

type CreateInfluencerRequest struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
	Vibe string `json:"vibe"`
}

// QueuedResponse 异步派发成功后的 202 返回体
type QueuedResponse struct {
	Status       string `json:"status"`
	InfluencerID string `json:"influencer_id,omitempty"`
}

// FinalizeInfluencerRequest 工作流引擎建号完成回调。
// CallbackSecret 允许放在 body（header 缺失时的回退）。
type FinalizeInfluencerRequest struct {
	CallbackSecret string `json:"callback_secret,omitempty"`
	InfluencerID   string `json:"influencer_id"`
	BasePrompt     string `json:"base_prompt"`
	Seed           int64  `json:"seed"`
	ImageURL       string `json:"image_url"`
}

type InfluencerEnvelope struct {
	Influencer *model.Influencer `json:"influencer"`
}
