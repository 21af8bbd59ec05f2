package dto

import (
	"github.com/qs3c/persona_go_server/internal/model"
)

type CreateImageRequest struct {
	Prompt string `json:"prompt"`
}

type FinalizeImageRequest struct {
	CallbackSecret string `json:"callback_secret,omitempty"`
	InfluencerID   string `json:"influencer_id"`
	ImageURL       string `json:"image_url"`
	Prompt         string `json:"prompt,omitempty"`
}

type ImageListResponse struct {
	Images []*model.Image `json:"images"`
}
