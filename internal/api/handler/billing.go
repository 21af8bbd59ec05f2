package handler

import (
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/api/middleware"
	"github.com/qs3c/persona_go_server/internal/model/dto"
	"github.com/qs3c/persona_go_server/internal/pkg/response"
	"github.com/qs3c/persona_go_server/internal/service"
)

const maxWebhookBody = 65536

type BillingHandler struct {
	billingService *service.BillingService
	cfg            *config.Config
}

func NewBillingHandler(billingService *service.BillingService, cfg *config.Config) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		cfg:            cfg,
	}
}

// Upgrade 创建升级结账会话
// POST /api/upgrade
func (h *BillingHandler) Upgrade(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	url, err := h.billingService.CheckoutURL(userID)
	if err != nil {
		log.Printf("checkout failed for user %s: %v", userID, err)
		response.ServerError(c, "failed to start checkout")
		return
	}

	response.OK(c, dto.CheckoutResponse{URL: url})
}

// Portal 创建订阅自助管理会话
// POST /api/billing-portal
func (h *BillingHandler) Portal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}

	url, err := h.billingService.PortalURL(userID)
	if err != nil {
		log.Printf("portal failed for user %s: %v", userID, err)
		response.ServerError(c, "failed to open billing portal")
		return
	}

	response.OK(c, dto.CheckoutResponse{URL: url})
}

// Webhook Stripe 事件入口，验签失败一律 400
// POST /api/stripe/webhook
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ParamError(c, "invalid payload")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.cfg.Stripe.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		response.ParamError(c, "signature verification failed")
		return
	}

	if err := h.billingService.Reconcile(&event); err != nil {
		log.Printf("webhook reconcile failed for %s: %v", event.Type, err)
		response.ServerError(c, "")
		return
	}

	response.OK(c, gin.H{"received": true})
}
