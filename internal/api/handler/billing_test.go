package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/repository"
	"github.com/qs3c/persona_go_server/internal/service"
	"github.com/qs3c/persona_go_server/internal/testutil"
)

const testWebhookSecret = "whsec_test"

type stubProvider struct {
	customers int
}

func (p *stubProvider) CreateCustomer(userID string, email *string) (string, error) {
	p.customers++
	return fmt.Sprintf("cus_stub_%d", p.customers), nil
}

func (p *stubProvider) CreateCheckoutSession(customerID, userID string) (string, error) {
	return "https://checkout.example/" + customerID, nil
}

func (p *stubProvider) CreatePortalSession(customerID string) (string, error) {
	return "https://portal.example/" + customerID, nil
}

func setupBillingHandler(t *testing.T) (*BillingHandler, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Stripe: config.StripeConfig{WebhookSecret: testWebhookSecret},
	}
	billingService := service.NewBillingService(
		repository.NewUserRepository(db), &stubProvider{}, cfg)
	return NewBillingHandler(billingService, cfg), db
}

func TestBillingHandler_Upgrade(t *testing.T) {
	h, db := setupBillingHandler(t)
	user := testutil.TestUser(t, db)

	router := gin.New()
	router.POST("/upgrade", mockAuth(user.ID), h.Upgrade)

	w := doJSON(router, http.MethodPost, "/upgrade", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Contains(t, body["url"], "https://checkout.example/")

	// 客户号已落库
	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.NotNil(t, reloaded.StripeCustomerID)
}

func TestBillingHandler_Portal(t *testing.T) {
	h, db := setupBillingHandler(t)
	user := testutil.TestUser(t, db, testutil.WithStripeCustomer("cus_known"))

	router := gin.New()
	router.POST("/billing-portal", mockAuth(user.ID), h.Portal)

	w := doJSON(router, http.MethodPost, "/billing-portal", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://portal.example/cus_known", decodeJSON(t, w)["url"])
}

func webhookRequest(t *testing.T, payload map[string]interface{}, secret string) *http.Request {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", stripeSignature(secret, data, time.Now()))
	return req
}

func TestBillingHandler_Webhook_SubscriptionDeleted(t *testing.T) {
	h, db := setupBillingHandler(t)
	user := testutil.TestUser(t, db,
		testutil.WithPlan(model.PlanPro),
		testutil.WithStripeCustomer("cus_hook"))

	router := gin.New()
	router.POST("/stripe/webhook", h.Webhook)

	payload := map[string]interface{}{
		"id":   "evt_1",
		"type": "customer.subscription.deleted",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"customer": "cus_hook",
				"status":   "canceled",
			},
		},
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, webhookRequest(t, payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeJSON(t, w)["received"])

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, model.PlanFree, reloaded.Plan)
	assert.Equal(t, model.SubscriptionCanceled, reloaded.SubscriptionStatus)
}

func TestBillingHandler_Webhook_BadSignature(t *testing.T) {
	h, db := setupBillingHandler(t)
	user := testutil.TestUser(t, db,
		testutil.WithPlan(model.PlanPro),
		testutil.WithStripeCustomer("cus_hook"))

	router := gin.New()
	router.POST("/stripe/webhook", h.Webhook)

	payload := map[string]interface{}{
		"id":   "evt_2",
		"type": "customer.subscription.deleted",
		"data": map[string]interface{}{
			"object": map[string]interface{}{"customer": "cus_hook", "status": "canceled"},
		},
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, webhookRequest(t, payload, "whsec_wrong"))

	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 验签失败不改数据
	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, model.PlanPro, reloaded.Plan)
}

func TestBillingHandler_Webhook_MissingSignature(t *testing.T) {
	h, _ := setupBillingHandler(t)

	router := gin.New()
	router.POST("/stripe/webhook", h.Webhook)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", strings.NewReader(`{}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingHandler_Webhook_UnhandledEventAcknowledged(t *testing.T) {
	h, _ := setupBillingHandler(t)

	router := gin.New()
	router.POST("/stripe/webhook", h.Webhook)

	payload := map[string]interface{}{
		"id":   "evt_3",
		"type": "invoice.paid",
		"data": map[string]interface{}{"object": map[string]interface{}{}},
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, webhookRequest(t, payload, testWebhookSecret))

	assert.Equal(t, http.StatusOK, w.Code)
}
