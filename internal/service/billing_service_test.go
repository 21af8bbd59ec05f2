package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/repository"
	"github.com/qs3c/persona_go_server/internal/testutil"
)

// fakeProvider 记录调用，不出网
type fakeProvider struct {
	createdCustomers int
	checkoutCalls    int
	portalCalls      int
	lastCustomerID   string
}

func (f *fakeProvider) CreateCustomer(userID string, email *string) (string, error) {
	f.createdCustomers++
	return fmt.Sprintf("cus_fake_%d", f.createdCustomers), nil
}

func (f *fakeProvider) CreateCheckoutSession(customerID, userID string) (string, error) {
	f.checkoutCalls++
	f.lastCustomerID = customerID
	return "https://checkout.example/session", nil
}

func (f *fakeProvider) CreatePortalSession(customerID string) (string, error) {
	f.portalCalls++
	f.lastCustomerID = customerID
	return "https://portal.example/session", nil
}

func setupBillingService(t *testing.T) (*BillingService, *fakeProvider, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	provider := &fakeProvider{}
	service := NewBillingService(repository.NewUserRepository(db), provider, &config.Config{})
	return service, provider, db
}

func subscriptionEvent(t *testing.T, eventType, customerID, status string, raw map[string]interface{}) *stripe.Event {
	t.Helper()

	if raw == nil {
		raw = map[string]interface{}{}
	}
	raw["customer"] = customerID
	raw["status"] = status
	data, err := json.Marshal(raw)
	require.NoError(t, err)

	return &stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: data},
	}
}

func TestBillingService_CheckoutURL_CreatesCustomerOnce(t *testing.T) {
	service, provider, db := setupBillingService(t)

	user := testutil.TestUser(t, db)

	url, err := service.CheckoutURL(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/session", url)
	assert.Equal(t, 1, provider.createdCustomers)

	// 第二次复用已绑定的客户号
	_, err = service.CheckoutURL(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.createdCustomers)
	assert.Equal(t, 2, provider.checkoutCalls)
}

func TestBillingService_CheckoutURL_ReusesLinkedCustomer(t *testing.T) {
	service, provider, db := setupBillingService(t)

	user := testutil.TestUser(t, db, testutil.WithStripeCustomer("cus_existing"))

	_, err := service.CheckoutURL(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, provider.createdCustomers)
	assert.Equal(t, "cus_existing", provider.lastCustomerID)
}

func TestBillingService_PortalURL(t *testing.T) {
	service, provider, db := setupBillingService(t)

	user := testutil.TestUser(t, db, testutil.WithStripeCustomer("cus_portal"))

	url, err := service.PortalURL(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/session", url)
	assert.Equal(t, "cus_portal", provider.lastCustomerID)
	assert.Equal(t, 1, provider.portalCalls)
}

func TestBillingService_Reconcile_CheckoutLinksCustomer(t *testing.T) {
	service, _, db := setupBillingService(t)

	user := testutil.TestUser(t, db)

	raw, err := json.Marshal(map[string]interface{}{
		"customer": "cus_linked",
		"metadata": map[string]string{"user_id": user.ID},
	})
	require.NoError(t, err)
	event := &stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}

	require.NoError(t, service.Reconcile(event))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	require.NotNil(t, reloaded.StripeCustomerID)
	assert.Equal(t, "cus_linked", *reloaded.StripeCustomerID)
}

func TestBillingService_Reconcile_ActiveSubscription(t *testing.T) {
	service, _, db := setupBillingService(t)

	user := testutil.TestUser(t, db, testutil.WithStripeCustomer("cus_active"))

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	event := subscriptionEvent(t, "customer.subscription.updated", "cus_active", "active",
		map[string]interface{}{
			"current_period_start": start.Unix(),
			"current_period_end":   end.Unix(),
		})

	require.NoError(t, service.Reconcile(event))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, model.PlanPro, reloaded.Plan)
	assert.Equal(t, model.SubscriptionActive, reloaded.SubscriptionStatus)
	require.NotNil(t, reloaded.PeriodStart)
	assert.True(t, reloaded.PeriodStart.Equal(start))
}

func TestBillingService_Reconcile_PeriodFromLineItem(t *testing.T) {
	service, _, db := setupBillingService(t)

	user := testutil.TestUser(t, db, testutil.WithStripeCustomer("cus_item"))

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	event := subscriptionEvent(t, "customer.subscription.created", "cus_item", "trialing",
		map[string]interface{}{
			"items": map[string]interface{}{
				"data": []map[string]interface{}{
					{
						"current_period_start": start.Unix(),
						"current_period_end":   end.Unix(),
					},
				},
			},
		})

	require.NoError(t, service.Reconcile(event))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, model.PlanPro, reloaded.Plan)
	require.NotNil(t, reloaded.PeriodEnd)
	assert.True(t, reloaded.PeriodEnd.Equal(end))
}

func TestBillingService_Reconcile_PastDue(t *testing.T) {
	service, _, db := setupBillingService(t)

	user := testutil.TestUser(t, db, testutil.WithPlan(model.PlanPro), testutil.WithStripeCustomer("cus_due"))

	event := subscriptionEvent(t, "customer.subscription.updated", "cus_due", "past_due", nil)
	require.NoError(t, service.Reconcile(event))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, model.PlanFree, reloaded.Plan)
	assert.Equal(t, model.SubscriptionPastDue, reloaded.SubscriptionStatus)
}

func TestBillingService_Reconcile_DeletedClearsPeriod(t *testing.T) {
	service, _, db := setupBillingService(t)

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(24 * time.Hour)
	user := testutil.TestUser(t, db,
		testutil.WithPlan(model.PlanPro),
		testutil.WithPeriod(start, end),
		testutil.WithStripeCustomer("cus_gone"))

	event := subscriptionEvent(t, "customer.subscription.deleted", "cus_gone", "canceled", nil)
	require.NoError(t, service.Reconcile(event))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, model.PlanFree, reloaded.Plan)
	assert.Equal(t, model.SubscriptionCanceled, reloaded.SubscriptionStatus)
	assert.Nil(t, reloaded.PeriodStart)
	assert.Nil(t, reloaded.PeriodEnd)
}

func TestBillingService_Reconcile_UnknownCustomerIgnored(t *testing.T) {
	service, _, _ := setupBillingService(t)

	event := subscriptionEvent(t, "customer.subscription.updated", "cus_stranger", "active", nil)
	assert.NoError(t, service.Reconcile(event))
}

func TestBillingService_Reconcile_UnhandledEventIgnored(t *testing.T) {
	service, _, _ := setupBillingService(t)

	event := &stripe.Event{
		Type: "invoice.paid",
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	assert.NoError(t, service.Reconcile(event))
}
