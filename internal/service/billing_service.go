package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/tidwall/gjson"

	"github.com/qs3c/persona_go_server/config"
	"github.com/qs3c/persona_go_server/internal/model"
	"github.com/qs3c/persona_go_server/internal/repository"
)

var ErrBillingNotConfigured = errors.New("billing not configured")

// PaymentProvider 支付方操作的最小面，测试时用假实现替换
type PaymentProvider interface {
	CreateCustomer(userID string, email *string) (string, error)
	CreateCheckoutSession(customerID, userID string) (string, error)
	CreatePortalSession(customerID string) (string, error)
}

// StripeProvider 真实的 Stripe 实现
type StripeProvider struct {
	cfg *config.Config
}

func NewStripeProvider(cfg *config.Config) *StripeProvider {
	stripe.Key = cfg.Stripe.SecretKey
	return &StripeProvider{cfg: cfg}
}

func (p *StripeProvider) CreateCustomer(userID string, email *string) (string, error) {
	params := &stripe.CustomerParams{
		Metadata: map[string]string{"user_id": userID},
	}
	if email != nil {
		params.Email = stripe.String(*email)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(customerID, userID string) (string, error) {
	frontendURL := strings.TrimRight(p.cfg.Frontend.BaseURL, "/")
	if p.cfg.Stripe.PriceIDPro == "" || frontendURL == "" {
		return "", ErrBillingNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.cfg.Stripe.PriceIDPro),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(frontendURL + "/dashboard?upgraded=1"),
		CancelURL:  stripe.String(frontendURL + "/dashboard?cancelled=1"),
	}
	params.AddMetadata("user_id", userID)

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

func (p *StripeProvider) CreatePortalSession(customerID string) (string, error) {
	frontendURL := strings.TrimRight(p.cfg.Frontend.BaseURL, "/")
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(frontendURL + "/dashboard"),
	}

	sess, err := portalsession.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

type BillingService struct {
	userRepo *repository.UserRepository
	provider PaymentProvider
	cfg      *config.Config
}

func NewBillingService(userRepo *repository.UserRepository, provider PaymentProvider, cfg *config.Config) *BillingService {
	return &BillingService{
		userRepo: userRepo,
		provider: provider,
		cfg:      cfg,
	}
}

// ensureCustomer 惰性创建支付方客户并绑定
func (s *BillingService) ensureCustomer(user *model.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	if err := s.userRepo.LinkStripeCustomer(user.ID, customerID); err != nil {
		return "", err
	}
	return customerID, nil
}

// CheckoutURL 发起升级，返回托管结账页地址
func (s *BillingService) CheckoutURL(userID string) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}

	customerID, err := s.ensureCustomer(user)
	if err != nil {
		return "", err
	}

	return s.provider.CreateCheckoutSession(customerID, user.ID)
}

// PortalURL 返回订阅自助管理页地址
func (s *BillingService) PortalURL(userID string) (string, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return "", err
	}

	customerID, err := s.ensureCustomer(user)
	if err != nil {
		return "", err
	}

	return s.provider.CreatePortalSession(customerID)
}

// Reconcile 按 webhook 事件对账本地订阅状态。事件是唯一可信来源：
// checkout 成功只负责补绑客户号，计划切换一律等订阅事件。
func (s *BillingService) Reconcile(event *stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.reconcileCheckout(event)
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		return s.reconcileSubscription(event)
	default:
		// 未订阅的事件类型直接确认，避免重发风暴
		return nil
	}
}

func (s *BillingService) reconcileCheckout(event *stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("invalid checkout session payload: %w", err)
	}
	userID := sess.Metadata["user_id"]
	if sess.Customer == nil || userID == "" {
		return nil
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		// 本地无此用户时不报错，让 Stripe 停止重发
		log.Printf("checkout completed for unknown user %s", userID)
		return nil
	}
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return s.userRepo.LinkStripeCustomer(user.ID, sess.Customer.ID)
	}
	return nil
}

func (s *BillingService) reconcileSubscription(event *stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("invalid subscription payload: %w", err)
	}
	if sub.Customer == nil {
		return nil
	}

	user, err := s.userRepo.GetByStripeCustomerID(sub.Customer.ID)
	if err != nil {
		log.Printf("subscription event for unknown customer %s", sub.Customer.ID)
		return nil
	}

	plan, status := mapSubscriptionStatus(string(sub.Status))

	var periodStart, periodEnd *time.Time
	if plan == model.PlanPro {
		periodStart, periodEnd = extractPeriod(event.Data.Raw)
	}

	return s.userRepo.SetSubscription(user.ID, plan, status, periodStart, periodEnd)
}

// mapSubscriptionStatus 把 Stripe 订阅状态折算到本地计划
func mapSubscriptionStatus(status string) (plan, local string) {
	switch status {
	case "active", "trialing":
		return model.PlanPro, model.SubscriptionActive
	case "past_due":
		return model.PlanFree, model.SubscriptionPastDue
	default:
		return model.PlanFree, model.SubscriptionCanceled
	}
}

// extractPeriod 取账期边界。新版 API 把 current_period_* 挪进了
// subscription item，这里两个位置都找。
func extractPeriod(raw []byte) (start, end *time.Time) {
	startTS := gjson.GetBytes(raw, "current_period_start")
	endTS := gjson.GetBytes(raw, "current_period_end")
	if !startTS.Exists() {
		startTS = gjson.GetBytes(raw, "items.data.0.current_period_start")
		endTS = gjson.GetBytes(raw, "items.data.0.current_period_end")
	}

	if startTS.Exists() && startTS.Int() > 0 {
		t := time.Unix(startTS.Int(), 0).UTC()
		start = &t
	}
	if endTS.Exists() && endTS.Int() > 0 {
		t := time.Unix(endTS.Int(), 0).UTC()
		end = &t
	}
	return start, end
}
