package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/persona_go_server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure 惰性建行：首次见到该身份时插入，已存在则不动（幂等 upsert，
// 避免读后写竞争）。
func (r *UserRepository) Ensure(user *model.User) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(user).Error
}

func (r *UserRepository) GetByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByStripeCustomerID(customerID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id string, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// LinkStripeCustomer 绑定支付方客户号
func (r *UserRepository) LinkStripeCustomer(id, customerID string) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).
		Update("stripe_customer_id", customerID).Error
}

// SetSubscription 由 webhook 对账写入计划与账期边界
func (r *UserRepository) SetSubscription(id, plan, status string, periodStart, periodEnd *time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"plan":                plan,
		"subscription_status": status,
		"period_start":        periodStart,
		"period_end":          periodEnd,
	}).Error
}

// ConsumeFreeGrant 扣一次免费额度，条件更新保证下界为 0
func (r *UserRepository) ConsumeFreeGrant(id string) error {
	return r.db.Model(&model.User{}).
		Where("id = ? AND free_grant_remaining > 0", id).
		Update("free_grant_remaining", gorm.Expr("free_grant_remaining - 1")).Error
}
