package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/internal/model"
)

type InfluencerRepository struct {
	db *gorm.DB
}

func NewInfluencerRepository(db *gorm.DB) *InfluencerRepository {
	return &InfluencerRepository{db: db}
}

func (r *InfluencerRepository) Create(influencer *model.Influencer) error {
	return r.db.Create(influencer).Error
}

func (r *InfluencerRepository) GetByID(id string) (*model.Influencer, error) {
	var influencer model.Influencer
	err := r.db.Where("id = ?", id).First(&influencer).Error
	if err != nil {
		return nil, err
	}
	return &influencer, nil
}

func (r *InfluencerRepository) GetByUserID(userID string) (*model.Influencer, error) {
	var influencer model.Influencer
	err := r.db.Where("user_id = ?", userID).First(&influencer).Error
	if err != nil {
		return nil, err
	}
	return &influencer, nil
}

func (r *InfluencerRepository) ExistsByUserID(userID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Influencer{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

func (r *InfluencerRepository) Update(influencer *model.Influencer) error {
	return r.db.Save(influencer).Error
}

// Delete 删除壳记录（trigger 投递失败的补偿回滚）
func (r *InfluencerRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Influencer{}).Error
}

// ListStaleShells 列出超期未锁定的壳记录（finalize 回调一直没来），
// 供清理任务回收，否则会一直占着 one-per-user 的坑。
func (r *InfluencerRepository) ListStaleShells(before time.Time) ([]*model.Influencer, error) {
	var shells []*model.Influencer
	err := r.db.Where("is_locked = ? AND created_at < ?", false, before).Find(&shells).Error
	return shells, err
}
