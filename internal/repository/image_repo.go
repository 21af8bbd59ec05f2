package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/persona_go_server/internal/model"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(image *model.Image) error {
	return r.db.Create(image).Error
}

// ListGallery 用户的计费生成图，建号图不在相册里
func (r *ImageRepository) ListGallery(userID string) ([]*model.Image, error) {
	var images []*model.Image
	err := r.db.Where("user_id = ? AND is_initial = ?", userID, false).
		Order("created_at DESC").
		Find(&images).Error
	return images, err
}

// CountBillableSince 统计 since 之后的计费图数量，is_initial 不计入
func (r *ImageRepository) CountBillableSince(userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Image{}).
		Where("user_id = ? AND is_initial = ? AND created_at >= ?", userID, false, since).
		Count(&count).Error
	return count, err
}

func (r *ImageRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Image{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
