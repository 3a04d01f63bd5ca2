package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"toll-engine/internal/model"
)

type CameraRepository struct {
	db *gorm.DB
}

func NewCameraRepository(db *gorm.DB) *CameraRepository {
	return &CameraRepository{db: db}
}

func (r *CameraRepository) Create(ctx context.Context, camera *model.Camera) error {
	return r.db.WithContext(ctx).Create(camera).Error
}

func (r *CameraRepository) GetByCode(ctx context.Context, code string) (*model.Camera, error) {
	var camera model.Camera
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&camera).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &camera, nil
}

func (r *CameraRepository) ListByZone(ctx context.Context, zoneID uuid.UUID) ([]model.Camera, error) {
	var cameras []model.Camera
	err := r.db.WithContext(ctx).Where("zone_id = ?", zoneID).Order("created_at ASC").Find(&cameras).Error
	return cameras, err
}

func (r *CameraRepository) List(ctx context.Context) ([]model.Camera, error) {
	var cameras []model.Camera
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&cameras).Error
	return cameras, err
}
