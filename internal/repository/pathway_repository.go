package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"toll-engine/internal/model"
)

type PathwayRepository struct {
	db *gorm.DB
}

func NewPathwayRepository(db *gorm.DB) *PathwayRepository {
	return &PathwayRepository{db: db}
}

// ReplaceForZone swaps the full pathway set of a zone in one
// transaction, mirroring how the pathway manager saves edits wholesale.
func (r *PathwayRepository) ReplaceForZone(ctx context.Context, zoneID uuid.UUID, pathways []model.Pathway) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("zone_id = ?", zoneID).Delete(&model.Pathway{}).Error; err != nil {
			return err
		}
		if len(pathways) == 0 {
			return nil
		}
		return tx.Create(&pathways).Error
	})
}

func (r *PathwayRepository) ListByZone(ctx context.Context, zoneID uuid.UUID) ([]model.Pathway, error) {
	var pathways []model.Pathway
	err := r.db.WithContext(ctx).Where("zone_id = ?", zoneID).Order("position ASC").Find(&pathways).Error
	return pathways, err
}

func (r *PathwayRepository) List(ctx context.Context) ([]model.Pathway, error) {
	var pathways []model.Pathway
	err := r.db.WithContext(ctx).Order("position ASC").Find(&pathways).Error
	return pathways, err
}
