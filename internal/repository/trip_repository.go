package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"toll-engine/internal/model"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// Append inserts a closed trip record and fills in its ledger sequence
// id. Records are never updated afterwards.
func (r *TripRepository) Append(ctx context.Context, trip *model.Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

// GetByTripID fetches a record by its trip uuid, used to recover the
// ledger sequence when an append retry hits the unique index.
func (r *TripRepository) GetByTripID(ctx context.Context, id uuid.UUID) (*model.Trip, error) {
	var trip model.Trip
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// TripFilter narrows ledger queries. Zero values mean no constraint.
type TripFilter struct {
	Plate string
	Limit int
}

func (r *TripRepository) List(ctx context.Context, filter TripFilter) ([]model.Trip, error) {
	query := r.db.WithContext(ctx).Model(&model.Trip{})
	if filter.Plate != "" {
		query = query.Where("plate = ?", filter.Plate)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var trips []model.Trip
	err := query.Order("closed_at DESC").Find(&trips).Error
	return trips, err
}
