package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LatLng is a geographic point in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Zone struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Vertices     []LatLng  `gorm:"type:jsonb;serializer:json;not null" json:"vertices"`
	CenterLat    float64   `json:"center_lat"`
	CenterLng    float64   `json:"center_lng"`
	MaxDistanceM float64   `gorm:"not null" json:"max_distance_m"`
	FlatRate     float64   `gorm:"not null" json:"flat_rate"`
	RatePerMeter float64   `json:"rate_per_meter"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Zone) TableName() string {
	return "zones"
}

func (z *Zone) BeforeCreate(tx *gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}
