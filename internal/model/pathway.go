package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pathway is an ordered driving route through a zone, expressed as a
// sequence of at least two camera codes belonging to that zone.
type Pathway struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ZoneID      uuid.UUID `gorm:"type:uuid;not null;index" json:"zone_id"`
	Position    int       `gorm:"not null" json:"position"`
	CameraCodes []string  `gorm:"type:jsonb;serializer:json;not null" json:"camera_codes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Pathway) TableName() string {
	return "pathways"
}

func (p *Pathway) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
