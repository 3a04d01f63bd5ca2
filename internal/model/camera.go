package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CameraRole string

const (
	CameraRoleEdge         CameraRole = "EDGE"
	CameraRoleIntermediate CameraRole = "INTERMEDIATE"
)

// Camera is a registered detection point inside a toll zone. Its
// location is validated against the zone polygon at registration and
// never moves afterwards.
type Camera struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ZoneID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"zone_id"`
	Code      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Role      CameraRole `gorm:"type:camera_role;not null;default:INTERMEDIATE" json:"role"`
	Lat       float64    `gorm:"not null" json:"lat"`
	Lng       float64    `gorm:"not null" json:"lng"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Camera) TableName() string {
	return "cameras"
}

func (c *Camera) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
