package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TripStatus string

const (
	TripStatusOpen           TripStatus = "OPEN"
	TripStatusCompleted      TripStatus = "COMPLETED"
	TripStatusInvoicePending TripStatus = "INVOICE_PENDING"
	TripStatusBypassed       TripStatus = "BYPASSED"
)

// Terminal reports whether no further transition may leave the status.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusInvoicePending || s == TripStatusBypassed
}

// Sighting is one accepted detection recorded inside a trip. ArrivalSeq
// is the engine-wide arrival counter used to order sightings when camera
// clocks disagree.
type Sighting struct {
	CameraCode string    `json:"camera_code"`
	At         time.Time `json:"at"`
	ArrivalSeq uint64    `json:"arrival_seq"`
}

// Trip is the immutable, persisted outcome of a closed trip session.
// Seq is the ledger sequence id and defines append order.
type Trip struct {
	Seq        uint64     `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID         uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Plate      string     `gorm:"type:varchar(32);not null;index" json:"plate"`
	ZoneID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"zone_id"`
	Status     TripStatus `gorm:"type:trip_status;not null" json:"status"`
	Toll       float64    `gorm:"not null" json:"toll"`
	OwnerName  string     `gorm:"type:varchar(255);not null" json:"owner_name"`
	Registered bool       `gorm:"not null" json:"registered"`
	Sightings  []Sighting `gorm:"type:jsonb;serializer:json;not null" json:"sightings"`
	OpenedAt   time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt   time.Time  `gorm:"not null;index:idx_trips_closed_at,sort:desc" json:"closed_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Trip) TableName() string {
	return "trips"
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
