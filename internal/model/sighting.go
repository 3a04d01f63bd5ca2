package model

import "time"

// PlateDetectionEvent is one plate detection emitted by a camera
// operator. It is ephemeral; the engine keeps nothing of it beyond the
// sightings folded into a trip.
type PlateDetectionEvent struct {
	Plate      string
	CameraCode string
	OperatorID string
	Confidence float64
	DetectedAt time.Time
}
