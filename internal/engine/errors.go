package engine

import "errors"

var (
	ErrUnknownZone     = errors.New("unknown zone")
	ErrUnknownCamera   = errors.New("unknown camera")
	ErrInvalidPlate    = errors.New("invalid plate")
	ErrInvalidPolygon  = errors.New("zone polygon needs at least 3 distinct vertices")
	ErrOutsideZone     = errors.New("camera location outside zone polygon")
	ErrDuplicateCamera = errors.New("camera code already registered")
	ErrInvalidPathway  = errors.New("pathway must list at least two cameras of the zone")
)
