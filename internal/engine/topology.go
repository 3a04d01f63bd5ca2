package engine

import (
	"sync"

	"github.com/google/uuid"

	"toll-engine/internal/geo"
	"toll-engine/internal/model"
)

// CameraSite is the topology view of a registered camera.
type CameraSite struct {
	ZoneID   uuid.UUID
	Code     string
	Role     model.CameraRole
	Location model.LatLng
}

// ZoneSnapshot is the topology state a trip session captures when it
// opens. Later registration updates never apply to it, so topology
// changes are not retroactive for sessions already in progress.
type ZoneSnapshot struct {
	ZoneID       uuid.UUID
	MaxDistanceM float64
	FlatRate     float64
	RatePerMeter float64
	Pathways     [][]string
	Sites        map[string]CameraSite
}

type zoneEntry struct {
	zone     model.Zone
	pathways [][]string
	cameras  map[string]CameraSite
}

// Topology holds zones, cameras and pathways in memory. Reads dominate;
// writes only happen through the registration hooks.
type Topology struct {
	mu      sync.RWMutex
	zones   map[uuid.UUID]*zoneEntry
	cameras map[string]CameraSite
}

func NewTopology() *Topology {
	return &Topology{
		zones:   make(map[uuid.UUID]*zoneEntry),
		cameras: make(map[string]CameraSite),
	}
}

// Load replaces the full topology from persisted records, used at boot.
func (t *Topology) Load(zones []model.Zone, cameras []model.Camera, pathways []model.Pathway) error {
	t.mu.Lock()
	t.zones = make(map[uuid.UUID]*zoneEntry, len(zones))
	t.cameras = make(map[string]CameraSite, len(cameras))
	t.mu.Unlock()

	for i := range zones {
		if err := t.UpsertZone(zones[i]); err != nil {
			return err
		}
	}
	for i := range cameras {
		if err := t.RegisterCamera(cameras[i]); err != nil {
			return err
		}
	}
	byZone := make(map[uuid.UUID][][]string)
	for _, p := range pathways {
		byZone[p.ZoneID] = append(byZone[p.ZoneID], p.CameraCodes)
	}
	for zoneID, paths := range byZone {
		if err := t.SetPathways(zoneID, paths); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePolygon checks a zone polygon without touching the topology.
func ValidatePolygon(vertices []model.LatLng) error {
	if countDistinct(vertices) < 3 {
		return ErrInvalidPolygon
	}
	return nil
}

// UpsertZone registers or refreshes a zone definition.
func (t *Topology) UpsertZone(zone model.Zone) error {
	if err := ValidatePolygon(zone.Vertices); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.zones[zone.ID]
	if !ok {
		entry = &zoneEntry{cameras: make(map[string]CameraSite)}
		t.zones[zone.ID] = entry
	}
	entry.zone = zone
	return nil
}

// ValidateCamera runs the registration checks for a camera without
// mutating the topology, so callers can persist the record before the
// camera goes live.
func (t *Topology) ValidateCamera(camera model.Camera) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.checkCamera(camera)
}

func (t *Topology) checkCamera(camera model.Camera) error {
	entry, ok := t.zones[camera.ZoneID]
	if !ok {
		return ErrUnknownZone
	}
	if _, exists := t.cameras[camera.Code]; exists {
		return ErrDuplicateCamera
	}
	loc := model.LatLng{Lat: camera.Lat, Lng: camera.Lng}
	if !geo.PointInPolygon(loc, entry.zone.Vertices) {
		return ErrOutsideZone
	}
	return nil
}

// RegisterCamera adds a camera after validating its placement against
// the owning zone's polygon. Placement is immutable once accepted.
func (t *Topology) RegisterCamera(camera model.Camera) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkCamera(camera); err != nil {
		return err
	}
	entry := t.zones[camera.ZoneID]
	loc := model.LatLng{Lat: camera.Lat, Lng: camera.Lng}

	site := CameraSite{
		ZoneID:   camera.ZoneID,
		Code:     camera.Code,
		Role:     camera.Role,
		Location: loc,
	}
	entry.cameras[camera.Code] = site
	t.cameras[camera.Code] = site
	return nil
}

// ValidatePathways checks a replacement pathway set without applying
// it.
func (t *Topology) ValidatePathways(zoneID uuid.UUID, pathways [][]string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.checkPathways(zoneID, pathways)
}

func (t *Topology) checkPathways(zoneID uuid.UUID, pathways [][]string) error {
	entry, ok := t.zones[zoneID]
	if !ok {
		return ErrUnknownZone
	}
	for _, path := range pathways {
		if len(path) < 2 {
			return ErrInvalidPathway
		}
		for _, code := range path {
			if _, ok := entry.cameras[code]; !ok {
				return ErrInvalidPathway
			}
		}
	}
	return nil
}

// SetPathways replaces the pathway set of a zone. Every listed camera
// must already be registered in that zone.
func (t *Topology) SetPathways(zoneID uuid.UUID, pathways [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkPathways(zoneID, pathways); err != nil {
		return err
	}
	entry := t.zones[zoneID]

	copied := make([][]string, len(pathways))
	for i, path := range pathways {
		copied[i] = append([]string(nil), path...)
	}
	entry.pathways = copied
	return nil
}

// CameraSite answers the zone membership and role of a camera code.
func (t *Topology) CameraSite(code string) (CameraSite, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	site, ok := t.cameras[code]
	return site, ok
}

func (t *Topology) Zone(zoneID uuid.UUID) (model.Zone, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.zones[zoneID]
	if !ok {
		return model.Zone{}, false
	}
	return entry.zone, true
}

func (t *Topology) PathwaysForZone(zoneID uuid.UUID) [][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.zones[zoneID]
	if !ok {
		return nil
	}
	copied := make([][]string, len(entry.pathways))
	for i, path := range entry.pathways {
		copied[i] = append([]string(nil), path...)
	}
	return copied
}

// ValidPlacement runs the point-in-polygon check used by the camera
// registration hook. Boundary points count as inside.
func (t *Topology) ValidPlacement(zoneID uuid.UUID, loc model.LatLng) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.zones[zoneID]
	if !ok {
		return false
	}
	return geo.PointInPolygon(loc, entry.zone.Vertices)
}

// Snapshot captures the zone pricing, pathways and camera sites for a
// newly opened session.
func (t *Topology) Snapshot(zoneID uuid.UUID) (ZoneSnapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.zones[zoneID]
	if !ok {
		return ZoneSnapshot{}, false
	}

	snap := ZoneSnapshot{
		ZoneID:       zoneID,
		MaxDistanceM: entry.zone.MaxDistanceM,
		FlatRate:     entry.zone.FlatRate,
		RatePerMeter: entry.zone.RatePerMeter,
		Pathways:     make([][]string, len(entry.pathways)),
		Sites:        make(map[string]CameraSite, len(entry.cameras)),
	}
	for i, path := range entry.pathways {
		snap.Pathways[i] = append([]string(nil), path...)
	}
	for code, site := range entry.cameras {
		snap.Sites[code] = site
	}
	return snap, true
}

func countDistinct(vertices []model.LatLng) int {
	seen := make(map[model.LatLng]struct{}, len(vertices))
	for _, v := range vertices {
		seen[v] = struct{}{}
	}
	return len(seen)
}
