package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"toll-engine/internal/engine"
	"toll-engine/internal/geo"
	"toll-engine/internal/model"
	"toll-engine/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

const (
	defaultMaxDistanceM = 5000
	defaultFlatRate     = 150
)

// TopologyService handles the registration hooks: zones, cameras and
// pathways. Every accepted change is persisted first and then applied
// to the in-memory topology, so a restart reloads the same state.
type TopologyService struct {
	zones    *repository.ZoneRepository
	cameras  *repository.CameraRepository
	pathways *repository.PathwayRepository
	topo     *engine.Topology
	log      zerolog.Logger
}

func NewTopologyService(
	zones *repository.ZoneRepository,
	cameras *repository.CameraRepository,
	pathways *repository.PathwayRepository,
	topo *engine.Topology,
	log zerolog.Logger,
) *TopologyService {
	return &TopologyService{
		zones:    zones,
		cameras:  cameras,
		pathways: pathways,
		topo:     topo,
		log:      log,
	}
}

type CreateZoneInput struct {
	Name         string
	Vertices     []model.LatLng
	MaxDistanceM float64
	FlatRate     float64
	RatePerMeter float64
}

func (s *TopologyService) CreateZone(ctx context.Context, input CreateZoneInput) (*model.Zone, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: zone name is required", ErrInvalidInput)
	}
	if len(input.Vertices) < 3 {
		return nil, fmt.Errorf("%w: zone polygon needs at least 3 vertices", ErrInvalidInput)
	}

	zone := &model.Zone{
		ID:           uuid.New(),
		Name:         name,
		Vertices:     append([]model.LatLng(nil), input.Vertices...),
		MaxDistanceM: input.MaxDistanceM,
		FlatRate:     input.FlatRate,
		RatePerMeter: input.RatePerMeter,
	}
	if zone.MaxDistanceM <= 0 {
		zone.MaxDistanceM = defaultMaxDistanceM
	}
	if zone.FlatRate <= 0 {
		zone.FlatRate = defaultFlatRate
	}

	center := geo.Centroid(zone.Vertices)
	zone.CenterLat = center.Lat
	zone.CenterLng = center.Lng

	// Persist before the zone goes live in memory; a failed write must
	// not leave a zone that only exists until the next restart.
	if err := engine.ValidatePolygon(zone.Vertices); err != nil {
		return nil, mapEngineError(err)
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, fmt.Errorf("failed to persist zone: %w", err)
	}
	if err := s.topo.UpsertZone(*zone); err != nil {
		return nil, mapEngineError(err)
	}

	s.log.Info().Str("zone_id", zone.ID.String()).Str("name", zone.Name).Msg("zone created")
	return zone, nil
}

type RegisterCameraInput struct {
	ZoneID uuid.UUID
	Code   string
	Role   model.CameraRole
	Lat    float64
	Lng    float64
}

func (s *TopologyService) RegisterCamera(ctx context.Context, input RegisterCameraInput) (*model.Camera, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: camera code is required", ErrInvalidInput)
	}

	role := input.Role
	if role == "" {
		role = model.CameraRoleIntermediate
	}
	if role != model.CameraRoleEdge && role != model.CameraRoleIntermediate {
		return nil, fmt.Errorf("%w: unknown camera role %q", ErrInvalidInput, input.Role)
	}

	camera := &model.Camera{
		ID:     uuid.New(),
		ZoneID: input.ZoneID,
		Code:   code,
		Role:   role,
		Lat:    input.Lat,
		Lng:    input.Lng,
	}

	if err := s.topo.ValidateCamera(*camera); err != nil {
		return nil, mapEngineError(err)
	}
	if err := s.cameras.Create(ctx, camera); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: camera code %s already registered", ErrConflict, code)
		}
		return nil, fmt.Errorf("failed to persist camera: %w", err)
	}
	if err := s.topo.RegisterCamera(*camera); err != nil {
		return nil, mapEngineError(err)
	}

	s.log.Info().
		Str("zone_id", camera.ZoneID.String()).
		Str("code", camera.Code).
		Str("role", string(camera.Role)).
		Msg("camera registered")
	return camera, nil
}

// SetPathways replaces the full pathway set of a zone. Pathway edits
// apply to sessions opened afterwards only.
func (s *TopologyService) SetPathways(ctx context.Context, zoneID uuid.UUID, routes [][]string) ([]model.Pathway, error) {
	normalized := make([][]string, len(routes))
	for i, route := range routes {
		codes := make([]string, 0, len(route))
		for _, raw := range route {
			code := strings.ToUpper(strings.TrimSpace(raw))
			if code == "" {
				return nil, fmt.Errorf("%w: empty camera code in pathway %d", ErrInvalidInput, i)
			}
			codes = append(codes, code)
		}
		normalized[i] = codes
	}

	if err := s.topo.ValidatePathways(zoneID, normalized); err != nil {
		return nil, mapEngineError(err)
	}

	records := make([]model.Pathway, len(normalized))
	for i, codes := range normalized {
		records[i] = model.Pathway{
			ID:          uuid.New(),
			ZoneID:      zoneID,
			Position:    i,
			CameraCodes: codes,
		}
	}
	if err := s.pathways.ReplaceForZone(ctx, zoneID, records); err != nil {
		return nil, fmt.Errorf("failed to persist pathways: %w", err)
	}
	if err := s.topo.SetPathways(zoneID, normalized); err != nil {
		return nil, mapEngineError(err)
	}

	s.log.Info().Str("zone_id", zoneID.String()).Int("count", len(records)).Msg("zone pathways replaced")
	return records, nil
}

// ZoneDetails is the read model for the zone listing endpoint.
type ZoneDetails struct {
	Zone     model.Zone      `json:"zone"`
	Cameras  []model.Camera  `json:"cameras"`
	Pathways []model.Pathway `json:"pathways"`
}

func (s *TopologyService) ListZones(ctx context.Context) ([]ZoneDetails, error) {
	zones, err := s.zones.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}

	details := make([]ZoneDetails, 0, len(zones))
	for _, zone := range zones {
		cameras, err := s.cameras.ListByZone(ctx, zone.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list cameras for zone %s: %w", zone.ID, err)
		}
		pathways, err := s.pathways.ListByZone(ctx, zone.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list pathways for zone %s: %w", zone.ID, err)
		}
		details = append(details, ZoneDetails{Zone: zone, Cameras: cameras, Pathways: pathways})
	}
	return details, nil
}

// LoadTopology hydrates the in-memory topology from persisted records,
// called once at boot before the HTTP surface comes up.
func (s *TopologyService) LoadTopology(ctx context.Context) error {
	zones, err := s.zones.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load zones: %w", err)
	}
	cameras, err := s.cameras.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cameras: %w", err)
	}
	pathways, err := s.pathways.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pathways: %w", err)
	}
	if err := s.topo.Load(zones, cameras, pathways); err != nil {
		return fmt.Errorf("failed to build topology: %w", err)
	}
	s.log.Info().
		Int("zones", len(zones)).
		Int("cameras", len(cameras)).
		Int("pathways", len(pathways)).
		Msg("topology loaded")
	return nil
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownZone):
		return fmt.Errorf("%w: zone does not exist", ErrNotFound)
	case errors.Is(err, engine.ErrDuplicateCamera):
		return fmt.Errorf("%w: camera code already registered", ErrConflict)
	case errors.Is(err, engine.ErrOutsideZone):
		return fmt.Errorf("%w: camera location is outside the zone polygon", ErrInvalidInput)
	case errors.Is(err, engine.ErrInvalidPolygon):
		return fmt.Errorf("%w: zone polygon is degenerate", ErrInvalidInput)
	case errors.Is(err, engine.ErrInvalidPathway):
		return fmt.Errorf("%w: pathway references unknown cameras or is too short", ErrInvalidInput)
	default:
		return err
	}
}
