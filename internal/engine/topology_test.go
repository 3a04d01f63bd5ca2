package engine

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"toll-engine/internal/model"
)

func testZone() model.Zone {
	return model.Zone{
		ID:   uuid.New(),
		Name: "Airport Ring",
		Vertices: []model.LatLng{
			{Lat: 0, Lng: 0},
			{Lat: 0, Lng: 1},
			{Lat: 1, Lng: 1},
			{Lat: 1, Lng: 0},
		},
		MaxDistanceM: 5000,
		FlatRate:     150,
	}
}

func TestTopologyRegisterCamera(t *testing.T) {
	topo := NewTopology()
	zone := testZone()
	if err := topo.UpsertZone(zone); err != nil {
		t.Fatalf("UpsertZone: %v", err)
	}

	inside := model.Camera{ZoneID: zone.ID, Code: "CAM-A", Role: model.CameraRoleEdge, Lat: 0.5, Lng: 0.5}
	if err := topo.RegisterCamera(inside); err != nil {
		t.Fatalf("RegisterCamera inside polygon: %v", err)
	}

	outside := model.Camera{ZoneID: zone.ID, Code: "CAM-B", Role: model.CameraRoleEdge, Lat: 2, Lng: 2}
	if err := topo.RegisterCamera(outside); !errors.Is(err, ErrOutsideZone) {
		t.Errorf("RegisterCamera outside polygon = %v, want ErrOutsideZone", err)
	}

	boundary := model.Camera{ZoneID: zone.ID, Code: "CAM-C", Role: model.CameraRoleEdge, Lat: 0, Lng: 0.5}
	if err := topo.RegisterCamera(boundary); err != nil {
		t.Errorf("RegisterCamera on boundary = %v, boundary points count as inside", err)
	}

	dup := model.Camera{ZoneID: zone.ID, Code: "CAM-A", Role: model.CameraRoleIntermediate, Lat: 0.4, Lng: 0.4}
	if err := topo.RegisterCamera(dup); !errors.Is(err, ErrDuplicateCamera) {
		t.Errorf("duplicate code = %v, want ErrDuplicateCamera", err)
	}

	orphan := model.Camera{ZoneID: uuid.New(), Code: "CAM-D", Role: model.CameraRoleEdge, Lat: 0.5, Lng: 0.5}
	if err := topo.RegisterCamera(orphan); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("unknown zone = %v, want ErrUnknownZone", err)
	}
}

func TestTopologyDegeneratePolygon(t *testing.T) {
	topo := NewTopology()
	zone := testZone()
	zone.Vertices = []model.LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0}}
	if err := topo.UpsertZone(zone); !errors.Is(err, ErrInvalidPolygon) {
		t.Errorf("UpsertZone with 2 distinct vertices = %v, want ErrInvalidPolygon", err)
	}
}

func TestTopologySetPathways(t *testing.T) {
	topo := NewTopology()
	zone := testZone()
	if err := topo.UpsertZone(zone); err != nil {
		t.Fatalf("UpsertZone: %v", err)
	}
	for _, cam := range []model.Camera{
		{ZoneID: zone.ID, Code: "CAM-A", Role: model.CameraRoleEdge, Lat: 0.1, Lng: 0.1},
		{ZoneID: zone.ID, Code: "CAM-B", Role: model.CameraRoleIntermediate, Lat: 0.5, Lng: 0.5},
	} {
		if err := topo.RegisterCamera(cam); err != nil {
			t.Fatalf("RegisterCamera %s: %v", cam.Code, err)
		}
	}

	if err := topo.SetPathways(zone.ID, [][]string{{"CAM-A", "CAM-B"}}); err != nil {
		t.Fatalf("SetPathways: %v", err)
	}
	if err := topo.SetPathways(zone.ID, [][]string{{"CAM-A"}}); !errors.Is(err, ErrInvalidPathway) {
		t.Errorf("single camera pathway = %v, want ErrInvalidPathway", err)
	}
	if err := topo.SetPathways(zone.ID, [][]string{{"CAM-A", "CAM-Z"}}); !errors.Is(err, ErrInvalidPathway) {
		t.Errorf("unknown camera in pathway = %v, want ErrInvalidPathway", err)
	}
}

func TestTopologySnapshotIsolation(t *testing.T) {
	topo := NewTopology()
	zone := testZone()
	if err := topo.UpsertZone(zone); err != nil {
		t.Fatalf("UpsertZone: %v", err)
	}
	cams := []model.Camera{
		{ZoneID: zone.ID, Code: "CAM-A", Role: model.CameraRoleEdge, Lat: 0.1, Lng: 0.1},
		{ZoneID: zone.ID, Code: "CAM-B", Role: model.CameraRoleEdge, Lat: 0.9, Lng: 0.9},
	}
	for _, cam := range cams {
		if err := topo.RegisterCamera(cam); err != nil {
			t.Fatalf("RegisterCamera: %v", err)
		}
	}
	if err := topo.SetPathways(zone.ID, [][]string{{"CAM-A", "CAM-B"}}); err != nil {
		t.Fatalf("SetPathways: %v", err)
	}

	snap, ok := topo.Snapshot(zone.ID)
	if !ok {
		t.Fatal("Snapshot: zone missing")
	}

	// Later pathway edits must not leak into snapshots taken earlier.
	if err := topo.SetPathways(zone.ID, nil); err != nil {
		t.Fatalf("SetPathways clear: %v", err)
	}
	if len(snap.Pathways) != 1 || len(snap.Pathways[0]) != 2 {
		t.Errorf("snapshot pathways mutated after edit: %v", snap.Pathways)
	}
}

func TestTopologyValidateDoesNotMutate(t *testing.T) {
	topo := NewTopology()
	zone := testZone()
	if err := topo.UpsertZone(zone); err != nil {
		t.Fatalf("UpsertZone: %v", err)
	}

	cam := model.Camera{ZoneID: zone.ID, Code: "CAM-A", Role: model.CameraRoleEdge, Lat: 0.5, Lng: 0.5}
	if err := topo.ValidateCamera(cam); err != nil {
		t.Fatalf("ValidateCamera: %v", err)
	}
	if _, ok := topo.CameraSite("CAM-A"); ok {
		t.Error("ValidateCamera must not register the camera")
	}
	// Validation passed without registering, so registration still works.
	if err := topo.RegisterCamera(cam); err != nil {
		t.Fatalf("RegisterCamera after validate: %v", err)
	}

	if err := topo.ValidatePathways(zone.ID, [][]string{{"CAM-A", "CAM-Z"}}); !errors.Is(err, ErrInvalidPathway) {
		t.Errorf("ValidatePathways with unknown camera = %v, want ErrInvalidPathway", err)
	}
	if got := topo.PathwaysForZone(zone.ID); len(got) != 0 {
		t.Errorf("ValidatePathways must not install pathways, have %v", got)
	}

	if err := ValidatePolygon([]model.LatLng{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}); !errors.Is(err, ErrInvalidPolygon) {
		t.Errorf("ValidatePolygon = %v, want ErrInvalidPolygon", err)
	}
}

func TestTopologyLoad(t *testing.T) {
	zone := testZone()
	cameras := []model.Camera{
		{ZoneID: zone.ID, Code: "CAM-A", Role: model.CameraRoleEdge, Lat: 0.1, Lng: 0.1},
		{ZoneID: zone.ID, Code: "CAM-B", Role: model.CameraRoleEdge, Lat: 0.9, Lng: 0.9},
	}
	pathways := []model.Pathway{
		{ID: uuid.New(), ZoneID: zone.ID, Position: 0, CameraCodes: []string{"CAM-A", "CAM-B"}},
	}

	topo := NewTopology()
	if err := topo.Load([]model.Zone{zone}, cameras, pathways); err != nil {
		t.Fatalf("Load: %v", err)
	}

	site, ok := topo.CameraSite("CAM-A")
	if !ok || site.ZoneID != zone.ID {
		t.Errorf("CameraSite after load = %+v, %v", site, ok)
	}
	if got := topo.PathwaysForZone(zone.ID); len(got) != 1 {
		t.Errorf("PathwaysForZone after load = %v", got)
	}
}
