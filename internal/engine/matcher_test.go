package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"toll-engine/internal/model"
)

func testSnapshot(pathways [][]string) ZoneSnapshot {
	zoneID := uuid.New()
	sites := map[string]CameraSite{
		"CAM-A": {ZoneID: zoneID, Code: "CAM-A", Role: model.CameraRoleEdge, Location: model.LatLng{Lat: 0.1, Lng: 0.1}},
		"CAM-B": {ZoneID: zoneID, Code: "CAM-B", Role: model.CameraRoleIntermediate, Location: model.LatLng{Lat: 0.5, Lng: 0.5}},
		"CAM-C": {ZoneID: zoneID, Code: "CAM-C", Role: model.CameraRoleEdge, Location: model.LatLng{Lat: 0.9, Lng: 0.9}},
		"CAM-X": {ZoneID: zoneID, Code: "CAM-X", Role: model.CameraRoleIntermediate, Location: model.LatLng{Lat: 0.3, Lng: 0.7}},
	}
	return ZoneSnapshot{
		ZoneID:       zoneID,
		MaxDistanceM: 5000,
		FlatRate:     150,
		Pathways:     pathways,
		Sites:        sites,
	}
}

func sightingsAt(codes ...string) []model.Sighting {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Sighting, len(codes))
	for i, code := range codes {
		out[i] = model.Sighting{CameraCode: code, At: base.Add(time.Duration(i) * time.Minute), ArrivalSeq: uint64(i + 1)}
	}
	return out
}

func TestClassify(t *testing.T) {
	snap := testSnapshot([][]string{{"CAM-A", "CAM-B", "CAM-C"}})

	tests := []struct {
		name     string
		code     string
		observed []string
		want     Classification
	}{
		{"pathway head opens", "CAM-A", nil, ClassEntry},
		{"intermediate with no session", "CAM-B", nil, ClassIntermediateUnexpected},
		{"exit closes", "CAM-C", []string{"CAM-A", "CAM-B"}, ClassExit},
		{"exit closes even after entry only", "CAM-C", []string{"CAM-A"}, ClassExit},
		{"expected intermediate", "CAM-B", []string{"CAM-A"}, ClassIntermediateExpected},
		{"off-path intermediate", "CAM-X", []string{"CAM-A"}, ClassIntermediateUnexpected},
		{"out of order intermediate", "CAM-B", []string{"CAM-A", "CAM-B"}, ClassIntermediateUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(snap, tt.code, tt.observed); got != tt.want {
				t.Errorf("classify(%s, %v) = %s, want %s", tt.code, tt.observed, got, tt.want)
			}
		})
	}
}

func TestClassifyNoPathways(t *testing.T) {
	snap := testSnapshot(nil)

	if got := classify(snap, "CAM-A", nil); got != ClassEntry {
		t.Errorf("any edge camera should open in a zone without pathways, got %s", got)
	}
	if got := classify(snap, "CAM-C", []string{"CAM-A"}); got != ClassExit {
		t.Errorf("any edge camera should close in a zone without pathways, got %s", got)
	}
	if got := classify(snap, "CAM-B", []string{"CAM-A"}); got != ClassIntermediateExpected {
		t.Errorf("intermediates are unconstrained without pathways, got %s", got)
	}
}

func TestPathwayMatched(t *testing.T) {
	snap := testSnapshot([][]string{{"CAM-A", "CAM-B", "CAM-C"}})

	tests := []struct {
		name      string
		sightings []model.Sighting
		want      bool
	}{
		{"full pathway", sightingsAt("CAM-A", "CAM-B", "CAM-C"), true},
		{"skipped intermediate", sightingsAt("CAM-A", "CAM-C"), true},
		{"lingering repeats collapse", sightingsAt("CAM-A", "CAM-A", "CAM-B", "CAM-C"), true},
		{"off-path camera breaks match", sightingsAt("CAM-A", "CAM-X", "CAM-C"), false},
		{"wrong direction", sightingsAt("CAM-C", "CAM-B", "CAM-A"), false},
		{"exit only", sightingsAt("CAM-C"), false},
		{"entry only", sightingsAt("CAM-A"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pathwayMatched(snap, tt.sightings); got != tt.want {
				t.Errorf("pathwayMatched(%v) = %v, want %v", collapseCodes(tt.sightings), got, tt.want)
			}
		})
	}
}

func TestPathwayMatchedNoPathways(t *testing.T) {
	snap := testSnapshot(nil)
	if !pathwayMatched(snap, sightingsAt("CAM-A", "CAM-C")) {
		t.Error("zones without pathways should match every trip")
	}
}

func TestIsSubsequence(t *testing.T) {
	path := []string{"CAM-A", "CAM-B", "CAM-C", "CAM-D"}

	if !isSubsequence([]string{"CAM-A", "CAM-C"}, path) {
		t.Error("gapped subsequence should match")
	}
	if isSubsequence([]string{"CAM-C", "CAM-A"}, path) {
		t.Error("order must be preserved")
	}
	if !isSubsequence(nil, path) {
		t.Error("empty sequence is a subsequence of anything")
	}
}
