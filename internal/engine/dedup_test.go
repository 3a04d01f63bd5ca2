package engine

import (
	"testing"
	"time"
)

func TestDedupGateCooldown(t *testing.T) {
	gate := NewDedupGate(10 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if !gate.Admit("KA01AB1234", "CAM-A", base) {
		t.Fatal("first sighting should be admitted")
	}
	if gate.Admit("KA01AB1234", "CAM-A", base.Add(3*time.Second)) {
		t.Error("sighting inside cooldown should be suppressed")
	}
	if gate.Admit("KA01AB1234", "CAM-A", base.Add(9*time.Second)) {
		t.Error("sighting at 9s should still be suppressed")
	}
	if !gate.Admit("KA01AB1234", "CAM-A", base.Add(10*time.Second)) {
		t.Error("sighting at exactly the window edge should be admitted")
	}
}

func TestDedupGateIndependentKeys(t *testing.T) {
	gate := NewDedupGate(10 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if !gate.Admit("KA01AB1234", "CAM-A", base) {
		t.Fatal("first sighting should be admitted")
	}
	if !gate.Admit("KA01AB1234", "CAM-B", base.Add(time.Second)) {
		t.Error("same plate at a different camera must not be suppressed")
	}
	if !gate.Admit("MH12XY9999", "CAM-A", base.Add(time.Second)) {
		t.Error("different plate at the same camera must not be suppressed")
	}
}

func TestDedupGateAdmitRestartsWindow(t *testing.T) {
	gate := NewDedupGate(10 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	gate.Admit("KA01AB1234", "CAM-A", base)
	gate.Admit("KA01AB1234", "CAM-A", base.Add(12*time.Second))
	if gate.Admit("KA01AB1234", "CAM-A", base.Add(20*time.Second)) {
		t.Error("window should restart from the second admitted sighting")
	}
}

func TestDedupGatePrune(t *testing.T) {
	gate := NewDedupGate(10 * time.Second)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	gate.Admit("KA01AB1234", "CAM-A", base)
	gate.Prune(base.Add(time.Minute))

	if len(gate.expiry) != 0 {
		t.Errorf("expected empty gate after prune, have %d entries", len(gate.expiry))
	}
}
