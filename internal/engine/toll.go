package engine

import (
	"toll-engine/internal/geo"
	"toll-engine/internal/model"
)

// computeToll prices a closing trip from the session snapshot alone, so
// identical inputs always produce the identical charge.
//
// COMPLETED trips pay the zone's per-meter rate over the haversine
// distance between entry and exit cameras; when that distance is
// unavailable or exceeds the zone maximum, the maximum distance is
// charged instead. BYPASSED and INVOICE_PENDING trips pay the flat
// rate, as does a zone with no per-meter rate configured.
func computeToll(status model.TripStatus, snap ZoneSnapshot, sightings []model.Sighting) float64 {
	if status != model.TripStatusCompleted {
		return snap.FlatRate
	}
	if snap.RatePerMeter <= 0 {
		return snap.FlatRate
	}

	distance, ok := entryExitDistance(snap, sightings)
	if !ok || distance > snap.MaxDistanceM {
		distance = snap.MaxDistanceM
	}
	return snap.RatePerMeter * distance
}

func entryExitDistance(snap ZoneSnapshot, sightings []model.Sighting) (float64, bool) {
	if len(sightings) < 2 {
		return 0, false
	}
	entry, okEntry := snap.Sites[sightings[0].CameraCode]
	exit, okExit := snap.Sites[sightings[len(sightings)-1].CameraCode]
	if !okEntry || !okExit {
		return 0, false
	}
	return geo.Haversine(entry.Location, exit.Location), true
}
